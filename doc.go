// Package identity provides the account lifecycle for a small contacts
// service: registration with email verification, bcrypt credential checks,
// JWT session issuance, logout, and avatar management.
//
// Account lifecycle:
//   - Accounts orchestrates registration, login, logout, and verification on
//     top of the Users repository. Registration stores an unverified account
//     with a random verification token and sends a confirmation link; login
//     is refused until the token is consumed through ConfirmVerification.
//   - Sessions are single valued. Login overwrites the stored session token,
//     so at most one JWT is live per account and logout invalidates it
//     immediately even though the JWT itself has not expired.
//
// HTTP surface:
//   - RouteAuthenticator guards routes by validating the bearer JWT and
//     checking it against the stored session token. HTTPController exposes
//     the lifecycle plus an ownership scoped contacts CRUD as a JSON API.
//   - AvatarPipeline accepts multipart uploads, normalizes them to a square
//     thumbnail, and serves them from a public directory keyed by user id.
//
// Delivery:
//   - Mailer implementations deliver verification emails best-effort; send
//     failures are logged and never roll back the account mutation that
//     triggered them.
package identity
