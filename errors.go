package identity

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailInUse       = "identity_email_in_use"
	TextCodeWrongCredentials = "identity_wrong_credentials"
	TextCodeEmailNotVerified = "identity_email_not_verified"
	TextCodeNotAuthorized    = "identity_not_authorized"
	TextCodeUserNotFound     = "identity_user_not_found"
	TextCodeAlreadyVerified  = "identity_already_verified"
	TextCodeTokenExpired     = "identity_token_expired"
	TextCodeTokenMalformed   = "identity_token_malformed"
)

// ErrEmailInUse is returned when registration hits an existing email.
var ErrEmailInUse = errors.New("Email in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(errors.CodeConflict)

// ErrWrongCredentials is returned for an unknown email AND for a failed
// password check. Both paths share one message so callers cannot enumerate
// registered accounts.
var ErrWrongCredentials = errors.New("Email or password is wrong", errors.CategoryAuth).
	WithTextCode(TextCodeWrongCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned when the password checks out but the
// account never confirmed its verification link.
var ErrEmailNotVerified = errors.New("Email wrong", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthorized is the blanket gatekeeper rejection: missing, invalid,
// expired, or superseded bearer tokens all map here.
var ErrNotAuthorized = errors.New("Not authorized", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned for direct lookups that miss, including
// verification tokens that were already consumed.
var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrAlreadyVerified is returned when a verification re-send targets an
// account that is verified.
var ErrAlreadyVerified = errors.New("Verification has already been passed", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned by the token service for expired JWTs.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail signature or structure
// checks.
var ErrTokenMalformed = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword reports a failed password comparison.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input where content is required.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)
