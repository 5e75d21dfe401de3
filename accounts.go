package identity

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const storeTimeout = time.Second * 10

// Accounts is the identity lifecycle service. It composes the credential
// store, password hasher, token issuer, and mailer gateway into the
// register / login / logout / verify operations.
//
// Every operation treats its store interaction as one read-modify-write
// unit. Per-identity serialization is not guaranteed: two concurrent logins
// race on last-writer-wins for the session token, which is accepted.
type Accounts struct {
	repo       RepositoryManager
	tokens     TokenService
	mailer     Mailer
	logger     Logger
	bcryptCost int
	baseURL    string
}

// NewAccounts returns a new lifecycle service
func NewAccounts(repo RepositoryManager, opts Config) *Accounts {
	tokens := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	cost := opts.GetBcryptCost()
	if cost <= 0 {
		cost = DefaultBcryptCost
	}

	return &Accounts{
		repo:       repo,
		tokens:     tokens,
		mailer:     noopMailer{},
		logger:     defLogger{},
		bcryptCost: cost,
		baseURL:    opts.GetBaseURL(),
	}
}

func (s *Accounts) WithLogger(logger Logger) *Accounts {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithMailer configures the delivery gateway for verification email
func (s *Accounts) WithMailer(mailer Mailer) *Accounts {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

// WithTokenService overrides the default token issuer
func (s *Accounts) WithTokenService(tokens TokenService) *Accounts {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// TokenService returns the token issuer used by this service
func (s *Accounts) TokenService() TokenService {
	return s.tokens
}

// Register creates a new unverified identity and sends the verification
// email. Mail failure is logged and does not roll back the registration.
func (s *Accounts) Register(ctx context.Context, email, password string, subscription Subscription) (Profile, error) {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Users().GetByEmailTx(ctx, tx, email); err == nil {
			return ErrEmailInUse
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		hash, err := HashPassword(password, s.bcryptCost)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		token, err := NewVerificationToken()
		if err != nil {
			return err
		}

		user.Email = email
		user.PasswordHash = hash
		user.Subscription = subscription
		user.VerificationToken = token
		user.AvatarURL = GravatarURL(email)

		if user, err = s.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// the availability check above can race a concurrent insert
			if isUniqueViolation(err) {
				return ErrEmailInUse
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		return Profile{}, richError(err, "user registration failed")
	}

	s.sendVerificationMail(ctx, user.Email, user.VerificationToken)

	return user.Profile(), nil
}

// Login verifies credentials and issues a fresh session token, overwriting
// any prior one: earlier sessions are superseded.
func (s *Accounts) Login(ctx context.Context, email, password string) (string, Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", Profile{}, ErrWrongCredentials
		}
		return "", Profile{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return "", Profile{}, ErrWrongCredentials
	}

	if !user.Verified {
		return "", Profile{}, ErrEmailNotVerified
	}

	token, err := s.tokens.Generate(user.ID.String())
	if err != nil {
		return "", Profile{}, richError(err, "failed to issue session token")
	}

	if err := s.repo.Users().StoreSessionToken(ctx, user.ID, token); err != nil {
		return "", Profile{}, richError(err, "failed to persist session token")
	}

	return token, user.Profile(), nil
}

// Logout clears the stored session token. The bearer token itself stays
// structurally valid until expiry; the gatekeeper's store check is what
// rejects it from now on.
func (s *Accounts) Logout(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.repo.Users().ClearSessionToken(ctx, id); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrNotAuthorized
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear session token")
	}

	return nil
}

// CurrentUser projects the public shape of an already resolved identity
func (s *Accounts) CurrentUser(user *User) Profile {
	if user == nil {
		return Profile{}
	}
	return user.Profile()
}

// RequestVerification re-sends the verification email using the existing
// token. It never regenerates the token and never mutates stored state.
func (s *Accounts) RequestVerification(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	s.sendVerificationMail(ctx, user.Email, user.VerificationToken)

	return nil
}

// ConfirmVerification consumes a verification token: it flips the identity
// to verified and clears the token in one update. A second call with the
// same token reports not found.
func (s *Accounts) ConfirmVerification(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByVerificationTokenTx(ctx, tx, token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification token")
		}

		if err := s.repo.Users().MarkVerifiedTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user verified")
		}

		return nil
	})

	if err != nil {
		return richError(err, "verification failed")
	}

	return nil
}

func (s *Accounts) sendVerificationMail(ctx context.Context, email, token string) {
	msg := Message{
		To:      email,
		Subject: "Verify your email",
		HTML: fmt.Sprintf(
			`<a target="_blank" href="%s/api/users/verify/%s">Click to verify your email</a>`,
			s.baseURL, token,
		),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("verification mail delivery failed", "to", email, "error", err)
	}
}

// richError keeps domain errors intact and wraps everything else as internal
func richError(err error, msg string) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}
