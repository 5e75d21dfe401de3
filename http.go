package identity

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const userContextKey = "identity:user"

// RouteAuthenticator is the request gatekeeper: it resolves a bearer token
// to a stored identity before any protected handler runs.
type RouteAuthenticator struct {
	tokens TokenService
	repo   RepositoryManager
	logger Logger
}

func NewRouteAuthenticator(tokens TokenService, repo RepositoryManager) *RouteAuthenticator {
	return &RouteAuthenticator{
		tokens: tokens,
		repo:   repo,
		logger: defLogger{},
	}
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Protected returns the authorization middleware. A token that decodes
// cleanly is still rejected when the identity no longer stores it: logout
// and session supersession take effect immediately even though the JWT
// itself remains valid until expiry.
func (a *RouteAuthenticator) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return RenderError(c, err)
		}

		userID, err := a.tokens.Validate(raw)
		if err != nil {
			a.logger.Debug("token validation failed", "error", err)
			return RenderError(c, ErrNotAuthorized)
		}

		user, err := a.repo.Users().GetByID(c.UserContext(), userID)
		if err != nil {
			if !repository.IsRecordNotFound(err) {
				a.logger.Error("gatekeeper user lookup failed", "error", err)
			}
			return RenderError(c, ErrNotAuthorized)
		}

		if user.SessionToken == "" || user.SessionToken != raw {
			return RenderError(c, ErrNotAuthorized)
		}

		c.Locals(userContextKey, user)

		return c.Next()
	}
}

// UserFromContext returns the identity the gatekeeper resolved for this
// request
func UserFromContext(c *fiber.Ctx) (*User, error) {
	user, ok := c.Locals(userContextKey).(*User)
	if !ok || user == nil {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

func bearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", ErrNotAuthorized
	}
	return token, nil
}

// RenderError maps domain errors onto HTTP responses: validation errors
// surface verbatim with field context, rich errors use their code or
// category, everything else is an internal failure.
func RenderError(c *fiber.Ctx, err error) error {
	var fieldErrs validation.Errors
	if goerrors.As(err, &fieldErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  fieldErrs,
		})
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return c.Status(statusFromError(rich)).JSON(fiber.Map{
			"message": rich.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal Server Error",
	})
}

func statusFromError(err *goerrors.Error) int {
	if err.Code > 0 {
		return int(err.Code)
	}

	switch err.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
