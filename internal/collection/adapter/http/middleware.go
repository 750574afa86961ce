package http

import (
	"context"
	"strings"

	"collection-tracker/internal/collection/adapter/security"
	"collection-tracker/internal/shared/contextkeys"
	apperrors "collection-tracker/internal/shared/errors"
	"collection-tracker/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDLocal  = string(contextkeys.RequestIDKey)
	userIDParam     = "userID"
)

// TokenValidator verifies a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(token string) (*security.Claims, error)
}

// Middleware holds the request pipeline shared by the collection routes
type Middleware struct {
	tokens TokenValidator
}

// NewMiddleware creates the collection middleware
func NewMiddleware(tokens TokenValidator) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequestID assigns a correlation id and copies it onto the user context
func (m *Middleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     requestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: requestIDLocal,
	})
}

// WithRequestContext lifts the request id into the context seen by usecases
func (m *Middleware) WithRequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if id := requestID(c); id != "" {
			ctx = utils.WithRequestID(ctx, id)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Protect requires a valid bearer token whose subject owns the :userID path
// segment.
func (m *Middleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := extractToken(c)
		if err != nil {
			return writeError(c, apperrors.NewAuthenticationError("authentication required").WithCause(err))
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			return writeError(c, apperrors.NewAuthenticationError("invalid token").WithCause(apperrors.ErrInvalidToken))
		}

		if owner := c.Params(userIDParam); owner != "" && owner != claims.UserID() {
			return writeError(c, apperrors.NewAuthorizationError("token does not grant access to this collection").WithCause(apperrors.ErrForbidden))
		}

		ctx := utils.WithUserID(c.UserContext(), claims.UserID())
		ctx = context.WithValue(ctx, contextkeys.ClaimsKey, claims)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", apperrors.ErrUnauthorized
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", apperrors.ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
