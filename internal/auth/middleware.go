package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

const sessionLocalsKey = "auth_session"

// SessionMiddleware rejects requests that do not carry a live session.
type SessionMiddleware struct {
	gate *SessionGate
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(gate *SessionGate) *SessionMiddleware {
	return &SessionMiddleware{gate: gate}
}

// Handle enforces the session gate for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}
	session, err := m.gate.Validate(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(sessionLocalsKey, session)
	return c.Next()
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionLocalsKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.Session)
	return session, ok
}

// Actor names whoever is behind the request, for comments and audit entries.
func Actor(c *fiber.Ctx) string {
	if session, ok := SessionFromContext(c); ok && session.Operator != "" {
		return session.Operator
	}
	return "system"
}
