package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mvura-console/internal/api/dto"
	"github.com/spec-kit/mvura-console/internal/auth"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// AuthHandler exposes the session gate.
type AuthHandler struct {
	gate *auth.SessionGate
}

// NewAuthHandler constructs handler.
func NewAuthHandler(gate *auth.SessionGate) *AuthHandler {
	return &AuthHandler{gate: gate}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.gate.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		SessionID: result.Session.ID,
		Operator:  result.Session.Operator,
		ExpiresAt: result.Session.ExpiresAt,
	}})
}

// Logout handles POST /auth/logout. Any tab holding the same session loses
// access immediately.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c)
	if err != nil {
		return err
	}
	if err := h.gate.Logout(c.UserContext(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Session handles GET /auth/session behind the session middleware.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		SessionID: session.ID,
		Operator:  session.Operator,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
	}})
}
