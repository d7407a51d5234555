package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mvura-console/internal/api/dto"
	"github.com/spec-kit/mvura-console/internal/service"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// AgentsHandler lists and toggles assignable agents.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// ListAgents GET /agents. ?active=true hides deactivated agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.service.ListAgents(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agents})
}

// SetAvailability PATCH /agents/:name.
func (h *AgentsHandler) SetAvailability(c *fiber.Ctx) error {
	var req dto.AgentAvailabilityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Active == nil {
		return apperrors.NewValidationError("active required", nil)
	}
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return apperrors.NewValidationError("invalid agent name", map[string]any{"agent": c.Params("name")})
	}
	if err := h.service.SetActive(c.UserContext(), name, *req.Active); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
