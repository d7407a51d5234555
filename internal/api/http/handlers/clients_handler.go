package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mvura-console/internal/api/dto"
	"github.com/spec-kit/mvura-console/internal/auth"
	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/repository"
	"github.com/spec-kit/mvura-console/internal/service"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

const startDateLayout = "2006-01-02"

// ClientsHandler exposes the client directory.
type ClientsHandler struct {
	service *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

// ListClients GET /clients.
func (h *ClientsHandler) ListClients(c *fiber.Ctx) error {
	filter := repository.ClientFilter{}
	if raw := optionalQuery(c, "status"); raw != nil {
		status := domain.ClientStatus(strings.ToUpper(*raw))
		filter.Status = &status
	}
	if raw := optionalQuery(c, "contract_type"); raw != nil {
		contract := domain.ContractType(strings.ToUpper(*raw))
		filter.ContractType = &contract
	}
	clients, err := h.service.ListClients(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for _, client := range clients {
		items = append(items, clientResponse(client))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateClient POST /clients.
func (h *ClientsHandler) CreateClient(c *fiber.Ctx) error {
	profile, err := parseClientRequest(c)
	if err != nil {
		return err
	}
	client, err := h.service.CreateClient(c.UserContext(), auth.Actor(c), profile)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// GetClient GET /clients/:id.
func (h *ClientsHandler) GetClient(c *fiber.Ctx) error {
	client, err := h.service.GetClient(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// UpdateClient PUT /clients/:id.
func (h *ClientsHandler) UpdateClient(c *fiber.Ctx) error {
	profile, err := parseClientRequest(c)
	if err != nil {
		return err
	}
	client, err := h.service.UpdateClient(c.UserContext(), auth.Actor(c), c.Params("id"), profile)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// ClientTickets GET /clients/:id/tickets.
func (h *ClientsHandler) ClientTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ClientTickets(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// ClientActivity GET /clients/:id/activity.
func (h *ClientsHandler) ClientActivity(c *fiber.Ctx) error {
	entries, err := h.service.ClientActivity(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ClientActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ClientActivityResponse{
			Type:        string(entry.Type),
			Actor:       entry.Actor,
			Description: entry.Description,
			At:          entry.At,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseClientRequest(c *fiber.Ctx) (domain.ClientProfile, error) {
	var req dto.ClientRequest
	if err := parseBody(c, &req); err != nil {
		return domain.ClientProfile{}, err
	}
	profile := domain.ClientProfile{
		Name:         strings.TrimSpace(req.Name),
		NIF:          strings.TrimSpace(req.NIF),
		Address:      strings.TrimSpace(req.Address),
		Contact:      strings.TrimSpace(req.Contact),
		Email:        strings.TrimSpace(req.Email),
		ContractType: domain.ContractType(strings.ToUpper(strings.TrimSpace(req.ContractType))),
		Status:       domain.ClientStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	}
	if req.StartDate != "" {
		start, err := time.Parse(startDateLayout, req.StartDate)
		if err != nil {
			return domain.ClientProfile{}, apperrors.NewValidationError("start_date must be YYYY-MM-DD", map[string]any{"start_date": req.StartDate})
		}
		profile.StartDate = start
	}
	return profile, nil
}

func clientResponse(client *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{ID: client.ID(), ClientProfile: client.Profile()}
}
