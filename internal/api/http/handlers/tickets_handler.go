package handlers

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mvura-console/internal/api/dto"
	"github.com/spec-kit/mvura-console/internal/auth"
	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/service"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// TicketsHandler manages the console's ticket endpoints.
type TicketsHandler struct {
	service     *service.TicketService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, assignments: assignmentService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	snap, err := h.service.CreateTicket(c.UserContext(), auth.Actor(c), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		ClientID:    req.ClientID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": snap})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, page, pageSize, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	items, total, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	snap, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snap})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.AddCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	author := req.Author
	if strings.TrimSpace(author) == "" {
		if session, ok := auth.SessionFromContext(c); ok {
			author = session.Operator
		}
	}
	comment, err := h.service.AddComment(c.UserContext(), id, author, req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": comment})
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status, err := domain.ParseTicketStatus(req.Status)
	if err != nil {
		return err
	}
	snap, err := h.service.ChangeStatus(c.UserContext(), auth.Actor(c), id, status, req.ResolutionNote)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snap})
}

// Reassign POST /tickets/:id/assignee.
func (h *TicketsHandler) Reassign(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ReassignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	agent := req.Agent
	if agent != nil && *agent == "" {
		agent = nil
	}
	snap, err := h.service.Reassign(c.UserContext(), auth.Actor(c), id, agent)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snap})
}

// AutoAssign POST /tickets/:id/assignee/auto.
func (h *TicketsHandler) AutoAssign(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	snap, err := h.assignments.AutoAssignTicket(c.UserContext(), auth.Actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snap})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, int, int, error) {
	filter := service.TicketListFilter{
		Assignee:   optionalQuery(c, "assignee"),
		ClientID:   optionalQuery(c, "client_id"),
		SearchTerm: optionalQuery(c, "q"),
	}
	for _, raw := range splitList(c.Query("status")) {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			return filter, 0, 0, err
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitList(c.Query("category")) {
		category, err := domain.ParseTicketCategory(raw)
		if err != nil {
			return filter, 0, 0, err
		}
		filter.Categories = append(filter.Categories, category)
	}
	for _, raw := range splitList(c.Query("priority")) {
		priority, err := domain.ParseTicketPriority(raw)
		if err != nil {
			return filter, 0, 0, err
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	if c.Query("unassigned") == "true" {
		empty := ""
		filter.Assignee = &empty
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := min(parseInt(c.Query("page_size"), defaultPageSize), maxPageSize)
	if page-1 > math.MaxInt/pageSize {
		return filter, 0, 0, apperrors.NewValidationError("page out of range", map[string]any{"page": page})
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, page, pageSize, nil
}
