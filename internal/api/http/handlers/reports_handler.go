package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mvura-console/internal/service"
)

// ReportsHandler serves the dashboard figures.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Categories GET /reports/categories.
func (h *ReportsHandler) Categories(c *fiber.Ctx) error {
	shares, total := h.service.CategoryBreakdown(c.UserContext())
	return c.JSON(fiber.Map{"data": fiber.Map{"total": total, "categories": shares}})
}

// Statuses GET /reports/statuses.
func (h *ReportsHandler) Statuses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.StatusBreakdown(c.UserContext())})
}

// Priorities GET /reports/priorities.
func (h *ReportsHandler) Priorities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.PriorityBreakdown(c.UserContext())})
}

// Agents GET /reports/agents.
func (h *ReportsHandler) Agents(c *fiber.Ctx) error {
	workload, err := h.service.Workload(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workload})
}
