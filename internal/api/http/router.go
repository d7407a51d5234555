package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/mvura-console/internal/api/http/handlers"
	"github.com/spec-kit/mvura-console/internal/auth"
	"github.com/spec-kit/mvura-console/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Auth              *handlers.AuthHandler
	Tickets           *handlers.TicketsHandler
	Clients           *handlers.ClientsHandler
	Agents            *handlers.AgentsHandler
	Reports           *handlers.ReportsHandler
	SessionMiddleware *auth.SessionMiddleware
	Metrics           *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Everything except health, metrics and
// login requires a live session.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/session", cfg.SessionMiddleware.Handle, cfg.Auth.Session)

	gate := cfg.SessionMiddleware.Handle

	tickets := app.Group("/tickets", gate)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/assignee", cfg.Tickets.Reassign)
	tickets.Post("/:id/assignee/auto", cfg.Tickets.AutoAssign)

	clients := app.Group("/clients", gate)
	clients.Get("/", cfg.Clients.ListClients)
	clients.Post("/", cfg.Clients.CreateClient)
	clients.Get("/:id", cfg.Clients.GetClient)
	clients.Put("/:id", cfg.Clients.UpdateClient)
	clients.Get("/:id/tickets", cfg.Clients.ClientTickets)
	clients.Get("/:id/activity", cfg.Clients.ClientActivity)

	agents := app.Group("/agents", gate)
	agents.Get("/", cfg.Agents.ListAgents)
	agents.Patch("/:name", cfg.Agents.SetAvailability)

	reports := app.Group("/reports", gate)
	reports.Get("/categories", cfg.Reports.Categories)
	reports.Get("/statuses", cfg.Reports.Statuses)
	reports.Get("/priorities", cfg.Reports.Priorities)
	reports.Get("/agents", cfg.Reports.Agents)
}
