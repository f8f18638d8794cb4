package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
	"github.com/spec-kit/triage-service/internal/auth"
	"github.com/spec-kit/triage-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/users", cfg.Users.Register)

	authed := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authed.Get("/users", auth.RequireRole(domain.UserRoleAdmin), cfg.Users.ListUsers)
	authed.Patch("/users/:id", auth.RequireRole(domain.UserRoleAdmin), cfg.Users.UpdateUser)

	authed.Post("/tickets", cfg.Tickets.CreateTicket)
	authed.Get("/tickets", cfg.Tickets.ListTickets)
	authed.Get("/tickets/:id", cfg.Tickets.GetTicket)
	authed.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	authed.Patch("/tickets/:id/assignee", auth.RequireRole(domain.UserRoleAdmin), cfg.Tickets.ReassignTicket)
}
