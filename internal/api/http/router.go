package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pacific-support/ticketing/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Admin   *handlers.AdminTicketsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/lookup", cfg.Tickets.LookupTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Admin.UpdateTicket)
	tickets.Delete("/:id", cfg.Admin.DeleteTicket)

	tickets.Post("/:id/responses", cfg.Admin.AddResponse)
	tickets.Post("/:id/responses/:responseId/read", cfg.Tickets.MarkResponseRead)

	tickets.Post("/:id/feedback/rating", cfg.Tickets.SetRating)
	tickets.Post("/:id/feedback/like", cfg.Tickets.Like)
	tickets.Post("/:id/feedback/dislike", cfg.Tickets.Dislike)
	tickets.Post("/:id/feedback/comments", cfg.Tickets.AddComment)
}
