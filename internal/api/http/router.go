package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/L235/OversightBot/internal/api/http/handlers"
	"github.com/L235/OversightBot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Reviewers      *handlers.ReviewersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.Submit)
	tickets.Get("/pending", cfg.Tickets.ListPending)
	tickets.Post("/claim", cfg.Tickets.ClaimAll)
	tickets.Get("/:id", cfg.Tickets.View)
	tickets.Post("/:id/claim", cfg.Tickets.Claim)
	tickets.Post("/:id/response", cfg.Tickets.Respond)
	tickets.Put("/:id/external-ref", cfg.Tickets.SetExternalRef)

	reviewers := app.Group("/reviewers", cfg.AuthMiddleware.Handle)
	reviewers.Get("/", cfg.Reviewers.List)
	reviewers.Post("/", cfg.Reviewers.Add)
	reviewers.Delete("/", cfg.Reviewers.Remove)
	reviewers.Put("/ping", cfg.Reviewers.SetPing)
}
