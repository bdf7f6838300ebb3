package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sigetic/helpdesk/internal/api/http/handlers"
	"github.com/sigetic/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminTicketsHandler
	Reference      *handlers.ReferenceHandler
	AuthMiddleware *auth.AuthMiddleware
	// MediaPrefix and MediaRoot serve stored images when the prefix is a local path.
	MediaPrefix string
	MediaRoot   string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	if strings.HasPrefix(cfg.MediaPrefix, "/") && cfg.MediaRoot != "" {
		app.Static(cfg.MediaPrefix, cfg.MediaRoot)
	}

	app.Post("/auth/login", cfg.Auth.Login)

	authn := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}
	app.Get("/auth/me", append(authn, cfg.Auth.Me)...)

	ref := app.Group("/reference", authn...)
	ref.Get("/subcategories", cfg.Reference.Subcategories)
	ref.Get("/departments", cfg.Reference.Departments)

	tickets := app.Group("/tickets", authn...)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListMine)
	tickets.Get("/assigned", auth.RequireTechnician(), cfg.Tickets.ListAssigned)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/images", cfg.Tickets.ImageURLs)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)

	admin := app.Group("/admin", append(authn, auth.RequireDispatcher())...)
	admin.Get("/tickets", cfg.Admin.List)
	admin.Get("/tickets/flagged", cfg.Admin.Flagged)
	admin.Put("/tickets/:id/technician", cfg.Admin.Assign)
	admin.Get("/tickets/:id/history", cfg.Admin.History)
	admin.Get("/technicians", cfg.Admin.Technicians)
}
