package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/ticket-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/ticket-dashboard/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Page      *handlers.PageHandler
	Dashboard *handlers.DashboardHandler
	Search    *handlers.SearchHandler
	Metrics   *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Each report panel gets its own endpoint
// so a failing query isolates to that panel.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	app.Get("/", cfg.Page.Dashboard)

	api := app.Group("/api")
	api.Get("/filters", cfg.Dashboard.FilterOptions)
	api.Get("/tickets", cfg.Dashboard.Tickets)
	api.Get("/search", cfg.Search.Search)

	reports := api.Group("/reports")
	reports.Get("/summary", cfg.Dashboard.Summary)
	reports.Get("/timeseries", cfg.Dashboard.TicketsOverTime)
	reports.Get("/by-category", cfg.Dashboard.TicketsByCategory)
	reports.Get("/by-priority", cfg.Dashboard.TicketsByPriority)
}
