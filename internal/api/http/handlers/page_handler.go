package handlers

import "github.com/gofiber/fiber/v2"

// PageHandler renders the server-side dashboard shell; panels load their
// data from the JSON API.
type PageHandler struct {
	serviceName string
	version     string
}

// NewPageHandler constructs handler.
func NewPageHandler(serviceName, version string) *PageHandler {
	return &PageHandler{serviceName: serviceName, version: version}
}

// Dashboard GET /.
func (h *PageHandler) Dashboard(c *fiber.Ctx) error {
	return c.Render("dashboard", fiber.Map{
		"Title":   "Support Ticket Dashboard",
		"Service": h.serviceName,
		"Version": h.version,
	})
}
