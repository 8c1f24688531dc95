package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-dashboard/internal/api/dto"
	"github.com/spec-kit/ticket-dashboard/internal/search"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util"
)

const degradedWarning = "Semantic search is unavailable; showing substring matches on category and subcategory only."

// SearchHandler serves the free-text ticket search.
type SearchHandler struct {
	searcher    search.Searcher
	searchLimit int
}

// NewSearchHandler constructs handler.
func NewSearchHandler(searcher search.Searcher, searchLimit int) *SearchHandler {
	return &SearchHandler{searcher: searcher, searchLimit: searchLimit}
}

// Search GET /api/search. An empty query is the UI's idle state and never
// reaches this endpoint; here it is a validation error.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return apperrors.NewValidationError("q is required", nil)
	}
	limit := parsePositiveInt(c.Query("limit"), h.searchLimit)

	result, err := h.searcher.Search(c.UserContext(), q, limit)
	if err != nil {
		return err
	}

	resp := dto.SearchResponse{
		Data:     make([]dto.TicketResponse, 0, len(result.Tickets)),
		Degraded: result.Degraded,
	}
	for i := range result.Tickets {
		resp.Data = append(resp.Data, ticketResponse(&result.Tickets[i]))
	}
	if result.Degraded {
		resp.Warning = degradedWarning
	}
	if len(resp.Data) == 0 {
		resp.Message = "No tickets found matching your search."
	}
	return c.JSON(resp)
}
