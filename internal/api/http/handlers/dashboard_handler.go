package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-dashboard/internal/api/dto"
	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/repository"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util"
)

const dateLayout = "2006-01-02"

const (
	noTicketsMessage = "No tickets found with the selected filters."
	noDataMessage    = "No ticket data available."
)

// DashboardHandler serves the filter options, metrics and report panels.
// Each panel is its own endpoint so one failing query never takes down
// sibling panels.
type DashboardHandler struct {
	repo      repository.TicketReportRepository
	listLimit int
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(repo repository.TicketReportRepository, listLimit int) *DashboardHandler {
	return &DashboardHandler{repo: repo, listLimit: listLimit}
}

// FilterOptions GET /api/filters.
func (h *DashboardHandler) FilterOptions(c *fiber.Ctx) error {
	categories, err := h.repo.Categories(c.UserContext())
	if err != nil {
		return filterLoadError(err)
	}
	priorities, err := h.repo.Priorities(c.UserContext())
	if err != nil {
		return filterLoadError(err)
	}
	span, err := h.repo.DateRange(c.UserContext())
	if errors.Is(err, repository.ErrNoData) {
		return c.JSON(dto.FilterOptionsResponse{
			Categories: categories,
			Priorities: priorities,
			Message:    noDataMessage,
		})
	}
	if err != nil {
		return filterLoadError(err)
	}

	return c.JSON(dto.FilterOptionsResponse{
		Categories: categories,
		Priorities: priorities,
		MinDate:    span.Min.Format(dateLayout),
		MaxDate:    span.Max.Format(dateLayout),
	})
}

// Summary GET /api/reports/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}

	total, err := h.repo.TotalTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	categories, err := h.repo.Categories(c.UserContext())
	if err != nil {
		return err
	}

	spanDays := filter.SpanDays()
	denominator := spanDays
	if denominator < 1 {
		denominator = 1
	}

	return c.JSON(dto.SummaryResponse{
		TotalTickets:  total,
		CategoryCount: len(categories) - 1, // excludes the "All" sentinel
		SpanDays:      spanDays,
		AvgPerDay:     float64(total) / float64(denominator),
	})
}

// TicketsOverTime GET /api/reports/timeseries.
func (h *DashboardHandler) TicketsOverTime(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	points, err := h.repo.TicketsOverTime(c.UserContext(), filter)
	if err != nil {
		return err
	}

	resp := dto.TimeSeriesResponse{Data: make([]dto.TimeSeriesPoint, 0, len(points))}
	for _, point := range points {
		resp.Data = append(resp.Data, dto.TimeSeriesPoint{
			Date:  point.Date.Format(dateLayout),
			Count: point.Count,
		})
	}
	if len(resp.Data) == 0 {
		resp.Message = noTicketsMessage
	}
	return c.JSON(resp)
}

// TicketsByCategory GET /api/reports/by-category.
func (h *DashboardHandler) TicketsByCategory(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	counts, err := h.repo.TicketsByCategory(c.UserContext(), filter)
	if err != nil {
		return err
	}

	resp := dto.CountsResponse{Data: make([]dto.CountRow, 0, len(counts))}
	for _, row := range counts {
		resp.Data = append(resp.Data, dto.CountRow{Label: row.Category, Count: row.Count})
	}
	if len(resp.Data) == 0 {
		resp.Message = noTicketsMessage
	}
	return c.JSON(resp)
}

// TicketsByPriority GET /api/reports/by-priority.
func (h *DashboardHandler) TicketsByPriority(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	counts, err := h.repo.TicketsByPriority(c.UserContext(), filter)
	if err != nil {
		return err
	}

	resp := dto.CountsResponse{Data: make([]dto.CountRow, 0, len(counts))}
	for _, row := range counts {
		resp.Data = append(resp.Data, dto.CountRow{Label: row.Priority, Count: row.Count})
	}
	if len(resp.Data) == 0 {
		resp.Message = noTicketsMessage
	}
	return c.JSON(resp)
}

// Tickets GET /api/tickets.
func (h *DashboardHandler) Tickets(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	limit := parsePositiveInt(c.Query("limit"), h.listLimit)

	tickets, err := h.repo.FilteredTickets(c.UserContext(), filter, limit)
	if err != nil {
		return err
	}

	resp := dto.TicketListResponse{Data: make([]dto.TicketResponse, 0, len(tickets))}
	for i := range tickets {
		resp.Data = append(resp.Data, ticketResponse(&tickets[i]))
	}
	if len(resp.Data) == 0 {
		resp.Message = noTicketsMessage
	}
	return c.JSON(resp)
}

// parseFilter reads the filter state from query params. Absent category or
// priority means "All"; absent dates default to the observed span.
func (h *DashboardHandler) parseFilter(c *fiber.Ctx) (domain.Filter, error) {
	filter := domain.Filter{
		Category: c.Query("category", domain.FilterAll),
		Priority: c.Query("priority", domain.FilterAll),
	}

	startStr := c.Query("start")
	endStr := c.Query("end")
	if startStr == "" || endStr == "" {
		span, err := h.repo.DateRange(c.UserContext())
		if errors.Is(err, repository.ErrNoData) {
			// No observed span to default to; a degenerate range keeps
			// downstream queries valid and empty.
			return filter, nil
		}
		if err != nil {
			return filter, err
		}
		filter.Start, filter.End = span.Min, span.Max
	}

	if startStr != "" {
		start, err := time.Parse(dateLayout, startStr)
		if err != nil {
			return filter, apperrors.NewValidationError("start must be YYYY-MM-DD", nil)
		}
		filter.Start = start
	}
	if endStr != "" {
		end, err := time.Parse(dateLayout, endStr)
		if err != nil {
			return filter, apperrors.NewValidationError("end must be YYYY-MM-DD", nil)
		}
		filter.End = end
	}

	if filter.End.Before(filter.Start) {
		return filter, apperrors.NewValidationError("start must not be after end", nil)
	}
	return filter, nil
}

func filterLoadError(err error) error {
	return apperrors.NewUnavailable(
		"failed to load filter options; verify the dashboard has access to the ticket database",
		err,
	)
}

func parsePositiveInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		TicketID:    t.TicketID,
		CustomerID:  t.CustomerID,
		AccountID:   t.AccountID,
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Priority:    t.Priority,
		CreatedDate: t.CreatedDate.Format(dateLayout),
		GeoID:       t.GeoID,
		Description: t.Description,
	}
}
