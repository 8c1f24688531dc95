package dto

// TicketResponse is the wire shape of a ticket row. Fields not selected by
// the originating query are omitted.
type TicketResponse struct {
	TicketID    string `json:"ticket_id"`
	CustomerID  string `json:"customer_id"`
	AccountID   string `json:"account_id,omitempty"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Priority    string `json:"priority"`
	CreatedDate string `json:"created_date"`
	GeoID       string `json:"geo_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// FilterOptionsResponse seeds the sidebar controls.
type FilterOptionsResponse struct {
	Categories []string `json:"categories"`
	Priorities []string `json:"priorities"`
	MinDate    string   `json:"min_date"`
	MaxDate    string   `json:"max_date"`
	Message    string   `json:"message,omitempty"`
}

// SummaryResponse is the metrics strip.
type SummaryResponse struct {
	TotalTickets  int64   `json:"total_tickets"`
	CategoryCount int     `json:"category_count"`
	SpanDays      int     `json:"span_days"`
	AvgPerDay     float64 `json:"avg_per_day"`
}

// CountRow is one labeled bucket of a distribution chart.
type CountRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// TimeSeriesPoint is one bucket of the tickets-over-time chart.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// TimeSeriesResponse feeds the line chart.
type TimeSeriesResponse struct {
	Data    []TimeSeriesPoint `json:"data"`
	Message string            `json:"message,omitempty"`
}

// CountsResponse feeds the bar and pie charts.
type CountsResponse struct {
	Data    []CountRow `json:"data"`
	Message string     `json:"message,omitempty"`
}

// TicketListResponse is the capped filtered listing.
type TicketListResponse struct {
	Data    []TicketResponse `json:"data"`
	Message string           `json:"message,omitempty"`
}

// SearchResponse carries search results plus the degradation notice when
// the ranked path was unavailable.
type SearchResponse struct {
	Data     []TicketResponse `json:"data"`
	Degraded bool             `json:"degraded"`
	Warning  string           `json:"warning,omitempty"`
	Message  string           `json:"message,omitempty"`
}
