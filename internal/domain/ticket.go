package domain

import "time"

// FilterAll is the sentinel value meaning "no filter" for an enumerated
// dimension. Filter option loaders prepend it to the selectable values.
const FilterAll = "All"

// Ticket is a row from the support-ticket fact table. Tickets are created
// and mutated entirely upstream; this service only reads them.
type Ticket struct {
	TicketID    string
	CustomerID  string
	AccountID   string
	Category    string
	Subcategory string
	Priority    string
	CreatedDate time.Time
	GeoID       string
	Description string
}

// Filter is the UI-session-scoped filter state applied to every report.
// Category and Priority hold either an observed value or FilterAll; the
// date interval is closed on both ends.
type Filter struct {
	Category string
	Priority string
	Start    time.Time
	End      time.Time
}

// HasCategory reports whether the category dimension narrows the result set.
func (f Filter) HasCategory() bool {
	return f.Category != "" && f.Category != FilterAll
}

// HasPriority reports whether the priority dimension narrows the result set.
func (f Filter) HasPriority() bool {
	return f.Priority != "" && f.Priority != FilterAll
}

// SpanDays returns the number of whole days between Start and End.
func (f Filter) SpanDays() int {
	return int(f.End.Sub(f.Start).Hours() / 24)
}

// TimeSeriesPoint is one bucket of the tickets-over-time report.
type TimeSeriesPoint struct {
	Date  time.Time
	Count int64
}

// CategoryCount is one row of the by-category distribution report.
type CategoryCount struct {
	Category string
	Count    int64
}

// PriorityCount is one row of the by-priority distribution report.
type PriorityCount struct {
	Priority string
	Count    int64
}

// DateSpan is the observed min/max creation date across the fact table,
// used to seed and bound the date-range control.
type DateSpan struct {
	Min time.Time
	Max time.Time
}
