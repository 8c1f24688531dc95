// Package query builds the SQL issued against the support-ticket fact table.
// Builders are pure: they map filter state to (sql, args) pairs with numbered
// placeholders, so no user-supplied value is ever interpolated into SQL text.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
)

// TicketTable is the fully qualified fact table identifier. It is fixed at
// build time; the external schema contract does not allow runtime overrides.
const TicketTable = "fact_support_tickets"

const (
	// DefaultListLimit caps the filtered ticket listing.
	DefaultListLimit = 100
	// DefaultSearchLimit caps search results.
	DefaultSearchLimit = 50
)

// whereClause renders the shared filter predicates. The date interval is
// closed on both ends; FilterAll adds no predicate for its dimension.
func whereClause(f domain.Filter) (string, []any) {
	args := []any{f.Start, f.End}
	clauses := []string{"created_date BETWEEN $1 AND $2"}

	if f.HasCategory() {
		args = append(args, f.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.HasPriority() {
		args = append(args, f.Priority)
		clauses = append(clauses, fmt.Sprintf("priority = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// FilteredTickets lists tickets in the interval, newest first, capped at
// limit (DefaultListLimit when limit <= 0).
func FilteredTickets(f domain.Filter, limit int) (string, []any) {
	where, args := whereClause(f)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)
	sql := fmt.Sprintf(`SELECT ticket_id, customer_id, account_id, category, subcategory, priority, created_date, geo_id
FROM %s
WHERE %s
ORDER BY created_date DESC
LIMIT $%d`, TicketTable, where, len(args))
	return sql, args
}

// TicketsOverTime counts tickets per creation date, ascending by date.
func TicketsOverTime(f domain.Filter) (string, []any) {
	where, args := whereClause(f)
	sql := fmt.Sprintf(`SELECT created_date, COUNT(*) AS ticket_count
FROM %s
WHERE %s
GROUP BY created_date
ORDER BY created_date`, TicketTable, where)
	return sql, args
}

// TicketsByCategory counts tickets per category, descending by count.
// Equal counts keep the store's natural row order.
func TicketsByCategory(f domain.Filter) (string, []any) {
	where, args := whereClause(f)
	sql := fmt.Sprintf(`SELECT category, COUNT(*) AS ticket_count
FROM %s
WHERE %s
GROUP BY category
ORDER BY ticket_count DESC`, TicketTable, where)
	return sql, args
}

// TicketsByPriority counts tickets per priority, descending by count.
func TicketsByPriority(f domain.Filter) (string, []any) {
	where, args := whereClause(f)
	sql := fmt.Sprintf(`SELECT priority, COUNT(*) AS ticket_count
FROM %s
WHERE %s
GROUP BY priority
ORDER BY ticket_count DESC`, TicketTable, where)
	return sql, args
}

// TotalTickets counts tickets matching the filter.
func TotalTickets(f domain.Filter) (string, []any) {
	where, args := whereClause(f)
	sql := fmt.Sprintf(`SELECT COUNT(*) AS total FROM %s WHERE %s`, TicketTable, where)
	return sql, args
}

// DistinctCategories lists observed categories, ascending.
func DistinctCategories() (string, []any) {
	return fmt.Sprintf(`SELECT DISTINCT category FROM %s ORDER BY category`, TicketTable), nil
}

// DistinctPriorities lists observed priorities, ascending.
func DistinctPriorities() (string, []any) {
	return fmt.Sprintf(`SELECT DISTINCT priority FROM %s ORDER BY priority`, TicketTable), nil
}

// DateRange returns the min and max creation date across the full table.
func DateRange() (string, []any) {
	return fmt.Sprintf(`SELECT MIN(created_date) AS min_date, MAX(created_date) AS max_date FROM %s`, TicketTable), nil
}

// SemanticSearch ranks tickets against the free-text query using the
// full-text index over description, category and subcategory. Ranking is
// the store's relevance scoring; this layer treats it as opaque.
func SemanticSearch(q string, limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sql := fmt.Sprintf(`SELECT ticket_id, customer_id, category, subcategory, priority, created_date, description
FROM %s
WHERE search_vector @@ websearch_to_tsquery('english', $1)
ORDER BY ts_rank(search_vector, websearch_to_tsquery('english', $1)) DESC
LIMIT $2`, TicketTable)
	return sql, []any{q, limit}
}

// FallbackSearch is the deterministic substring match used when the ranked
// path fails. It matches category and subcategory only, never description.
func FallbackSearch(q string, limit int) (string, []any) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sql := fmt.Sprintf(`SELECT ticket_id, customer_id, category, subcategory, priority, created_date
FROM %s
WHERE category ILIKE $1 OR subcategory ILIKE $1
LIMIT $2`, TicketTable)
	return sql, []any{"%" + q + "%", limit}
}

// CacheKey derives a stable cache key from the exact SQL text and its bound
// arguments. Dates render as their day component so equal filter states hash
// equally regardless of time-of-day noise.
func CacheKey(sql string, args []any) string {
	h := sha256.New()
	h.Write([]byte(sql))
	for _, arg := range args {
		h.Write([]byte{'|'})
		switch v := arg.(type) {
		case time.Time:
			h.Write([]byte(v.Format("2006-01-02")))
		default:
			fmt.Fprintf(h, "%v", v)
		}
	}
	return "ticketdash:q:" + hex.EncodeToString(h.Sum(nil))
}
