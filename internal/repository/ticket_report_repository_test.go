package repository

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/cache"
	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/query"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// A warm cache entry must satisfy a report without touching the pool at all;
// a nil pool makes any store access fail the test loudly.
func TestTicketsOverTime_ServedFromCache(t *testing.T) {
	ctx := context.Background()
	clock := day("2024-06-01")
	store := cache.NewMemoryWithClock(func() time.Time { return clock })

	filter := domain.Filter{
		Category: domain.FilterAll,
		Priority: domain.FilterAll,
		Start:    day("2024-01-01"),
		End:      day("2024-01-03"),
	}
	want := []domain.TimeSeriesPoint{
		{Date: day("2024-01-01"), Count: 2},
		{Date: day("2024-01-02"), Count: 3},
	}

	sql, args := query.TicketsOverTime(filter)
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := store.Set(ctx, query.CacheKey(sql, args), raw, 5*time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	repo := NewTicketReportRepository(nil, store, 5*time.Minute, zap.NewNop(), nil)

	got, err := repo.TicketsOverTime(ctx, filter)
	if err != nil {
		t.Fatalf("TicketsOverTime() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("points = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) || got[i].Count != want[i].Count {
			t.Errorf("point[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTicketsOverTime_ExpiredEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	clock := day("2024-06-01")
	store := cache.NewMemoryWithClock(func() time.Time { return clock })

	filter := domain.Filter{Start: day("2024-01-01"), End: day("2024-01-03")}
	sql, args := query.TicketsOverTime(filter)
	raw, _ := json.Marshal([]domain.TimeSeriesPoint{{Date: day("2024-01-01"), Count: 1}})
	store.Set(ctx, query.CacheKey(sql, args), raw, 5*time.Minute)

	clock = clock.Add(6 * time.Minute)

	repo := NewTicketReportRepository(nil, store, 5*time.Minute, zap.NewNop(), nil)
	if _, err := repo.TicketsOverTime(ctx, filter); err == nil {
		t.Error("expired entry must force execution, which has no pool here")
	}
}

// Integration tests below run against a real database, in the shape the
// migration creates. They are skipped unless TEST_DATABASE_URL is set.

const testSchema = `
CREATE TABLE IF NOT EXISTS fact_support_tickets (
    ticket_id     TEXT PRIMARY KEY,
    customer_id   TEXT NOT NULL,
    account_id    TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL,
    subcategory   TEXT NOT NULL DEFAULT '',
    priority      TEXT NOT NULL,
    created_date  DATE NOT NULL,
    geo_id        TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    search_vector tsvector GENERATED ALWAYS AS (
        to_tsvector('english',
            coalesce(description, '') || ' ' ||
            coalesce(category, '') || ' ' ||
            coalesce(subcategory, ''))
    ) STORED
)`

type seedTicket struct {
	id          string
	category    string
	subcategory string
	priority    string
	created     string
	description string
}

var seedTickets = []seedTicket{
	{"T-1", "Billing", "Refunds", "High", "2024-01-01", "charged twice for the same invoice"},
	{"T-2", "Billing", "Invoices", "Low", "2024-01-02", "invoice missing line items"},
	{"T-3", "Bug", "Crash", "High", "2024-01-02", "app crashes on startup"},
	{"T-4", "Bug", "UI", "Low", "2024-01-03", "button misaligned on settings page"},
	{"T-5", "Billing", "Refunds", "High", "2024-01-03", "refund not received after two weeks"},
	// "refund" appears only in the description here; the fallback search
	// must never surface this row.
	{"T-6", "Bug", "Crash", "Low", "2024-01-03", "crash while requesting a refund"},
}

func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if _, err := pool.Exec(ctx, testSchema); err != nil {
		pool.Close()
		t.Fatalf("failed to create schema: %v", err)
	}
	pool.Exec(ctx, "DELETE FROM fact_support_tickets")

	for _, s := range seedTickets {
		_, err := pool.Exec(ctx, `
			INSERT INTO fact_support_tickets
				(ticket_id, customer_id, category, subcategory, priority, created_date, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.id, "C-"+s.id, s.category, s.subcategory, s.priority, day(s.created), s.description)
		if err != nil {
			pool.Close()
			t.Fatalf("failed to seed ticket %s: %v", s.id, err)
		}
	}

	cleanup := func() {
		pool.Exec(ctx, "DELETE FROM fact_support_tickets")
		pool.Close()
	}
	return pool, cleanup
}

func newIntegrationRepo(pool *pgxpool.Pool) TicketReportRepository {
	return NewTicketReportRepository(pool, cache.NewMemory(), 5*time.Minute, zap.NewNop(), nil)
}

func fullSpan() domain.Filter {
	return domain.Filter{
		Category: domain.FilterAll,
		Priority: domain.FilterAll,
		Start:    day("2024-01-01"),
		End:      day("2024-01-03"),
	}
}

func TestIntegration_FilterOptionLoaders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newIntegrationRepo(pool)
	ctx := context.Background()

	categories, err := repo.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	wantCategories := []string{"All", "Billing", "Bug"}
	if len(categories) != len(wantCategories) {
		t.Fatalf("categories = %v, want %v", categories, wantCategories)
	}
	for i := range wantCategories {
		if categories[i] != wantCategories[i] {
			t.Errorf("categories[%d] = %s, want %s", i, categories[i], wantCategories[i])
		}
	}

	span, err := repo.DateRange(ctx)
	if err != nil {
		t.Fatalf("DateRange() error = %v", err)
	}
	if !span.Min.Equal(day("2024-01-01")) || !span.Max.Equal(day("2024-01-03")) {
		t.Errorf("span = %v..%v, want 2024-01-01..2024-01-03", span.Min, span.Max)
	}
}

func TestIntegration_BillingSubset(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newIntegrationRepo(pool)
	ctx := context.Background()

	f := fullSpan()
	f.Category = "Billing"

	tickets, err := repo.FilteredTickets(ctx, f, 0)
	if err != nil {
		t.Fatalf("FilteredTickets() error = %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("tickets = %d, want the 3 Billing rows", len(tickets))
	}
	for _, ticket := range tickets {
		if ticket.Category != "Billing" {
			t.Errorf("ticket %s category = %s, want Billing", ticket.TicketID, ticket.Category)
		}
	}
	for i := 1; i < len(tickets); i++ {
		if tickets[i].CreatedDate.After(tickets[i-1].CreatedDate) {
			t.Error("listing must be sorted by creation date descending")
		}
	}

	total, err := repo.TotalTickets(ctx, f)
	if err != nil {
		t.Fatalf("TotalTickets() error = %v", err)
	}
	if total != int64(len(tickets)) {
		t.Errorf("total = %d, want %d", total, len(tickets))
	}

	points, err := repo.TicketsOverTime(ctx, f)
	if err != nil {
		t.Fatalf("TicketsOverTime() error = %v", err)
	}
	var sum int64
	for _, point := range points {
		sum += point.Count
	}
	if sum != total {
		t.Errorf("time series sum = %d, want total %d", sum, total)
	}
}

func TestIntegration_DistributionsSumToTotal(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newIntegrationRepo(pool)
	ctx := context.Background()

	f := fullSpan()
	total, err := repo.TotalTickets(ctx, f)
	if err != nil {
		t.Fatalf("TotalTickets() error = %v", err)
	}

	byCategory, err := repo.TicketsByCategory(ctx, f)
	if err != nil {
		t.Fatalf("TicketsByCategory() error = %v", err)
	}
	var catSum int64
	for _, row := range byCategory {
		catSum += row.Count
	}
	if catSum != total {
		t.Errorf("by-category sum = %d, want %d", catSum, total)
	}
	for i := 1; i < len(byCategory); i++ {
		if byCategory[i].Count > byCategory[i-1].Count {
			t.Error("by-category must be descending by count")
		}
	}

	byPriority, err := repo.TicketsByPriority(ctx, f)
	if err != nil {
		t.Fatalf("TicketsByPriority() error = %v", err)
	}
	var priSum int64
	for _, row := range byPriority {
		priSum += row.Count
	}
	if priSum != total {
		t.Errorf("by-priority sum = %d, want %d", priSum, total)
	}
}

// "All" must be equivalent to omitting the predicate: the unfiltered total
// equals the sum of totals over every observed category value.
func TestIntegration_AllEquivalentToUnion(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newIntegrationRepo(pool)
	ctx := context.Background()

	allTotal, err := repo.TotalTickets(ctx, fullSpan())
	if err != nil {
		t.Fatalf("TotalTickets() error = %v", err)
	}

	categories, err := repo.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}

	var unionTotal int64
	for _, category := range categories[1:] { // skip the All sentinel
		f := fullSpan()
		f.Category = category
		total, err := repo.TotalTickets(ctx, f)
		if err != nil {
			t.Fatalf("TotalTickets(%s) error = %v", category, err)
		}
		unionTotal += total
	}

	if unionTotal != allTotal {
		t.Errorf("union of category totals = %d, want %d", unionTotal, allTotal)
	}
}

func TestIntegration_EmptyRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := newIntegrationRepo(pool)
	ctx := context.Background()

	f := domain.Filter{
		Category: domain.FilterAll,
		Priority: domain.FilterAll,
		Start:    day("2023-06-01"),
		End:      day("2023-06-30"),
	}

	tickets, err := repo.FilteredTickets(ctx, f, 0)
	if err != nil {
		t.Fatalf("FilteredTickets() error = %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("tickets = %d, want 0 outside the seeded span", len(tickets))
	}

	total, err := repo.TotalTickets(ctx, f)
	if err != nil {
		t.Fatalf("TotalTickets() error = %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

// The fallback search surface is category/subcategory only: a term that
// appears solely in description text must not match.
func TestIntegration_FallbackSearchSurface(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sql, args := query.FallbackSearch("refund", 50)
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		t.Fatalf("fallback query error = %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.TicketID,
			&ticket.CustomerID,
			&ticket.Category,
			&ticket.Subcategory,
			&ticket.Priority,
			&ticket.CreatedDate,
		); err != nil {
			t.Fatalf("scan: %v", err)
		}
		ids = append(ids, ticket.TicketID)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	// T-1 and T-5 carry subcategory "Refunds". T-6 mentions "refund" only in
	// its description, which never contributes to the fallback surface.
	want := map[string]bool{"T-1": true, "T-5": true}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want exactly the Refunds subcategory rows", ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected fallback match %s", id)
		}
	}
}
