// Package repository executes report queries against the fact table, with
// every result memoized through the TTL cache keyed on the exact query text
// and bound arguments.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/cache"
	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/observability"
	"github.com/spec-kit/ticket-dashboard/internal/query"
)

// ErrNoData reports an empty fact table. Callers render it as an explicit
// empty state, not a failure.
var ErrNoData = errors.New("no ticket data available")

// TicketReportRepository is the read surface of the dashboard: filter
// option loaders plus one operation per report panel.
type TicketReportRepository interface {
	Categories(ctx context.Context) ([]string, error)
	Priorities(ctx context.Context) ([]string, error)
	DateRange(ctx context.Context) (*domain.DateSpan, error)
	FilteredTickets(ctx context.Context, f domain.Filter, limit int) ([]domain.Ticket, error)
	TicketsOverTime(ctx context.Context, f domain.Filter) ([]domain.TimeSeriesPoint, error)
	TicketsByCategory(ctx context.Context, f domain.Filter) ([]domain.CategoryCount, error)
	TicketsByPriority(ctx context.Context, f domain.Filter) ([]domain.PriorityCount, error)
	TotalTickets(ctx context.Context, f domain.Filter) (int64, error)
}

type ticketReportRepository struct {
	pool    *pgxpool.Pool
	cache   cache.Store
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewTicketReportRepository instantiates the repository. The cache store may
// be nil, which disables memoization.
func NewTicketReportRepository(pool *pgxpool.Pool, store cache.Store, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) TicketReportRepository {
	return &ticketReportRepository{
		pool:    pool,
		cache:   store,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// fetchCached runs sql through the TTL cache: a hit decodes the stored rows,
// a miss executes against the pool, scans, and stores the encoded result.
// Cache failures degrade to a miss; they never fail the report.
func fetchCached[T any](ctx context.Context, r *ticketReportRepository, sql string, args []any, scan func(pgx.Rows) ([]T, error)) ([]T, error) {
	key := query.CacheKey(sql, args)

	if r.cache != nil {
		raw, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("query cache get failed", zap.Error(err))
		} else if ok {
			var cached []T
			if err := json.Unmarshal(raw, &cached); err == nil {
				r.metrics.RecordCacheHit()
				return cached, nil
			}
			r.logger.Warn("query cache entry undecodable; re-executing", zap.Error(err))
		}
	}
	r.metrics.RecordCacheMiss()

	if r.pool == nil {
		return nil, errors.New("postgres pool not configured")
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		r.metrics.RecordQueryError()
		return nil, err
	}
	defer rows.Close()

	result, err := scan(rows)
	if err != nil {
		r.metrics.RecordQueryError()
		return nil, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
				r.logger.Warn("query cache set failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

// Categories returns the observed categories, ascending, prefixed with the
// "All" sentinel.
func (r *ticketReportRepository) Categories(ctx context.Context) ([]string, error) {
	sql, args := query.DistinctCategories()
	values, err := fetchCached(ctx, r, sql, args, scanStrings)
	if err != nil {
		return nil, err
	}
	return append([]string{domain.FilterAll}, values...), nil
}

// Priorities returns the observed priorities, ascending, prefixed with the
// "All" sentinel.
func (r *ticketReportRepository) Priorities(ctx context.Context) ([]string, error) {
	sql, args := query.DistinctPriorities()
	values, err := fetchCached(ctx, r, sql, args, scanStrings)
	if err != nil {
		return nil, err
	}
	return append([]string{domain.FilterAll}, values...), nil
}

// DateRange returns the min and max creation date across the full table.
// An empty fact table yields ErrNoData, not a scan failure.
func (r *ticketReportRepository) DateRange(ctx context.Context) (*domain.DateSpan, error) {
	sql, args := query.DateRange()
	spans, err := fetchCached(ctx, r, sql, args, func(rows pgx.Rows) ([]domain.DateSpan, error) {
		var result []domain.DateSpan
		for rows.Next() {
			var minDate, maxDate *time.Time
			if err := rows.Scan(&minDate, &maxDate); err != nil {
				return nil, err
			}
			if minDate == nil || maxDate == nil {
				continue
			}
			result = append(result, domain.DateSpan{Min: *minDate, Max: *maxDate})
		}
		return result, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, ErrNoData
	}
	return &spans[0], nil
}

func (r *ticketReportRepository) FilteredTickets(ctx context.Context, f domain.Filter, limit int) ([]domain.Ticket, error) {
	sql, args := query.FilteredTickets(f, limit)
	return fetchCached(ctx, r, sql, args, func(rows pgx.Rows) ([]domain.Ticket, error) {
		var result []domain.Ticket
		for rows.Next() {
			var t domain.Ticket
			if err := rows.Scan(
				&t.TicketID,
				&t.CustomerID,
				&t.AccountID,
				&t.Category,
				&t.Subcategory,
				&t.Priority,
				&t.CreatedDate,
				&t.GeoID,
			); err != nil {
				return nil, err
			}
			result = append(result, t)
		}
		return result, rows.Err()
	})
}

func (r *ticketReportRepository) TicketsOverTime(ctx context.Context, f domain.Filter) ([]domain.TimeSeriesPoint, error) {
	sql, args := query.TicketsOverTime(f)
	return fetchCached(ctx, r, sql, args, func(rows pgx.Rows) ([]domain.TimeSeriesPoint, error) {
		var result []domain.TimeSeriesPoint
		for rows.Next() {
			var point domain.TimeSeriesPoint
			if err := rows.Scan(&point.Date, &point.Count); err != nil {
				return nil, err
			}
			result = append(result, point)
		}
		return result, rows.Err()
	})
}

func (r *ticketReportRepository) TicketsByCategory(ctx context.Context, f domain.Filter) ([]domain.CategoryCount, error) {
	sql, args := query.TicketsByCategory(f)
	return fetchCached(ctx, r, sql, args, func(rows pgx.Rows) ([]domain.CategoryCount, error) {
		var result []domain.CategoryCount
		for rows.Next() {
			var row domain.CategoryCount
			if err := rows.Scan(&row.Category, &row.Count); err != nil {
				return nil, err
			}
			result = append(result, row)
		}
		return result, rows.Err()
	})
}

func (r *ticketReportRepository) TicketsByPriority(ctx context.Context, f domain.Filter) ([]domain.PriorityCount, error) {
	sql, args := query.TicketsByPriority(f)
	return fetchCached(ctx, r, sql, args, func(rows pgx.Rows) ([]domain.PriorityCount, error) {
		var result []domain.PriorityCount
		for rows.Next() {
			var row domain.PriorityCount
			if err := rows.Scan(&row.Priority, &row.Count); err != nil {
				return nil, err
			}
			result = append(result, row)
		}
		return result, rows.Err()
	})
}

func (r *ticketReportRepository) TotalTickets(ctx context.Context, f domain.Filter) (int64, error) {
	sql, args := query.TotalTickets(f)
	totals, err := fetchCached(ctx, r, sql, args, func(rows pgx.Rows) ([]int64, error) {
		var result []int64
		for rows.Next() {
			var total int64
			if err := rows.Scan(&total); err != nil {
				return nil, err
			}
			result = append(result, total)
		}
		return result, rows.Err()
	})
	if err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return 0, nil
	}
	return totals[0], nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var result []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, rows.Err()
}
