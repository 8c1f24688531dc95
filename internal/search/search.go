// Package search resolves free-text ticket queries. The primary path is the
// store's ranked full-text search, treated as an external ranking oracle; any
// primary failure degrades to a deterministic substring match over category
// and subcategory only.
package search

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/observability"
	"github.com/spec-kit/ticket-dashboard/internal/query"
)

// Searcher resolves a free-text query to a ranked result set.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) (*Result, error)
}

// Result carries either ranked rows or the degraded fallback variant.
// Degraded results matched category/subcategory substrings only; Reason
// records why the ranked path was unavailable.
type Result struct {
	Tickets  []domain.Ticket
	Degraded bool
	Reason   string
}

type queryFunc func(ctx context.Context, q string, limit int) ([]domain.Ticket, error)

// Adapter implements Searcher against the fact table.
type Adapter struct {
	primary  queryFunc
	fallback queryFunc
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAdapter wires the ranked and fallback paths to the pool.
func NewAdapter(pool *pgxpool.Pool, logger *zap.Logger, metrics *observability.Metrics) *Adapter {
	return &Adapter{
		primary:  primaryQuery(pool),
		fallback: fallbackQuery(pool),
		logger:   logger,
		metrics:  metrics,
	}
}

// Search runs the ranked query and falls back on any primary error. Zero
// rows is a successful empty result on either path, never an error. A
// fallback failure is returned as-is; there is no third path.
func (a *Adapter) Search(ctx context.Context, q string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = query.DefaultSearchLimit
	}

	tickets, err := a.primary(ctx, q, limit)
	if err == nil {
		return &Result{Tickets: tickets}, nil
	}

	a.logger.Warn("ranked search unavailable, falling back to substring match", zap.Error(err))
	a.metrics.RecordSearchFallback()

	tickets, fbErr := a.fallback(ctx, q, limit)
	if fbErr != nil {
		return nil, fbErr
	}
	return &Result{Tickets: tickets, Degraded: true, Reason: err.Error()}, nil
}

func primaryQuery(pool *pgxpool.Pool) queryFunc {
	return func(ctx context.Context, q string, limit int) ([]domain.Ticket, error) {
		sql, args := query.SemanticSearch(q, limit)
		rows, err := pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var result []domain.Ticket
		for rows.Next() {
			var t domain.Ticket
			if err := rows.Scan(
				&t.TicketID,
				&t.CustomerID,
				&t.Category,
				&t.Subcategory,
				&t.Priority,
				&t.CreatedDate,
				&t.Description,
			); err != nil {
				return nil, err
			}
			result = append(result, t)
		}
		return result, rows.Err()
	}
}

func fallbackQuery(pool *pgxpool.Pool) queryFunc {
	return func(ctx context.Context, q string, limit int) ([]domain.Ticket, error) {
		sql, args := query.FallbackSearch(q, limit)
		rows, err := pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanFallbackRows(rows)
	}
}

func scanFallbackRows(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(
			&t.TicketID,
			&t.CustomerID,
			&t.Category,
			&t.Subcategory,
			&t.Priority,
			&t.CreatedDate,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
