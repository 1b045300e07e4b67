package store

import (
	"context"
	"time"

	"StockPulse/internal/model"
)

// Gateway persists merged metrics records and answers freshness queries.
type Gateway interface {
	// IsRecentlyUpdated reports whether the ticker has a row younger
	// than maxAge.
	IsRecentlyUpdated(ctx context.Context, ticker string, maxAge time.Duration) (bool, error)

	// Upsert writes the records in one transaction, stamping each with
	// the persistence time. One row per ticker; a refresh replaces the
	// previous row.
	Upsert(ctx context.Context, records []model.MetricsRecord) error

	// Latest returns the stored row for a ticker, or nil when none exists.
	Latest(ctx context.Context, ticker string) (*model.MetricsRecord, error)

	// All returns every stored row ordered by ticker.
	All(ctx context.Context) ([]model.MetricsRecord, error)

	Close() error
}
