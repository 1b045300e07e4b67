package store

import (
	"context"
	"time"

	"StockPulse/internal/model"
)

// NoopGateway discards writes and reports everything as stale. Used for
// dry runs where fetching and computing should happen but nothing may
// touch the database.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (n *NoopGateway) IsRecentlyUpdated(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return false, nil
}

func (n *NoopGateway) Upsert(_ context.Context, _ []model.MetricsRecord) error { return nil }

func (n *NoopGateway) Latest(_ context.Context, _ string) (*model.MetricsRecord, error) {
	return nil, nil
}

func (n *NoopGateway) All(_ context.Context) ([]model.MetricsRecord, error) { return nil, nil }

func (n *NoopGateway) Close() error { return nil }
