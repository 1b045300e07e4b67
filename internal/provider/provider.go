// Package provider defines the upstream market-data boundary and its
// implementations.
package provider

import (
	"context"

	"StockPulse/internal/model"
)

// Provider supplies raw market data for a ticker. Implementations return
// values in the provider's own shape; mapping onto canonical fields is
// the fetch layer's job.
type Provider interface {
	// History returns daily bars covering the given range bucket
	// ("1mo", "1y", "5y", ...).
	History(ctx context.Context, ticker, rng string) ([]model.Bar, error)
	// Summary returns quote-level fields: market cap, quote type,
	// forward P/E, PEG ratio.
	Summary(ctx context.Context, ticker string) (map[string]any, error)
	// Financials returns the most recent annual income-statement fields.
	Financials(ctx context.Context, ticker string) (map[string]any, error)
	// BalanceSheet returns the most recent annual balance-sheet fields.
	BalanceSheet(ctx context.Context, ticker string) (map[string]any, error)
	Name() string
}
