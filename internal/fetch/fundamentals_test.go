package fetch

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
	"StockPulse/internal/provider"
)

func notFound() error { return &provider.StatusError{Code: 404, Body: "not found"} }

func equitySummary() map[string]any {
	return map[string]any{
		"quoteType": "EQUITY",
		"marketCap": map[string]any{"raw": 2.85e12, "fmt": "2.85T"},
		"forwardPE": map[string]any{"raw": 27.1},
		"pegRatio":  map[string]any{"raw": 2.2},
	}
}

func TestFundamentalsFetcher_PricePrecondition(t *testing.T) {
	p := &scriptedProvider{}
	f := NewFundamentalsFetcher(p, fastPolicy(3))

	for _, price := range []float64{0, -5, math.NaN()} {
		_, err := f.Fetch(context.Background(), "AAPL", price)
		require.Error(t, err)
	}
	assert.Zero(t, p.summaryCalls, "no network call without a usable price")
	assert.Zero(t, p.financialsCalls)
	assert.Zero(t, p.balanceCalls)
}

func TestFundamentalsFetcher_NonEquityShortCircuits(t *testing.T) {
	p := &scriptedProvider{
		summary: map[string]any{
			"quoteType": "ETF",
			"marketCap": map[string]any{"raw": 5.0e11},
		},
	}
	f := NewFundamentalsFetcher(p, fastPolicy(3))

	snap, err := f.Fetch(context.Background(), "SPY", 500)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "ETF", snap.QuoteType)
	assert.False(t, snap.IsEquity())
	assert.Equal(t, 5.0e11, snap.Get(model.FieldMarketCap))
	assert.Nil(t, snap.Get(model.FieldRevenue))
	assert.Zero(t, p.financialsCalls, "no statement fetches for non-equities")
	assert.Zero(t, p.balanceCalls)
}

func TestFundamentalsFetcher_PartialFailureDegrades(t *testing.T) {
	p := &scriptedProvider{
		summary:        equitySummary(),
		financialsErrs: []error{notFound()},
		balance: map[string]any{
			"annualCashAndCashEquivalents": map[string]any{"raw": 3.0e10},
			"annualLongTermDebt":           map[string]any{"raw": 9.5e10},
		},
	}
	f := NewFundamentalsFetcher(p, fastPolicy(3))

	snap, err := f.Fetch(context.Background(), "AAPL", 210)
	require.NoError(t, err, "one failing sub-request must not fail the fetch")

	assert.Equal(t, 2.85e12, snap.Get(model.FieldMarketCap))
	assert.Equal(t, 3.0e10, snap.Get(model.FieldCash))
	assert.Nil(t, snap.Get(model.FieldRevenue), "failed sub-request leaves its fields absent")
	assert.Nil(t, snap.Get(model.FieldEBIT))
}

func TestFundamentalsFetcher_AllSubRequestsFail(t *testing.T) {
	p := &scriptedProvider{
		summaryErrs:    []error{notFound()},
		financialsErrs: []error{notFound()},
		balanceErrs:    []error{notFound()},
	}
	f := NewFundamentalsFetcher(p, fastPolicy(3))

	_, err := f.Fetch(context.Background(), "AAPL", 210)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all sub-requests failed")
}

func TestFundamentalsFetcher_RetriesPerSubRequest(t *testing.T) {
	p := &scriptedProvider{
		summary:        equitySummary(),
		financialsErrs: []error{rateLimited()},
		financials: map[string]any{
			"annualTotalRevenue": map[string]any{"raw": 3.8e11},
		},
		balance: map[string]any{},
	}
	f := NewFundamentalsFetcher(p, fastPolicy(3))

	snap, err := f.Fetch(context.Background(), "AAPL", 210)
	require.NoError(t, err)

	assert.Equal(t, 1, p.summaryCalls)
	assert.Equal(t, 2, p.financialsCalls, "rate-limited attempt plus the success")
	assert.Equal(t, 1, p.balanceCalls)
	assert.Equal(t, 3.8e11, snap.Get(model.FieldRevenue))
}

func TestFundamentalsFetcher_NormalizesProviderShapes(t *testing.T) {
	p := &scriptedProvider{
		summary: equitySummary(),
		financials: map[string]any{
			"annualTotalRevenue": map[string]any{"raw": 3.8328e11, "fmt": "383.28B"},
			"annualDilutedEPS":   6.1,
			"irrelevantKey":      1.0,
		},
		balance: map[string]any{
			"annualTotalEquityGrossMinorityInterest": "62.15B",
		},
	}
	f := NewFundamentalsFetcher(p, fastPolicy(3))

	snap, err := f.Fetch(context.Background(), "AAPL", 210)
	require.NoError(t, err)

	assert.Equal(t, 3.8328e11, snap.Get(model.FieldRevenue), "raw containers unwrap")
	assert.Equal(t, 6.1, snap.Get(model.FieldDilutedEPS), "scalars pass through")
	assert.Equal(t, "62.15B", snap.Get(model.FieldBookValue), "suffixed strings stay raw for the coercer")
	assert.Equal(t, 27.1, snap.Get(model.FieldForwardPE))
	assert.Nil(t, snap.Get("irrelevantKey"), "unmapped provider keys are dropped")
}
