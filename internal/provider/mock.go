package provider

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"StockPulse/internal/model"
)

// Mock returns deterministic synthetic data for offline runs and tests.
// Each ticker gets a reproducible random walk seeded from its name.
// The zero value is usable; the override fields, when set, are returned
// verbatim instead of generated data.
type Mock struct {
	Bars           []model.Bar
	SummaryData    map[string]any
	FinancialsData map[string]any
	BalanceData    map[string]any
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) History(_ context.Context, ticker, _ string) ([]model.Bar, error) {
	if m.Bars != nil {
		return m.Bars, nil
	}
	return syntheticBars(ticker, 150), nil
}

func (m *Mock) Summary(_ context.Context, _ string) (map[string]any, error) {
	if m.SummaryData != nil {
		return m.SummaryData, nil
	}
	return map[string]any{
		"quoteType": "EQUITY",
		"marketCap": map[string]any{"raw": 2e12, "fmt": "2T"},
		"forwardPE": map[string]any{"raw": 22.5},
		"pegRatio":  map[string]any{"raw": 1.8},
	}, nil
}

func (m *Mock) Financials(_ context.Context, _ string) (map[string]any, error) {
	if m.FinancialsData != nil {
		return m.FinancialsData, nil
	}
	return map[string]any{
		"annualTotalRevenue":           map[string]any{"raw": 3.8e11, "fmt": "380B"},
		"annualEBIT":                   map[string]any{"raw": 1.1e11},
		"annualReconciledDepreciation": map[string]any{"raw": 1.2e10},
		"annualDilutedEPS":             6.1,
	}, nil
}

func (m *Mock) BalanceSheet(_ context.Context, _ string) (map[string]any, error) {
	if m.BalanceData != nil {
		return m.BalanceData, nil
	}
	return map[string]any{
		"annualCashAndCashEquivalents":               map[string]any{"raw": 3.0e10},
		"annualLongTermDebt":                         map[string]any{"raw": 9.5e10},
		"annualCurrentDebtAndCapitalLeaseObligation": map[string]any{"raw": 1.5e10},
		"annualTotalEquityGrossMinorityInterest":     map[string]any{"raw": 6.2e10},
	}, nil
}

// syntheticBars builds a daily random walk ending today. The walk is
// seeded from the ticker so repeated runs produce identical series.
func syntheticBars(ticker string, count int) []model.Bar {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	base := 100 + float64(h.Sum64()%50)
	price := base
	bars := make([]model.Bar, count)
	start := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		price *= 1 + rng.NormFloat64()*0.02 + 0.001
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, -(count - i)),
			Open:   price * 0.999,
			High:   price * 1.005,
			Low:    price * 0.995,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return bars
}
