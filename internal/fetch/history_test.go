package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
	"StockPulse/internal/provider"
)

// scriptedProvider pops one scripted error per call; an exhausted (or
// nil-headed) script means success with the canned payload.
type scriptedProvider struct {
	mu sync.Mutex

	historyCalls, summaryCalls, financialsCalls, balanceCalls int

	historyErrs, summaryErrs, financialsErrs, balanceErrs []error

	bars       []model.Bar
	summary    map[string]any
	financials map[string]any
	balance    map[string]any
}

func (s *scriptedProvider) Name() string { return "scripted" }

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (s *scriptedProvider) History(context.Context, string, string) ([]model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyCalls++
	if err := pop(&s.historyErrs); err != nil {
		return nil, err
	}
	return s.bars, nil
}

func (s *scriptedProvider) Summary(context.Context, string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryCalls++
	if err := pop(&s.summaryErrs); err != nil {
		return nil, err
	}
	return s.summary, nil
}

func (s *scriptedProvider) Financials(context.Context, string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.financialsCalls++
	if err := pop(&s.financialsErrs); err != nil {
		return nil, err
	}
	return s.financials, nil
}

func (s *scriptedProvider) BalanceSheet(context.Context, string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balanceCalls++
	if err := pop(&s.balanceErrs); err != nil {
		return nil, err
	}
	return s.balance, nil
}

// fastPolicy keeps retry semantics but collapses all sleeps to near zero.
func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BackoffBase: time.Millisecond,
		BackoffMax:  4 * time.Millisecond,
	}
}

func dailyBars(start time.Time, n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{Time: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return bars
}

func rateLimited() error { return &provider.StatusError{Code: 429, Body: "Too Many Requests"} }

func TestHistoryFetcher_RetriesRateLimitThenSucceeds(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &scriptedProvider{
		historyErrs: []error{rateLimited(), rateLimited()},
		bars:        dailyBars(start, 5),
	}
	f := NewHistoryFetcher(p, fastPolicy(5))

	bars, err := f.Fetch(context.Background(), "AAPL", start, start.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Len(t, bars, 5)
	assert.Equal(t, 3, p.historyCalls, "two rate-limited attempts plus the success")
}

func TestHistoryFetcher_PermanentErrorFailsFast(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &scriptedProvider{
		historyErrs: []error{&provider.StatusError{Code: 404, Body: "not found"}},
	}
	f := NewHistoryFetcher(p, fastPolicy(5))

	_, err := f.Fetch(context.Background(), "GONE", start, start.AddDate(0, 0, 150))
	require.Error(t, err)
	assert.Equal(t, 1, p.historyCalls, "permanent errors burn a single attempt")
}

func TestHistoryFetcher_ExhaustsAttempts(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	transient := errors.New("dial tcp: connection refused")
	p := &scriptedProvider{
		historyErrs: []error{transient, transient, transient},
	}
	f := NewHistoryFetcher(p, fastPolicy(3))

	_, err := f.Fetch(context.Background(), "AAPL", start, start.AddDate(0, 0, 150))
	require.Error(t, err)
	assert.Equal(t, 3, p.historyCalls)
	assert.Contains(t, err.Error(), "attempts exhausted")
	assert.ErrorIs(t, err, transient)
}

func TestHistoryFetcher_SortsFiltersDedupes(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d1 := start.AddDate(0, 0, 1)
	d2 := start.AddDate(0, 0, 2)
	p := &scriptedProvider{
		bars: []model.Bar{
			{Time: d2, Close: 20},
			{Time: start.AddDate(0, 0, -3), Close: 5}, // before window
			{Time: d1, Close: 10},
			{Time: d2, Close: 21}, // duplicate timestamp, later write
		},
	}
	f := NewHistoryFetcher(p, fastPolicy(1))

	bars, err := f.Fetch(context.Background(), "AAPL", start, start.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, d1, bars[0].Time)
	assert.Equal(t, 10.0, bars[0].Close)
	assert.Equal(t, d2, bars[1].Time)
	assert.Equal(t, 21.0, bars[1].Close, "last write wins on duplicate timestamps")
}

func TestHistoryFetcher_EmptyWindowIsNotAnError(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &scriptedProvider{
		bars: []model.Bar{{Time: start.AddDate(0, 0, -10), Close: 5}},
	}
	f := NewHistoryFetcher(p, fastPolicy(1))

	bars, err := f.Fetch(context.Background(), "THIN", start, start.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Nil(t, bars)
}

func TestRangeBucket(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{7, "1mo"},
		{30, "1mo"},
		{31, "3mo"},
		{90, "3mo"},
		{150, "6mo"},
		{180, "6mo"},
		{365, "1y"},
		{366, "2y"},
		{730, "2y"},
		{731, "5y"},
		{2000, "5y"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rangeBucket(tt.days), "days=%d", tt.days)
	}
}
