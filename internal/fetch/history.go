package fetch

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/model"
	"StockPulse/internal/provider"
)

// HistoryFetcher retrieves daily bar series through the retry policy.
type HistoryFetcher struct {
	provider provider.Provider
	policy   Policy
}

func NewHistoryFetcher(p provider.Provider, policy Policy) *HistoryFetcher {
	return &HistoryFetcher{provider: p, policy: policy}
}

// rangeBucket maps a request span in days onto the smallest provider
// range that covers it.
func rangeBucket(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	default:
		return "5y"
	}
}

// Fetch returns the ticker's bars between start and end, ascending by
// time with duplicate timestamps removed (last write wins). A nil series
// with a nil error means the provider had no data for the window; that
// is a legitimate outcome, not a failure.
func (f *HistoryFetcher) Fetch(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	rng := rangeBucket(int(end.Sub(start).Hours() / 24))

	var bars []model.Bar
	err := f.policy.do(ctx, ticker, "history", func(ctx context.Context) error {
		var err error
		bars, err = f.provider.History(ctx, ticker, rng)
		return err
	})
	if err != nil {
		return nil, err
	}

	kept := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(start) {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		log.Warn().Str("ticker", ticker).Str("range", rng).Msg("no historical data in requested window")
		return nil, nil
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })

	deduped := kept[:0]
	for _, b := range kept {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped, nil
}
