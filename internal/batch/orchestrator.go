package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
)

// HistorySource yields daily bars inside a time window.
type HistorySource interface {
	Fetch(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error)
}

// FundamentalsSource yields a fundamentals snapshot for a ticker.
type FundamentalsSource interface {
	Fetch(ctx context.Context, ticker string, lastPrice float64) (*model.FundamentalSnapshot, error)
}

// FreshnessChecker answers whether a ticker already has a recent row.
type FreshnessChecker interface {
	IsRecentlyUpdated(ctx context.Context, ticker string, maxAge time.Duration) (bool, error)
}

// Config tunes one batch run.
type Config struct {
	Concurrency  int
	LookbackDays int
	Freshness    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Concurrency:  10,
		LookbackDays: 150,
		Freshness:    24 * time.Hour,
	}
}

// Summary tallies one run. Every requested ticker lands in exactly one
// bucket.
type Summary struct {
	Total     int
	Skipped   int
	Succeeded int
	Failed    int
}

var (
	errNoData         = errors.New("no historical data in window")
	errInvalidMetrics = errors.New("metrics record failed validation")
)

// Orchestrator drives the fetch and compute pipeline across a ticker
// universe with bounded concurrency.
type Orchestrator struct {
	history      HistorySource
	fundamentals FundamentalsSource
	freshness    FreshnessChecker
	cfg          Config
}

func New(history HistorySource, fundamentals FundamentalsSource, freshness FreshnessChecker, cfg Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultConfig().LookbackDays
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = DefaultConfig().Freshness
	}
	return &Orchestrator{
		history:      history,
		fundamentals: fundamentals,
		freshness:    freshness,
		cfg:          cfg,
	}
}

// Run processes every ticker and returns the records that passed
// validation. Freshness is checked up front so fresh tickers never
// reach the fetch queue. A store error during that check aborts the
// run; per-ticker fetch and compute errors only mark that ticker
// failed.
func (o *Orchestrator) Run(ctx context.Context, symbols []string) ([]model.MetricsRecord, Summary, error) {
	sum := Summary{Total: len(symbols)}

	var stale []string
	for _, sym := range symbols {
		fresh, err := o.freshness.IsRecentlyUpdated(ctx, sym, o.cfg.Freshness)
		if err != nil {
			return nil, sum, fmt.Errorf("freshness check %s: %w", sym, err)
		}
		if fresh {
			sum.Skipped++
			log.Debug().Str("ticker", sym).Msg("recently updated, skipping")
			continue
		}
		stale = append(stale, sym)
	}

	if len(stale) == 0 {
		return nil, sum, nil
	}

	log.Info().
		Int("total", sum.Total).
		Int("stale", len(stale)).
		Int("workers", o.cfg.Concurrency).
		Msg("batch started")

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []model.MetricsRecord
	)
	sem := make(chan struct{}, o.cfg.Concurrency)

	for _, sym := range stale {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			sum.Failed++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()

			rec, err := o.processTicker(ctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				if errors.Is(err, calculator.ErrInsufficientData) {
					log.Info().Str("ticker", ticker).Msg("insufficient history, skipping")
				} else {
					log.Warn().Err(err).Str("ticker", ticker).Msg("ticker failed")
				}
				return
			}
			sum.Succeeded++
			records = append(records, rec)
		}(sym)
	}
	wg.Wait()

	log.Info().
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Int("skipped", sum.Skipped).
		Msg("batch finished")
	return records, sum, nil
}

// processTicker runs the per-ticker pipeline: history, momentum,
// fundamentals, valuation, merge. A fundamentals failure degrades to a
// momentum-only record rather than failing the ticker.
func (o *Orchestrator) processTicker(ctx context.Context, ticker string) (model.MetricsRecord, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -o.cfg.LookbackDays)

	bars, err := o.history.Fetch(ctx, ticker, start, end)
	if err != nil {
		return model.MetricsRecord{}, err
	}
	if len(bars) == 0 {
		return model.MetricsRecord{}, errNoData
	}

	momentum, err := calculator.Momentum(bars)
	if err != nil {
		return model.MetricsRecord{}, err
	}

	snap, err := o.fundamentals.Fetch(ctx, ticker, momentum.LastPrice)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("fundamentals unavailable, keeping momentum only")
		snap = nil
	}

	rec := model.NewMetricsRecord(ticker, momentum, calculator.Valuation(snap, momentum.LastPrice))
	if !rec.Valid() {
		return model.MetricsRecord{}, errInvalidMetrics
	}
	return rec, nil
}
