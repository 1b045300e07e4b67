package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"StockPulse/internal/batch"
	"StockPulse/internal/config"
	"StockPulse/internal/fetch"
	"StockPulse/internal/provider"
	"StockPulse/internal/scheduler"
	"StockPulse/internal/store"
	"StockPulse/internal/tickers"
)

var (
	configFile  string
	symbols     []string
	mockData    bool
	dryRun      bool
	daemon      bool
	concurrency int
	dbPath      string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Fetch equity metrics and keep a per-ticker SQLite snapshot",
		Long: `pulse pulls daily price history and fundamentals for a ticker
universe, computes momentum and valuation metrics and upserts one row
per ticker into SQLite. Runs once by default; --daemon keeps it alive
on a cron schedule.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&configFile, "config", "configs/config.yaml", "Path to config file")
	rootCmd.Flags().StringSliceVar(&symbols, "symbols", nil, "Comma-separated tickers (overrides the CSV universe)")
	rootCmd.Flags().BoolVar(&mockData, "mock", false, "Use the deterministic mock provider")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Fetch and compute but write nothing")
	rootCmd.Flags().BoolVar(&daemon, "daemon", false, "Keep running and refresh on the cron schedule")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Worker count (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite path (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configFile = v
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	setupLogging(cfg.LogLevel)
	log.Info().Str("config", configFile).Msg("stockpulse starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prov := pickProvider(cfg)
	log.Info().Str("provider", prov.Name()).Msg("data source ready")

	gateway, err := pickGateway(cfg)
	if err != nil {
		return err
	}
	defer gateway.Close()

	universe, err := loadSymbols(cfg)
	if err != nil {
		return err
	}
	log.Info().Int("symbols", len(universe)).Msg("ticker universe loaded")

	policy := fetchPolicy(cfg)
	orchestrator := batch.New(
		fetch.NewHistoryFetcher(prov, policy),
		fetch.NewFundamentalsFetcher(prov, policy),
		gateway,
		batch.Config{
			Concurrency:  cfg.Batch.Concurrency,
			LookbackDays: cfg.Fetch.LookbackDays,
			Freshness:    time.Duration(cfg.Batch.FreshnessHours) * time.Hour,
		},
	)

	refresh := func(ctx context.Context) error {
		records, _, err := orchestrator.Run(ctx, universe)
		if err != nil {
			return err
		}
		if err := gateway.Upsert(ctx, records); err != nil {
			return fmt.Errorf("persist records: %w", err)
		}
		if !dryRun {
			logStats(ctx, gateway)
		}
		return nil
	}

	if !daemon {
		return refresh(ctx)
	}

	sched := scheduler.New(ctx, refresh)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, refreshing now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.RefreshCron).Msg("stockpulse running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	return nil
}

func applyFlags(cfg *config.Config) {
	if mockData {
		cfg.DataSource.Provider = "mock"
	}
	if concurrency > 0 {
		cfg.Batch.Concurrency = concurrency
	}
	if dbPath != "" {
		cfg.Database.SQLitePath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func pickProvider(cfg *config.Config) provider.Provider {
	if cfg.DataSource.Provider == "mock" {
		return provider.NewMock()
	}
	return provider.NewYahoo(cfg.DataSource.BaseURL, cfg.Proxy)
}

func pickGateway(cfg *config.Config) (store.Gateway, error) {
	if dryRun {
		log.Info().Msg("dry run, using noop store")
		return store.NewNoopGateway(), nil
	}
	return store.NewSQLiteGateway(cfg.Database.SQLitePath)
}

func loadSymbols(cfg *config.Config) ([]string, error) {
	if len(symbols) > 0 {
		cleaned := tickers.Clean(symbols)
		if len(cleaned) == 0 {
			return nil, fmt.Errorf("no valid symbols in --symbols")
		}
		return cleaned, nil
	}
	return tickers.NewLoader(cfg.Tickers.SP500CSV, cfg.Tickers.NasdaqCSV).Load()
}

func fetchPolicy(cfg *config.Config) fetch.Policy {
	f := cfg.Fetch
	return fetch.Policy{
		MaxAttempts: f.MaxAttempts,
		BackoffBase: time.Duration(f.BackoffBaseMS) * time.Millisecond,
		BackoffMax:  time.Duration(f.BackoffMaxMS) * time.Millisecond,
		JitterRange: [2]int{f.JitterMinMS, f.JitterMaxMS},
		CooldownMin: time.Duration(f.CooldownMinMS) * time.Millisecond,
		CooldownMax: time.Duration(f.CooldownMaxMS) * time.Millisecond,
		Throttle:    rate.NewLimiter(rate.Limit(f.RequestsPerSec), 1),
	}
}

func logStats(ctx context.Context, gateway store.Gateway) {
	records, err := gateway.All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load stored metrics for summary")
		return
	}
	s := store.Summarize(records)

	ev := log.Info().Int("records", s.Records)
	if s.Records > 0 {
		ev = ev.Float64("price_min", s.PriceMin).Float64("price_max", s.PriceMax)
	}
	if s.PECount > 0 {
		ev = ev.Float64("pe_min", s.PEMin).Float64("pe_max", s.PEMax).Float64("pe_avg", s.PEAvg)
	}
	if len(s.Sample) > 0 {
		ev = ev.Strs("sample", s.Sample)
	}
	ev.Msg("database summary")
}
