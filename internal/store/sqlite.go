package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"StockPulse/internal/model"
)

// SQLiteGateway keeps one metrics row per ticker in a SQLite database.
type SQLiteGateway struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSQLiteGateway opens (or creates) the SQLite database and runs migrations.
func NewSQLiteGateway(dbPath string) (*SQLiteGateway, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	g := &SQLiteGateway{db: db}
	if err := g.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return g, nil
}

func (g *SQLiteGateway) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuation_momentum (
			ticker            TEXT PRIMARY KEY,
			last_price        REAL NOT NULL,
			ma_100            REAL NOT NULL,
			ema_100           REAL NOT NULL,
			pct_above_ma_100  REAL NOT NULL,
			pct_above_ema_100 REAL NOT NULL,
			market_cap        REAL,
			pe_ratio          REAL,
			forward_pe        REAL,
			peg_ratio         REAL,
			pb_ratio          REAL,
			ps_ratio          REAL,
			ebitda            REAL,
			enterprise_value  REAL,
			ebitda_to_ev      REAL,
			updated_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_updated ON valuation_momentum(updated_at)`,
	}

	for _, s := range stmts {
		if _, err := g.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const upsertQuery = `INSERT INTO valuation_momentum
	(ticker, last_price, ma_100, ema_100, pct_above_ma_100, pct_above_ema_100,
	 market_cap, pe_ratio, forward_pe, peg_ratio, pb_ratio, ps_ratio,
	 ebitda, enterprise_value, ebitda_to_ev, updated_at)
	VALUES (:ticker, :last_price, :ma_100, :ema_100, :pct_above_ma_100, :pct_above_ema_100,
	 :market_cap, :pe_ratio, :forward_pe, :peg_ratio, :pb_ratio, :ps_ratio,
	 :ebitda, :enterprise_value, :ebitda_to_ev, :updated_at)
	ON CONFLICT(ticker) DO UPDATE SET
	 last_price = excluded.last_price,
	 ma_100 = excluded.ma_100,
	 ema_100 = excluded.ema_100,
	 pct_above_ma_100 = excluded.pct_above_ma_100,
	 pct_above_ema_100 = excluded.pct_above_ema_100,
	 market_cap = excluded.market_cap,
	 pe_ratio = excluded.pe_ratio,
	 forward_pe = excluded.forward_pe,
	 peg_ratio = excluded.peg_ratio,
	 pb_ratio = excluded.pb_ratio,
	 ps_ratio = excluded.ps_ratio,
	 ebitda = excluded.ebitda,
	 enterprise_value = excluded.enterprise_value,
	 ebitda_to_ev = excluded.ebitda_to_ev,
	 updated_at = excluded.updated_at`

func (g *SQLiteGateway) Upsert(ctx context.Context, records []model.MetricsRecord) error {
	if len(records) == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for i := range records {
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, upsertQuery, records[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", records[i].Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	log.Debug().Int("records", len(records)).Msg("metrics upserted")
	return nil
}

func (g *SQLiteGateway) IsRecentlyUpdated(ctx context.Context, ticker string, maxAge time.Duration) (bool, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	var n int
	err := g.db.GetContext(ctx, &n,
		`SELECT COUNT(1) FROM valuation_momentum WHERE ticker = ? AND updated_at >= ?`,
		ticker, cutoff)
	if err != nil {
		return false, fmt.Errorf("freshness query %s: %w", ticker, err)
	}
	return n > 0, nil
}

func (g *SQLiteGateway) Latest(ctx context.Context, ticker string) (*model.MetricsRecord, error) {
	var rec model.MetricsRecord
	err := g.db.GetContext(ctx, &rec,
		`SELECT * FROM valuation_momentum WHERE ticker = ?`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}
	return &rec, nil
}

func (g *SQLiteGateway) All(ctx context.Context) ([]model.MetricsRecord, error) {
	var recs []model.MetricsRecord
	if err := g.db.SelectContext(ctx, &recs, `SELECT * FROM valuation_momentum ORDER BY ticker`); err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}
	return recs, nil
}

func (g *SQLiteGateway) Close() error {
	log.Debug().Msg("closing sqlite store")
	return g.db.Close()
}
