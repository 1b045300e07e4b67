package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/model"
)

func newTestGateway(t *testing.T) *SQLiteGateway {
	t.Helper()
	g, err := NewSQLiteGateway(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func sampleRecord(ticker string) model.MetricsRecord {
	return model.MetricsRecord{
		Ticker:         ticker,
		LastPrice:      174.5,
		MA100:          149.75,
		EMA100:         152.3,
		PctAboveMA100:  16.5,
		PctAboveEMA100: 14.6,
		MarketCap:      null.FloatFrom(2.85e12),
		PERatio:        null.FloatFrom(28.6),
	}
}

func TestSQLiteGateway_UpsertStampsAndReads(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	records := []model.MetricsRecord{sampleRecord("AAPL")}
	require.NoError(t, g.Upsert(ctx, records))
	assert.Greater(t, records[0].UpdatedAt, int64(0))

	rec, err := g.Latest(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AAPL", rec.Ticker)
	assert.Equal(t, 174.5, rec.LastPrice)
	require.True(t, rec.MarketCap.Valid)
	assert.Equal(t, 2.85e12, rec.MarketCap.Float64)
	assert.False(t, rec.PBRatio.Valid)
	assert.False(t, rec.EBITDAToEV.Valid)
	assert.Equal(t, records[0].UpdatedAt, rec.UpdatedAt)
}

func TestSQLiteGateway_UpsertReplacesRow(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	first := sampleRecord("AAPL")
	require.NoError(t, g.Upsert(ctx, []model.MetricsRecord{first}))

	// Age the stored row so the replacement stamp is visibly newer.
	aged := time.Now().Add(-48 * time.Hour).Unix()
	_, err := g.db.Exec(`UPDATE valuation_momentum SET updated_at = ? WHERE ticker = ?`, aged, "AAPL")
	require.NoError(t, err)

	second := sampleRecord("AAPL")
	second.LastPrice = 181.2
	second.PERatio = null.Float{}
	require.NoError(t, g.Upsert(ctx, []model.MetricsRecord{second}))

	all, err := g.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 181.2, all[0].LastPrice)
	assert.False(t, all[0].PERatio.Valid)
	assert.Greater(t, all[0].UpdatedAt, aged)
}

func TestSQLiteGateway_Freshness(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	fresh, err := g.IsRecentlyUpdated(ctx, "AAPL", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)

	require.NoError(t, g.Upsert(ctx, []model.MetricsRecord{sampleRecord("AAPL")}))

	fresh, err = g.IsRecentlyUpdated(ctx, "AAPL", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Age the row past the freshness horizon.
	_, err = g.db.Exec(`UPDATE valuation_momentum SET updated_at = ? WHERE ticker = ?`,
		time.Now().Add(-48*time.Hour).Unix(), "AAPL")
	require.NoError(t, err)

	fresh, err = g.IsRecentlyUpdated(ctx, "AAPL", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSQLiteGateway_LatestUnknownTicker(t *testing.T) {
	g := newTestGateway(t)

	rec, err := g.Latest(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLiteGateway_AllOrdersByTicker(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Upsert(ctx, []model.MetricsRecord{
		sampleRecord("MSFT"),
		sampleRecord("AAPL"),
		sampleRecord("GOOG"),
	}))

	all, err := g.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "AAPL", all[0].Ticker)
	assert.Equal(t, "GOOG", all[1].Ticker)
	assert.Equal(t, "MSFT", all[2].Ticker)
}
