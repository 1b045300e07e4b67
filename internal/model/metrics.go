package model

import (
	"math"

	"github.com/guregu/null/v5"
)

// MomentumMetrics holds trend measurements derived from a daily close series.
type MomentumMetrics struct {
	LastPrice      float64
	MA100          float64
	EMA100         float64
	PctAboveMA100  float64
	PctAboveEMA100 float64
}

// ValuationMetrics holds size and ratio measurements derived from
// fundamentals. Every field is nullable: a missing input nulls the
// dependent field without touching its siblings.
type ValuationMetrics struct {
	MarketCap       null.Float
	PERatio         null.Float
	ForwardPE       null.Float
	PEGRatio        null.Float
	PBRatio         null.Float
	PSRatio         null.Float
	EBITDA          null.Float
	EnterpriseValue null.Float
	EBITDAToEV      null.Float
}

// MetricsRecord is the merged per-ticker row handed to storage. Exactly
// one record exists per ticker; each refresh supersedes the previous one.
type MetricsRecord struct {
	Ticker          string     `db:"ticker" json:"ticker"`
	LastPrice       float64    `db:"last_price" json:"last_price"`
	MA100           float64    `db:"ma_100" json:"ma_100"`
	EMA100          float64    `db:"ema_100" json:"ema_100"`
	PctAboveMA100   float64    `db:"pct_above_ma_100" json:"pct_above_ma_100"`
	PctAboveEMA100  float64    `db:"pct_above_ema_100" json:"pct_above_ema_100"`
	MarketCap       null.Float `db:"market_cap" json:"market_cap"`
	PERatio         null.Float `db:"pe_ratio" json:"pe_ratio"`
	ForwardPE       null.Float `db:"forward_pe" json:"forward_pe"`
	PEGRatio        null.Float `db:"peg_ratio" json:"peg_ratio"`
	PBRatio         null.Float `db:"pb_ratio" json:"pb_ratio"`
	PSRatio         null.Float `db:"ps_ratio" json:"ps_ratio"`
	EBITDA          null.Float `db:"ebitda" json:"ebitda"`
	EnterpriseValue null.Float `db:"enterprise_value" json:"enterprise_value"`
	EBITDAToEV      null.Float `db:"ebitda_to_ev" json:"ebitda_to_ev"`
	UpdatedAt       int64      `db:"updated_at" json:"updated_at"`
}

// NewMetricsRecord merges momentum and valuation metrics into one record.
// UpdatedAt stays zero; the store stamps it at persistence time.
func NewMetricsRecord(ticker string, m MomentumMetrics, v ValuationMetrics) MetricsRecord {
	return MetricsRecord{
		Ticker:          ticker,
		LastPrice:       m.LastPrice,
		MA100:           m.MA100,
		EMA100:          m.EMA100,
		PctAboveMA100:   m.PctAboveMA100,
		PctAboveEMA100:  m.PctAboveEMA100,
		MarketCap:       v.MarketCap,
		PERatio:         v.PERatio,
		ForwardPE:       v.ForwardPE,
		PEGRatio:        v.PEGRatio,
		PBRatio:         v.PBRatio,
		PSRatio:         v.PSRatio,
		EBITDA:          v.EBITDA,
		EnterpriseValue: v.EnterpriseValue,
		EBITDAToEV:      v.EBITDAToEV,
	}
}

// Valid reports whether all required fields are present and finite. A
// record failing this check is discarded before aggregation and must
// never reach storage.
func (r MetricsRecord) Valid() bool {
	if r.Ticker == "" {
		return false
	}
	required := []float64{r.LastPrice, r.MA100, r.EMA100, r.PctAboveMA100, r.PctAboveEMA100}
	for _, v := range required {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
