package calculator

import (
	"github.com/guregu/null/v5"

	"StockPulse/internal/model"
	"StockPulse/internal/numeric"
)

// Valuation derives fundamental ratios from a snapshot and the latest
// traded price. Ratios are independent: a missing input nulls only the
// ratios built on it, never the whole result. Non-equity instruments
// keep their market cap and nothing else.
func Valuation(snap *model.FundamentalSnapshot, lastPrice float64) model.ValuationMetrics {
	var m model.ValuationMetrics
	if snap == nil {
		return m
	}

	marketCap := numeric.Coerce(snap.Get(model.FieldMarketCap))
	m.MarketCap = marketCap
	m.ForwardPE = numeric.Coerce(snap.Get(model.FieldForwardPE))
	m.PEGRatio = numeric.Coerce(snap.Get(model.FieldPEGRatio))

	if !snap.IsEquity() {
		return m
	}

	price := numeric.Coerce(lastPrice)
	eps := numeric.Coerce(snap.Get(model.FieldDilutedEPS))
	revenue := numeric.Coerce(snap.Get(model.FieldRevenue))
	ebit := numeric.Coerce(snap.Get(model.FieldEBIT))
	depreciation := numeric.Coerce(snap.Get(model.FieldDepreciation))
	cash := numeric.Coerce(snap.Get(model.FieldCash))
	longTermDebt := numeric.Coerce(snap.Get(model.FieldLongTermDebt))
	currentDebt := numeric.Coerce(snap.Get(model.FieldCurrentDebt))
	book := numeric.Coerce(snap.Get(model.FieldBookValue))

	m.PERatio = divide(price, eps)
	m.PBRatio = divide(marketCap, book)
	m.PSRatio = divide(marketCap, revenue)
	m.EBITDA = add(ebit, depreciation)
	m.EnterpriseValue = enterpriseValue(marketCap, longTermDebt, currentDebt, cash)
	m.EBITDAToEV = divide(m.EBITDA, m.EnterpriseValue)

	return m
}

// divide nulls out on a missing numerator or a missing, zero or
// negative denominator.
func divide(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(num.Float64 / den.Float64)
}

func add(a, b null.Float) null.Float {
	if !a.Valid || !b.Valid {
		return null.Float{}
	}
	return null.FloatFrom(a.Float64 + b.Float64)
}

// enterpriseValue needs the market cap; absent debt and cash components
// count as zero.
func enterpriseValue(marketCap, longTermDebt, currentDebt, cash null.Float) null.Float {
	if !marketCap.Valid {
		return null.Float{}
	}
	ev := marketCap.Float64 + longTermDebt.ValueOrZero() + currentDebt.ValueOrZero() - cash.ValueOrZero()
	return null.FloatFrom(ev)
}
