package fetch

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/model"
	"StockPulse/internal/provider"
)

// summaryFields, financialFields and balanceFields map provider key
// names onto canonical snapshot fields. Keys the provider does not
// return stay absent from the snapshot; keys outside these maps are
// dropped.
var (
	summaryFields = map[string]string{
		"marketCap": model.FieldMarketCap,
		"forwardPE": model.FieldForwardPE,
		"pegRatio":  model.FieldPEGRatio,
	}
	financialFields = map[string]string{
		"annualTotalRevenue":           model.FieldRevenue,
		"annualEBIT":                   model.FieldEBIT,
		"annualReconciledDepreciation": model.FieldDepreciation,
		"annualDilutedEPS":             model.FieldDilutedEPS,
	}
	balanceFields = map[string]string{
		"annualCashAndCashEquivalents":               model.FieldCash,
		"annualLongTermDebt":                         model.FieldLongTermDebt,
		"annualCurrentDebtAndCapitalLeaseObligation": model.FieldCurrentDebt,
		"annualTotalEquityGrossMinorityInterest":     model.FieldBookValue,
	}
)

// FundamentalsFetcher retrieves fundamental fields through the retry
// policy. The three upstream calls (summary, financials, balance sheet)
// run independently; partial failures degrade to a sparser snapshot.
type FundamentalsFetcher struct {
	provider provider.Provider
	policy   Policy
}

func NewFundamentalsFetcher(p provider.Provider, policy Policy) *FundamentalsFetcher {
	return &FundamentalsFetcher{provider: p, policy: policy}
}

// Fetch returns the ticker's fundamental snapshot. The last traded price
// is a precondition: without it no valuation ratio can be derived, so no
// network call is spent. An error is returned only when every
// sub-request failed.
func (f *FundamentalsFetcher) Fetch(ctx context.Context, ticker string, lastPrice float64) (*model.FundamentalSnapshot, error) {
	if lastPrice <= 0 || math.IsNaN(lastPrice) {
		return nil, fmt.Errorf("fundamentals %s: unusable last price %v", ticker, lastPrice)
	}

	snap := model.NewFundamentalSnapshot(ticker)
	failed := 0

	summary, err := f.sub(ctx, ticker, "summary", f.provider.Summary)
	if err != nil {
		failed++
		log.Warn().Err(err).Str("ticker", ticker).Msg("summary fetch failed")
	} else {
		if qt, ok := summary["quoteType"].(string); ok {
			snap.QuoteType = qt
		}
		applyFields(snap, summary, summaryFields)
	}

	// Non-equity instruments expose no standard fundamentals; market
	// cap is all there is to record.
	if snap.QuoteType != "" && !snap.IsEquity() {
		log.Info().Str("ticker", ticker).Str("quote_type", snap.QuoteType).Msg("non-equity instrument, keeping market cap only")
		return snap, nil
	}

	financials, err := f.sub(ctx, ticker, "financials", f.provider.Financials)
	if err != nil {
		failed++
		log.Warn().Err(err).Str("ticker", ticker).Msg("financials fetch failed")
	} else {
		applyFields(snap, financials, financialFields)
	}

	balance, err := f.sub(ctx, ticker, "balance_sheet", f.provider.BalanceSheet)
	if err != nil {
		failed++
		log.Warn().Err(err).Str("ticker", ticker).Msg("balance sheet fetch failed")
	} else {
		applyFields(snap, balance, balanceFields)
	}

	if failed == 3 {
		return nil, fmt.Errorf("fundamentals %s: all sub-requests failed", ticker)
	}
	return snap, nil
}

func (f *FundamentalsFetcher) sub(ctx context.Context, ticker, op string, call func(context.Context, string) (map[string]any, error)) (map[string]any, error) {
	var out map[string]any
	err := f.policy.do(ctx, ticker, op, func(ctx context.Context) error {
		var err error
		out, err = call(ctx, ticker)
		return err
	})
	return out, err
}

// applyFields copies mapped provider values into the snapshot,
// unwrapping {"raw": ...} containers on the way.
func applyFields(snap *model.FundamentalSnapshot, raw map[string]any, fields map[string]string) {
	for providerKey, canonical := range fields {
		v, ok := raw[providerKey]
		if !ok {
			continue
		}
		snap.Set(canonical, unwrapRaw(v))
	}
}

// unwrapRaw extracts the numeric payload from container values such as
// {"raw": 2.85e12, "fmt": "2.85T"}. Scalar values pass through.
func unwrapRaw(v any) any {
	if m, ok := v.(map[string]any); ok {
		return m["raw"]
	}
	return v
}
