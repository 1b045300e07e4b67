package model

import "strings"

// Canonical field keys for FundamentalSnapshot. The fetch layer maps
// provider-specific key names onto these before any calculator runs.
const (
	FieldMarketCap    = "market_cap"
	FieldDilutedEPS   = "diluted_eps"
	FieldRevenue      = "revenue"
	FieldEBIT         = "ebit"
	FieldDepreciation = "depreciation"
	FieldCash         = "cash"
	FieldLongTermDebt = "long_term_debt"
	FieldCurrentDebt  = "current_debt"
	FieldBookValue    = "book_value"
	FieldForwardPE    = "forward_pe"
	FieldPEGRatio     = "peg_ratio"
)

// FundamentalSnapshot holds raw fundamental values for one ticker as
// returned by the provider. Values stay untyped (plain numbers or
// suffixed strings like "8.71B"); coercion happens in the valuation
// calculator. A missing key means the provider had no value.
type FundamentalSnapshot struct {
	Ticker    string
	QuoteType string
	Fields    map[string]any
}

// NewFundamentalSnapshot creates an empty snapshot for the given ticker.
func NewFundamentalSnapshot(ticker string) *FundamentalSnapshot {
	return &FundamentalSnapshot{Ticker: ticker, Fields: make(map[string]any)}
}

// Set stores a raw field value. Nil values are dropped so that a missing
// field and an explicit null look the same to readers.
func (s *FundamentalSnapshot) Set(key string, value any) {
	if value == nil {
		return
	}
	s.Fields[key] = value
}

// Get returns the raw value for a canonical field key, or nil when absent.
func (s *FundamentalSnapshot) Get(key string) any {
	return s.Fields[key]
}

// IsEquity reports whether the instrument exposes standard fundamentals.
// ETFs, mutual funds and indices only carry a market cap.
func (s *FundamentalSnapshot) IsEquity() bool {
	return s.QuoteType == "" || strings.EqualFold(s.QuoteType, "EQUITY")
}
