package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockPulse/internal/model"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// summaryModules are the quoteSummary modules carrying market cap, quote
// type, forward P/E and PEG ratio.
const summaryModules = "price,summaryDetail,defaultKeyStatistics"

// financialsTypes and balanceSheetTypes are the annual timeseries keys
// requested from the fundamentals endpoint.
var (
	financialsTypes = []string{
		"annualTotalRevenue",
		"annualEBIT",
		"annualReconciledDepreciation",
		"annualDilutedEPS",
	}
	balanceSheetTypes = []string{
		"annualCashAndCashEquivalents",
		"annualLongTermDebt",
		"annualCurrentDebtAndCapitalLeaseObligation",
		"annualTotalEquityGrossMinorityInterest",
	}
)

// Yahoo implements Provider against the Yahoo Finance public API.
type Yahoo struct {
	BaseURL string
	Client  *http.Client
}

// NewYahoo creates a Yahoo provider. An empty baseURL falls back to the
// public host; tests point it at a local server.
func NewYahoo(baseURL, proxyURL string) *Yahoo {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Yahoo{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

// yahooSymbol converts an exchange ticker to Yahoo's notation: class
// shares use a dash (BRK.B -> BRK-B).
func yahooSymbol(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "-")
}

type yahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"chart"`
}

// yahooQuoteSummary is the response structure from the quoteSummary API.
// Each result entry maps module name to its field map.
type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *yahooAPIError              `json:"error"`
	} `json:"quoteSummary"`
}

// yahooTimeseries is the response structure from the fundamentals
// timeseries API. Result entries carry dynamic keys named after the
// requested types, so they decode lazily.
type yahooTimeseries struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooAPIError               `json:"error"`
	} `json:"timeseries"`
}

type timeseriesEntry struct {
	ReportedValue any `json:"reportedValue"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (y *Yahoo) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: truncate(body, 200)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func (y *Yahoo) History(ctx context.Context, ticker, rng string) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		y.BaseURL, url.PathEscape(yahooSymbol(ticker)), rng)

	var chart yahooChart
	if err := y.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (y *Yahoo) Summary(ctx context.Context, ticker string) (map[string]any, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.BaseURL, url.PathEscape(yahooSymbol(ticker)), summaryModules)

	var qs yahooQuoteSummary
	if err := y.get(ctx, u, &qs); err != nil {
		return nil, err
	}
	if qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no summary for %s", ticker)
	}

	// Flatten the modules into one field map. Field names do not
	// collide across the requested modules.
	merged := make(map[string]any)
	for _, module := range qs.QuoteSummary.Result[0] {
		for k, v := range module {
			merged[k] = v
		}
	}
	return merged, nil
}

func (y *Yahoo) Financials(ctx context.Context, ticker string) (map[string]any, error) {
	return y.timeseries(ctx, ticker, financialsTypes)
}

func (y *Yahoo) BalanceSheet(ctx context.Context, ticker string) (map[string]any, error) {
	return y.timeseries(ctx, ticker, balanceSheetTypes)
}

// timeseries fetches annual fundamentals rows and keeps the most recent
// reported value per requested type.
func (y *Yahoo) timeseries(ctx context.Context, ticker string, types []string) (map[string]any, error) {
	now := time.Now()
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?type=%s&period1=%d&period2=%d",
		y.BaseURL, url.PathEscape(yahooSymbol(ticker)),
		strings.Join(types, ","), now.AddDate(-2, 0, 0).Unix(), now.Unix())

	var ts yahooTimeseries
	if err := y.get(ctx, u, &ts); err != nil {
		return nil, err
	}
	if ts.Timeseries.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", ts.Timeseries.Error.Description)
	}
	if len(ts.Timeseries.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no fundamentals for %s", ticker)
	}

	out := make(map[string]any)
	for _, result := range ts.Timeseries.Result {
		for _, typ := range types {
			raw, ok := result[typ]
			if !ok {
				continue
			}
			var entries []*timeseriesEntry
			if err := json.Unmarshal(raw, &entries); err != nil {
				continue
			}
			// Entries are ordered oldest first; walk back to the
			// latest period that actually reported a value.
			for i := len(entries) - 1; i >= 0; i-- {
				if entries[i] != nil && entries[i].ReportedValue != nil {
					out[typ] = entries[i].ReportedValue
					break
				}
			}
		}
	}
	return out, nil
}
