package store

import "StockPulse/internal/model"

// Stats summarizes stored metrics for display after a refresh.
type Stats struct {
	Records  int
	PECount  int
	PEMin    float64
	PEMax    float64
	PEAvg    float64
	PriceMin float64
	PriceMax float64
	Sample   []string
}

// Summarize folds stored records into display statistics. PE figures
// cover only rows where the ratio is present; Sample holds at most ten
// tickers in stored order.
func Summarize(records []model.MetricsRecord) Stats {
	s := Stats{Records: len(records)}
	if len(records) == 0 {
		return s
	}

	s.PriceMin = records[0].LastPrice
	s.PriceMax = records[0].LastPrice

	peSum := 0.0
	for _, r := range records {
		if r.LastPrice < s.PriceMin {
			s.PriceMin = r.LastPrice
		}
		if r.LastPrice > s.PriceMax {
			s.PriceMax = r.LastPrice
		}
		if r.PERatio.Valid {
			s.PECount++
			peSum += r.PERatio.Float64
			if s.PECount == 1 || r.PERatio.Float64 < s.PEMin {
				s.PEMin = r.PERatio.Float64
			}
			if s.PECount == 1 || r.PERatio.Float64 > s.PEMax {
				s.PEMax = r.PERatio.Float64
			}
		}
		if len(s.Sample) < 10 {
			s.Sample = append(s.Sample, r.Ticker)
		}
	}
	if s.PECount > 0 {
		s.PEAvg = peSum / float64(s.PECount)
	}
	return s
}
