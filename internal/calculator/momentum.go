package calculator

import (
	"errors"

	"StockPulse/internal/model"
)

// MomentumWindow is the number of trailing closes feeding the moving
// averages.
const MomentumWindow = 100

// ErrInsufficientData is returned when a series is shorter than the
// momentum window. Retrying cannot help; callers treat it as a skip.
var ErrInsufficientData = errors.New("insufficient historical data for momentum calculation")

// Momentum derives trend metrics from a daily bar series. The series
// must be ascending by time and hold at least MomentumWindow bars.
func Momentum(bars []model.Bar) (model.MomentumMetrics, error) {
	if len(bars) < MomentumWindow {
		return model.MomentumMetrics{}, ErrInsufficientData
	}

	closes := extractCloses(bars)
	window := closes[len(closes)-MomentumWindow:]

	lastPrice := window[len(window)-1]
	ma := mean(window)
	ema := recursiveEMA(window)

	return model.MomentumMetrics{
		LastPrice:      lastPrice,
		MA100:          ma,
		EMA100:         ema,
		PctAboveMA100:  pctAbove(lastPrice, ma),
		PctAboveEMA100: pctAbove(lastPrice, ema),
	}, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// recursiveEMA applies the standard recursive definition with smoothing
// factor 2/(n+1), seeded with the window's first value.
func recursiveEMA(values []float64) float64 {
	alpha := 2.0 / float64(len(values)+1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = alpha*v + (1-alpha)*ema
	}
	return ema
}

// pctAbove is the percentage distance of price from base, 0 when the
// base is zero.
func pctAbove(price, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (price - base) / base * 100
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
