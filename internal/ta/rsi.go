package ta

import (
	"errors"
	"fmt"
	"math"

	"coin-pulse/internal/domain"

	"github.com/shopspring/decimal"
)

const DefaultRSIPeriod = 14

var ErrInvalidPrice = errors.New("price series contains a non-finite value")

// ComputeRSI returns Wilder's smoothed RSI of closes, rounded to two decimals.
// closes must be chronological and hold at least period+1 values.
func ComputeRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(closes) < period+1 {
		return 0, fmt.Errorf("%w: need %d closes, got %d", domain.ErrInsufficientData, period+1, len(closes))
	}
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("%w at index %d", ErrInvalidPrice, i)
		}
	}

	avgGain, avgLoss := wilderAverages(closes, period)
	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return Round(100-(100/(1+rs)), 2), nil
}

func wilderAverages(closes []float64, period int) (float64, float64) {
	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(delta, 0)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(-delta, 0)) / float64(period)
	}
	return avgGain, avgLoss
}

// Round rounds v to places decimals, half away from zero. It works on the
// shortest decimal form of v, so 1.005 rounds to 1.01.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
