package calculator

import (
	"errors"

	"FyersSentinel/internal/model"
)

var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMA returns the exponential moving average series for prices. Element i is defined for
// i >= period-1; the first defined value is the SMA of the first period prices, after which
// each value is alpha*price + (1-alpha)*previous with alpha = 2/(period+1).
// The returned slice holds only the defined values, so it has len(prices)-period+1 entries.
func EMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) < period {
		return nil, ErrInsufficientData
	}
	seed, err := CalculateSMA(prices[:period], period)
	if err != nil {
		return nil, err
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, 0, len(prices)-period+1)
	out = append(out, seed)
	prev := seed
	for _, p := range prices[period:] {
		prev += alpha * (p - prev)
		out = append(out, prev)
	}
	return out, nil
}

// LastEMA returns the most recent EMA value.
func LastEMA(prices []float64, period int) (float64, error) {
	series, err := EMA(prices, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close.InexactFloat64()
	}
	return closes
}
