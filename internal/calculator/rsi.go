package calculator

import (
	"errors"
	"fmt"

	"FyersSentinel/internal/model"
)

// RSISeries returns Wilder's RSI for every close that has a full period behind it:
// out[i] belongs to closes[i+period]. Fewer than period+1 closes is ErrInsufficientData.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi period %d: must be positive", period)
	}
	if len(closes) < period+1 {
		return nil, ErrInsufficientData
	}

	n := float64(period)
	var up, down float64
	for i := 1; i <= period; i++ {
		gain, loss := moves(closes[i] - closes[i-1])
		up += gain
		down += loss
	}
	up /= n
	down /= n

	out := make([]float64, 0, len(closes)-period)
	out = append(out, rsiOf(up, down))
	for i := period + 1; i < len(closes); i++ {
		gain, loss := moves(closes[i] - closes[i-1])
		up += (gain - up) / n
		down += (loss - down) / n
		out = append(out, rsiOf(up, down))
	}
	return out, nil
}

// CalculateRSI is the latest RSISeries value over the bars' closes, or a neutral 50
// while there is not yet a full period of changes.
func CalculateRSI(bars []model.Bar, period int) (float64, error) {
	series, err := RSISeries(extractCloses(bars), period)
	switch {
	case errors.Is(err, ErrInsufficientData):
		return 50, nil
	case err != nil:
		return 0, err
	}
	return series[len(series)-1], nil
}

func moves(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiOf(up, down float64) float64 {
	if down == 0 {
		if up == 0 {
			return 50
		}
		return 100
	}
	return 100 - 100/(1+up/down)
}
