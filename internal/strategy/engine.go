package strategy

import (
	"time"

	"FyersSentinel/internal/calculator"
	"FyersSentinel/internal/model"
)

const (
	DefaultShort     = 3
	DefaultLong      = 30
	DefaultRSIPeriod = 14
)

// Engine derives a direction from a short and a long EMA of closes.
// It keeps no state between calls.
type Engine struct {
	Short     int
	Long      int
	RSIPeriod int
}

func NewEngine(short, long int) *Engine {
	if short <= 0 {
		short = DefaultShort
	}
	if long <= 0 {
		long = DefaultLong
	}
	return &Engine{Short: short, Long: long, RSIPeriod: DefaultRSIPeriod}
}

// MinBars is the history needed before both averages are defined.
func (e *Engine) MinBars() int {
	return max(e.Short, e.Long)
}

// Evaluate computes the signal for series: LONG when the short EMA is above the long EMA,
// SHORT when below, FLAT on equality or when the series is shorter than MinBars.
func (e *Engine) Evaluate(series *model.BarSeries, producedAt time.Time) model.Signal {
	sig := model.Signal{
		Instrument: series.Instrument,
		Direction:  model.DirectionFlat,
		ProducedAt: producedAt,
		Bars:       series.Len(),
	}
	last, ok := series.Last()
	if !ok {
		return sig
	}
	sig.BarTime = last.Time
	sig.Close = last.Close.InexactFloat64()

	if series.Len() < e.MinBars() {
		return sig
	}
	closes := series.Closes()
	short, err := calculator.LastEMA(closes, e.Short)
	if err != nil {
		return sig
	}
	long, err := calculator.LastEMA(closes, e.Long)
	if err != nil {
		return sig
	}
	sig.Ready = true
	sig.ShortEMA = short
	sig.LongEMA = long

	switch {
	case short > long:
		sig.Direction = model.DirectionLong
	case short < long:
		sig.Direction = model.DirectionShort
	}

	if e.RSIPeriod > 0 {
		if rsi, err := calculator.CalculateRSI(series.Bars, e.RSIPeriod); err == nil {
			sig.RSI = rsi
		}
	}
	if high, low, err := calculator.WindowRange(series.Bars); err == nil {
		sig.High = high.InexactFloat64()
		sig.Low = low.InexactFloat64()
		sig.RangePos, _ = calculator.RangePosition(sig.Close, sig.High, sig.Low)
	}
	return sig
}
