package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents a single candlestick bar.
// Time is the exchange-local wall clock with the zone stripped (see Naive).
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// BarSeries holds an ordered, de-duplicated run of bars for one instrument and resolution.
type BarSeries struct {
	Instrument string
	Resolution Resolution
	Window     Window
	Bars       []Bar
}

func (s *BarSeries) Len() int { return len(s.Bars) }

// Closes returns the close prices in series order.
func (s *BarSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close.InexactFloat64()
	}
	return closes
}

// Last returns the most recent bar, or false for an empty series.
func (s *BarSeries) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// RawHistory is the undecoded history payload returned by the broker.
// Candles is kept raw so the builder can validate its structure.
type RawHistory struct {
	Status  string          `json:"s"`
	Candles json.RawMessage `json:"candles"`
}

// Resolution is a broker sampling resolution ("1", "5", "60", "1D", ...).
type Resolution string

func (r Resolution) IsIntraday() bool {
	switch r {
	case "D", "1D", "W", "1W", "M", "1M":
		return false
	}
	return true
}

// Step is the bar duration, or zero for an unknown resolution.
func (r Resolution) Step() time.Duration {
	if !r.IsIntraday() {
		return 24 * time.Hour
	}
	n, err := strconv.Atoi(string(r))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Minute
}

// MaxSpanDays is the widest date range the broker serves in one history request.
func (r Resolution) MaxSpanDays() int {
	if r.IsIntraday() {
		return 100
	}
	return 366
}

// Window is an inclusive range of exchange-local calendar dates.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow builds a window covering the given number of days ending on the day of now.
func NewWindow(now time.Time, days int) Window {
	to := DateOf(now)
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

// Days returns the number of calendar days covered, counting both ends.
func (w Window) Days() int {
	return int(DateOf(w.To).Sub(DateOf(w.From)).Hours()/24) + 1
}

// Contains reports whether the naive local time t falls on a day inside the window.
func (w Window) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(w.From)) && !d.After(DateOf(w.To))
}

// Split cuts the window into consecutive sub-windows of at most maxDays days each.
func (w Window) Split(maxDays int) []Window {
	from, to := DateOf(w.From), DateOf(w.To)
	if maxDays <= 0 || to.Before(from) {
		return []Window{{From: from, To: to}}
	}
	var parts []Window
	for start := from; !start.After(to); start = start.AddDate(0, 0, maxDays) {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(to) {
			end = to
		}
		parts = append(parts, Window{From: start, To: end})
	}
	return parts
}

// IST is the exchange's fixed UTC+5:30 zone.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Naive converts an instant to exchange-local wall time and drops the zone,
// leaving the wall clock fields in a zone-less (UTC tagged) time.
func Naive(t time.Time) time.Time {
	l := t.In(IST)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), time.UTC)
}

// DateOf truncates a time to midnight of its calendar day, keeping its wall clock fields.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
