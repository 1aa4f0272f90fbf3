package model

import "time"

// Direction is the side implied by the moving-average comparison.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionFlat  Direction = "FLAT"
)

// Signal is the output of the strategy engine for one polling cycle.
type Signal struct {
	Instrument string
	Direction  Direction
	ProducedAt time.Time

	// Context for notifications and logs; not used to derive Direction.
	BarTime  time.Time
	Close    float64
	ShortEMA float64
	LongEMA  float64
	RSI      float64
	High     float64 // highest high in the series window
	Low      float64
	RangePos float64 // Close within [Low, High], 0.0~1.0
	Bars     int
	Ready    bool // false when the series was too short for both averages
}
