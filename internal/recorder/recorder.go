package recorder

import (
	"time"

	"FyersSentinel/internal/model"
)

// CycleEvent describes one polling iteration. Err is nil for a completed iteration,
// in which case Signal is set.
type CycleEvent struct {
	Iteration  int
	Instrument string
	Stage      string // stage that failed: "relogin", "fetch" or "notify"
	Err        error
	Signal     *model.Signal
	Duration   time.Duration
	At         time.Time
}

// LoginEvent describes one login attempt.
type LoginEvent struct {
	Stage    string
	Err      error
	Duration time.Duration
}

// CallEvent describes one broker round trip.
type CallEvent struct {
	Endpoint string
	Err      error
	Duration time.Duration
}

// Recorder receives operational events for monitoring.
type Recorder interface {
	RecordCycle(evt *CycleEvent)
	RecordLogin(evt *LoginEvent)
	RecordCall(evt *CallEvent)
}
