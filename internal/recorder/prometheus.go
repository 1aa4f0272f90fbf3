package recorder

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
)

// PrometheusRecorder exports events as Prometheus metrics on its own registry.
type PrometheusRecorder struct {
	Registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	logins      *prometheus.CounterVec
	calls       *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
	direction   *prometheus.GaugeVec
	lastSuccess prometheus.Gauge

	mu   sync.Mutex
	last time.Time
}

func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_cycles_total", Help: "Polling iterations by outcome"},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_cycle_failures_total", Help: "Failed polling iterations by stage and error kind"},
			[]string{"stage", "kind"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_logins_total", Help: "Login attempts by outcome"},
			[]string{"outcome", "stage"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "sentinel_broker_calls_total", Help: "Broker calls by endpoint and error kind"},
			[]string{"endpoint", "kind"},
		),
		callLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "sentinel_broker_call_seconds", Help: "Broker call latency", Buckets: prometheus.DefBuckets},
			[]string{"endpoint"},
		),
		direction: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "sentinel_signal_direction", Help: "Last signal: 1 long, -1 short, 0 flat"},
			[]string{"instrument"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "sentinel_last_success_timestamp_seconds", Help: "Unix time of the last completed iteration"},
		),
	}
	r.Registry.MustRegister(r.cycles, r.failures, r.logins, r.calls, r.callLatency, r.direction, r.lastSuccess)
	return r
}

func (r *PrometheusRecorder) RecordCycle(evt *CycleEvent) {
	if evt.Err != nil {
		r.cycles.WithLabelValues("failure").Inc()
		r.failures.WithLabelValues(evt.Stage, apperr.Kind(evt.Err)).Inc()
		return
	}
	r.cycles.WithLabelValues("success").Inc()
	r.lastSuccess.Set(float64(evt.At.Unix()))
	r.mu.Lock()
	r.last = evt.At
	r.mu.Unlock()
	if evt.Signal != nil {
		r.direction.WithLabelValues(evt.Instrument).Set(directionValue(evt.Signal.Direction))
	}
}

func (r *PrometheusRecorder) RecordLogin(evt *LoginEvent) {
	if evt.Err != nil {
		r.logins.WithLabelValues("failure", evt.Stage).Inc()
		return
	}
	r.logins.WithLabelValues("success", "").Inc()
}

func (r *PrometheusRecorder) RecordCall(evt *CallEvent) {
	r.calls.WithLabelValues(evt.Endpoint, apperr.Kind(evt.Err)).Inc()
	r.callLatency.WithLabelValues(evt.Endpoint).Observe(evt.Duration.Seconds())
}

// LastSuccess returns the time of the last completed iteration, zero if none.
func (r *PrometheusRecorder) LastSuccess() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func directionValue(d model.Direction) float64 {
	switch d {
	case model.DirectionLong:
		return 1
	case model.DirectionShort:
		return -1
	}
	return 0
}
