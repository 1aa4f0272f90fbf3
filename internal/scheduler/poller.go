package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/auth"
	"FyersSentinel/internal/clock"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/notifier"
	"FyersSentinel/internal/recorder"
	"FyersSentinel/internal/strategy"
	"FyersSentinel/internal/trace"
)

// Iteration stages reported on failure.
const (
	StageRelogin = "relogin"
	StageFetch   = "fetch"
	StageNotify  = "notify"
)

// Notify modes.
const (
	NotifyNever    = "never"
	NotifyOnChange = "on_change"
	NotifyAlways   = "always"
)

// SeriesSource produces the bar series for one window.
type SeriesSource interface {
	Series(ctx context.Context, instrument string, res model.Resolution, w model.Window) (*model.BarSeries, error)
}

// Authenticator re-runs the login flow and installs the new token.
type Authenticator interface {
	Login(ctx context.Context) error
}

// Poller runs the fetch, evaluate and notify cycle with a fixed pause between iterations.
// Iterations never overlap and a failed one never stops the loop.
type Poller struct {
	Instrument       string
	Resolution       model.Resolution
	LookbackDays     int
	Interval         time.Duration
	IterationTimeout time.Duration
	Notify           string
	MaxIterations    int // 0 runs until ctx is done

	source   SeriesSource
	engine   *strategy.Engine
	session  Authenticator
	sink     notifier.Sink
	recorder recorder.Recorder
	clock    clock.Clock
	log      zerolog.Logger

	relogin  atomic.Bool
	notified bool
	lastDir  model.Direction
}

// NewPoller creates a Poller with a 10s interval that notifies on direction changes.
func NewPoller(source SeriesSource, engine *strategy.Engine, session Authenticator, sink notifier.Sink,
	rec recorder.Recorder, clk clock.Clock, log zerolog.Logger) *Poller {
	return &Poller{
		Resolution:   "5",
		LookbackDays: 5,
		Interval:     10 * time.Second,
		Notify:       NotifyOnChange,
		source:       source,
		engine:       engine,
		session:      session,
		sink:         sink,
		recorder:     rec,
		clock:        clk,
		log:          log.With().Str("component", "poller").Logger(),
	}
}

// RequestRelogin makes the next iteration log in again before fetching.
// Safe to call from any goroutine.
func (p *Poller) RequestRelogin() {
	p.relogin.Store(true)
}

// Run loops until ctx is done or MaxIterations have run. The stop signal is checked
// between iterations only; an iteration in flight is bounded by IterationTimeout.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().
		Str("instrument", p.Instrument).
		Str("resolution", string(p.Resolution)).
		Dur("interval", p.Interval).
		Str("notify", p.Notify).
		Msg("polling started")

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			p.log.Info().Int("iterations", n-1).Msg("polling stopped")
			return err
		}
		p.iterate(ctx, n)
		if p.MaxIterations > 0 && n >= p.MaxIterations {
			p.log.Info().Int("iterations", n).Msg("iteration limit reached")
			return nil
		}
		select {
		case <-ctx.Done():
		case <-p.clock.After(p.Interval):
		}
	}
}

func (p *Poller) iterate(ctx context.Context, n int) {
	start := p.clock.Now()
	ctx, span := trace.StartSpan(ctx, "poller.iteration")
	if p.IterationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.IterationTimeout)
		defer cancel()
	}

	sig, stage, err := p.cycle(ctx)
	trace.End(span, err)

	evt := &recorder.CycleEvent{
		Iteration:  n,
		Instrument: p.Instrument,
		Err:        err,
		Duration:   p.clock.Now().Sub(start),
		At:         start,
	}
	if err == nil {
		evt.Signal = &sig
		p.recorder.RecordCycle(evt)
		return
	}

	evt.Stage = stage
	p.recorder.RecordCycle(evt)
	kind := apperr.Kind(err)
	if errors.Is(err, apperr.ErrAuthExpired) {
		p.relogin.Store(true)
	}
	p.log.Error().Err(err).
		Int("iteration", n).
		Str("stage", stage).
		Str("instrument", p.Instrument).
		Str("kind", kind).
		Msg("iteration failed")

	if p.Notify == NotifyNever || errors.Is(err, context.Canceled) {
		return
	}
	text := notifier.FormatFailure(n, stage, p.Instrument, kind, err)
	var se *auth.StageError
	if errors.As(err, &se) {
		text = notifier.FormatLoginFailure(se.Stage.String(), kind, err)
	}
	// the iteration context may already be spent
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if derr := p.sink.Deliver(dctx, text); derr != nil {
		p.log.Warn().Err(derr).Int("iteration", n).Msg("failure notification not delivered")
	}
}

func (p *Poller) cycle(ctx context.Context) (model.Signal, string, error) {
	if p.relogin.Swap(false) {
		p.log.Info().Msg("logging in again before fetch")
		if err := p.session.Login(ctx); err != nil {
			p.relogin.Store(true)
			return model.Signal{}, StageRelogin, err
		}
	}

	w := model.NewWindow(model.Naive(p.clock.Now()), p.LookbackDays)
	series, err := p.source.Series(ctx, p.Instrument, p.Resolution, w)
	if err != nil {
		return model.Signal{}, StageFetch, err
	}

	sig := p.engine.Evaluate(series, p.clock.Now())
	changed := p.notified && sig.Direction != p.lastDir
	p.log.Info().
		Str("instrument", sig.Instrument).
		Str("direction", string(sig.Direction)).
		Float64("close", sig.Close).
		Float64("ema_short", sig.ShortEMA).
		Float64("ema_long", sig.LongEMA).
		Float64("rsi", sig.RSI).
		Int("bars", sig.Bars).
		Bool("changed", changed).
		Msg("signal")

	if err := p.notify(ctx, &sig); err != nil {
		return sig, StageNotify, err
	}
	return sig, "", nil
}

func (p *Poller) notify(ctx context.Context, sig *model.Signal) error {
	changed := !p.notified || sig.Direction != p.lastDir
	switch p.Notify {
	case NotifyNever:
		return nil
	case NotifyOnChange:
		if !changed {
			return nil
		}
	}
	if err := p.sink.Deliver(ctx, notifier.FormatSignal(sig, p.notified && changed)); err != nil {
		return err
	}
	p.notified = true
	p.lastDir = sig.Direction
	return nil
}
