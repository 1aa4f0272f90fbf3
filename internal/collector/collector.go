package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/clock"
	"FyersSentinel/internal/model"
)

// Collector fetches a window of history, splitting it to respect the broker's per-request span.
type Collector struct {
	Client      MarketDataClient
	Builder     *Builder
	MaxSpanDays int // 0 uses the resolution's limit
	MaxRetries  int
	Backoff     time.Duration // first retry delay, doubled per attempt

	clock clock.Clock
	log   zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(client MarketDataClient, clk clock.Clock, log zerolog.Logger) *Collector {
	return &Collector{
		Client:     client,
		Builder:    &Builder{},
		MaxRetries: 2,
		Backoff:    time.Second,
		clock:      clk,
		log:        log.With().Str("component", "collector").Logger(),
	}
}

// Series fetches every sub-range of w in order and builds one series from them.
func (c *Collector) Series(ctx context.Context, instrument string, res model.Resolution, w model.Window) (*model.BarSeries, error) {
	span := c.MaxSpanDays
	if span <= 0 || span > res.MaxSpanDays() {
		span = res.MaxSpanDays()
	}
	parts := w.Split(span)
	if len(parts) > 1 {
		c.log.Debug().Str("instrument", instrument).Int("days", w.Days()).Int("parts", len(parts)).Msg("splitting history window")
	}

	raws := make([]model.RawHistory, 0, len(parts))
	for _, p := range parts {
		raw, err := c.fetch(ctx, instrument, res, p)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s..%s: %w", instrument, p.From.Format(time.DateOnly), p.To.Format(time.DateOnly), err)
		}
		raws = append(raws, raw)
	}
	return c.Builder.Build(instrument, res, w, raws...)
}

// fetch retries transient failures with exponential backoff. Auth, protocol and data
// errors return at once.
func (c *Collector) fetch(ctx context.Context, instrument string, res model.Resolution, w model.Window) (model.RawHistory, error) {
	var lastErr error
	for i := 0; i <= c.MaxRetries; i++ {
		raw, err := c.Client.FetchHistory(ctx, instrument, res, w.From, w.To)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !apperr.Retryable(err) || errors.Is(err, context.Canceled) || i == c.MaxRetries {
			break
		}
		backoff := c.Backoff * time.Duration(1<<uint(i))
		c.log.Warn().Err(err).Str("instrument", instrument).Str("kind", apperr.Kind(err)).
			Int("attempt", i+1).Dur("backoff", backoff).Msg("history fetch failed, retrying")
		select {
		case <-ctx.Done():
			return model.RawHistory{}, ctx.Err()
		case <-c.clock.After(backoff):
		}
	}
	return model.RawHistory{}, lastErr
}
