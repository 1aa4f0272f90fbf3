package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/recorder"
	"FyersSentinel/internal/trace"
)

// observedClient wraps a MarketDataClient with a span, a log line and a metric per call.
type observedClient struct {
	next     MarketDataClient
	recorder recorder.Recorder
	log      zerolog.Logger
}

var _ MarketDataClient = (*observedClient)(nil)

// Observe wraps client with tracing, logging and call metrics.
func Observe(client MarketDataClient, rec recorder.Recorder, log zerolog.Logger) MarketDataClient {
	return &observedClient{
		next:     client,
		recorder: rec,
		log:      log.With().Str("component", "broker").Str("source", client.Name()).Logger(),
	}
}

func (o *observedClient) Name() string { return o.next.Name() }

func (o *observedClient) done(endpoint string, start time.Time, err error) {
	d := time.Since(start)
	o.recorder.RecordCall(&recorder.CallEvent{Endpoint: endpoint, Err: err, Duration: d})
	if err != nil {
		o.log.Error().Err(err).Str("endpoint", endpoint).Str("kind", apperr.Kind(err)).Dur("took", d).Msg("broker call failed")
		return
	}
	o.log.Debug().Str("endpoint", endpoint).Dur("took", d).Msg("broker call ok")
}

func (o *observedClient) FetchHistory(ctx context.Context, instrument string, res model.Resolution, from, to time.Time) (raw model.RawHistory, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.FetchHistory")
	span.SetAttributes(
		attribute.String("instrument", instrument),
		attribute.String("resolution", string(res)),
		attribute.String("from", from.Format(time.DateOnly)),
		attribute.String("to", to.Format(time.DateOnly)),
	)
	defer func(start time.Time) {
		o.done("history", start, err)
		trace.End(span, err)
	}(time.Now())
	return o.next.FetchHistory(ctx, instrument, res, from, to)
}

func (o *observedClient) Profile(ctx context.Context) (p model.Profile, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Profile")
	defer func(start time.Time) {
		o.done("profile", start, err)
		trace.End(span, err)
	}(time.Now())
	return o.next.Profile(ctx)
}

func (o *observedClient) Funds(ctx context.Context) (f []model.FundLimit, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Funds")
	defer func(start time.Time) {
		o.done("funds", start, err)
		trace.End(span, err)
	}(time.Now())
	return o.next.Funds(ctx)
}

func (o *observedClient) Holdings(ctx context.Context) (h []model.Holding, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Holdings")
	defer func(start time.Time) {
		o.done("holdings", start, err)
		trace.End(span, err)
	}(time.Now())
	return o.next.Holdings(ctx)
}

func (o *observedClient) Tradebook(ctx context.Context) (t []model.Trade, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Tradebook")
	defer func(start time.Time) {
		o.done("tradebook", start, err)
		trace.End(span, err)
	}(time.Now())
	return o.next.Tradebook(ctx)
}

func (o *observedClient) Quotes(ctx context.Context, symbols []string) (q []model.Quote, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Quotes")
	span.SetAttributes(attribute.StringSlice("symbols", symbols))
	defer func(start time.Time) {
		o.done("quotes", start, err)
		trace.End(span, err)
	}(time.Now())
	return o.next.Quotes(ctx, symbols)
}
