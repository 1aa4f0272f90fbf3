package collector

import (
	"context"
	"time"

	"FyersSentinel/internal/model"
)

// MarketDataClient is the broker's authenticated read-only API.
// Errors wrap apperr.ErrAuthExpired, apperr.ErrRateLimited or apperr.ErrUnavailable where they apply.
type MarketDataClient interface {
	// FetchHistory returns raw candles for the inclusive date range [from, to].
	FetchHistory(ctx context.Context, instrument string, res model.Resolution, from, to time.Time) (model.RawHistory, error)
	Profile(ctx context.Context) (model.Profile, error)
	Funds(ctx context.Context) ([]model.FundLimit, error)
	Holdings(ctx context.Context) ([]model.Holding, error)
	Tradebook(ctx context.Context) ([]model.Trade, error)
	// Quotes returns one snapshot per symbol, in request order.
	Quotes(ctx context.Context, symbols []string) ([]model.Quote, error)
	Name() string
}

// TokenSource supplies the current access token.
type TokenSource interface {
	AccessToken() string
}
