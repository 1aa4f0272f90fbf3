// Package app wires configuration into the concrete components shared by the commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/auth"
	"FyersSentinel/internal/clock"
	"FyersSentinel/internal/collector"
	"FyersSentinel/internal/config"
	"FyersSentinel/internal/credential"
	"FyersSentinel/internal/notifier"
	"FyersSentinel/internal/recorder"
	"FyersSentinel/internal/transport"
)

// App holds the components every command needs.
type App struct {
	Config    *config.Config
	Transport *transport.Client
	Store     credential.Store
	Sink      notifier.Sink
	Telegram  *notifier.TelegramNotifier // nil when Telegram is not configured
	Recorder  recorder.Recorder
	Session   *auth.Session
	Market    collector.MarketDataClient
	Clock     clock.Clock

	closers []func() error
	log     zerolog.Logger
}

// New builds the shared components. Close releases whatever New opened.
func New(ctx context.Context, cfg *config.Config, rec recorder.Recorder, log zerolog.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Transport: transport.NewClient(cfg.HTTP.Proxy, cfg.HTTP.Timeout, cfg.HTTP.RequestsPerSecond),
		Recorder:  rec,
		Clock:     clock.Real{},
		log:       log,
	}

	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.Sink = a.newSink()

	endpoints := auth.NewFyersEndpoints(a.Transport, cfg.Broker.LoginBaseURL, cfg.Broker.APIBaseURL)
	flow := auth.NewFlow(endpoints, auth.Account{
		Username:    cfg.Broker.Username,
		ClientID:    cfg.Broker.ClientID,
		SecretKey:   cfg.Broker.SecretKey,
		RedirectURI: cfg.Broker.RedirectURI,
		TOTPSecret:  cfg.Broker.TOTPSecret,
		PIN:         cfg.Broker.PIN,
		AppType:     cfg.Broker.AppType,
	}, store, a.Clock, log)
	a.Session = auth.NewSession(flow, store, a.Sink, rec, log)

	var market collector.MarketDataClient
	if cfg.DataSource == "static" {
		market = collector.NewStaticClient(100)
	} else {
		market = collector.NewFyersClient(a.Transport, cfg.Broker.APIBaseURL, cfg.Broker.ClientID, a.Session)
	}
	a.Market = collector.Observe(market, rec, log)
	log.Info().Str("source", market.Name()).Str("credentials", cfg.Credentials.Backend).Msg("components ready")
	return a, nil
}

func (a *App) newStore(ctx context.Context) (credential.Store, error) {
	c := a.Config.Credentials
	if c.Backend != "redis" {
		return credential.NewFileStore(c.Path), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w: %w", c.RedisAddr, apperr.ErrStorage, err)
	}
	a.closers = append(a.closers, rdb.Close)
	return credential.NewRedisStore(rdb, c.RedisKey), nil
}

func (a *App) newSink() notifier.Sink {
	t := a.Config.Telegram
	if t.BotToken == "" {
		a.log.Warn().Msg("telegram not configured, notifications go to the log")
		return notifier.NewLogSink(a.log)
	}
	tn := notifier.NewTelegramNotifier(t.BotToken, t.ChatID, a.Config.HTTP.Proxy, a.log)
	if t.APIBaseURL != "" {
		tn.APIBase = t.APIBaseURL
	}
	a.Telegram = tn
	return tn
}

// Authenticate restores or creates a session and confirms it against the profile endpoint,
// logging in again once if the broker rejects the token.
func (a *App) Authenticate(ctx context.Context) (profileName string, err error) {
	if a.Config.DataSource == "static" {
		return "static", nil
	}
	if err := a.Session.Ensure(ctx); err != nil {
		return "", err
	}
	p, err := a.Market.Profile(ctx)
	if errors.Is(err, apperr.ErrAuthExpired) {
		a.log.Warn().Err(err).Msg("saved token rejected, logging in again")
		if err := a.Session.Login(ctx); err != nil {
			return "", err
		}
		p, err = a.Market.Profile(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("profile check: %w", err)
	}
	return p.Name, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
}
