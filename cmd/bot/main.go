package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"FyersSentinel/internal/app"
	"FyersSentinel/internal/collector"
	"FyersSentinel/internal/config"
	"FyersSentinel/internal/logging"
	"FyersSentinel/internal/recorder"
	"FyersSentinel/internal/scheduler"
	"FyersSentinel/internal/server"
	"FyersSentinel/internal/strategy"
	"FyersSentinel/internal/trace"
)

var version = "dev"

func main() {
	forceLogin := flag.Bool("login", false, "log in even when a saved credential exists")
	flag.Parse()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		l := logging.New("info", "json")
		l.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	if err := run(cfg, log, *forceLogin); err != nil {
		log.Fatal().Err(err).Msg("FyersSentinel failed")
	}
	log.Info().Msg("FyersSentinel stopped")
}

// run owns every resource it opens, so they are released on both exit paths.
func run(cfg *config.Config, log zerolog.Logger, forceLogin bool) error {
	log.Info().Str("version", version).Str("instrument", cfg.Strategy.Instrument).Msg("FyersSentinel starting")

	if err := trace.Init(cfg.Log.Tracing, version); err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	var prom *recorder.PrometheusRecorder
	if cfg.Metrics.Addr != "" {
		prom = recorder.NewPrometheusRecorder()
		rec = prom
	}

	a, err := app.New(ctx, cfg, rec, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	if forceLogin && cfg.DataSource != "static" {
		if err := a.Session.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	name, err := a.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	log.Info().Str("profile", name).Msg("session ready")

	col := collector.NewCollector(a.Market, a.Clock, log)
	col.MaxSpanDays = cfg.HTTP.MaxSpanDays
	col.MaxRetries = cfg.HTTP.MaxRetries

	engine := strategy.NewEngine(cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
	engine.RSIPeriod = cfg.Strategy.RSIPeriod

	poller := scheduler.NewPoller(col, engine, a.Session, a.Sink, rec, a.Clock, log)
	poller.Instrument = cfg.Strategy.Instrument
	poller.Resolution = cfg.Strategy.Resolution
	poller.LookbackDays = cfg.Strategy.LookbackDays
	poller.Interval = cfg.Schedule.PollInterval
	poller.IterationTimeout = cfg.Schedule.IterationTimeout
	poller.Notify = cfg.Schedule.Notify
	poller.MaxIterations = cfg.Schedule.MaxIterations

	sched := scheduler.NewScheduler(poller, log)
	if cfg.DataSource != "static" {
		if err := sched.RegisterRelogin(cfg.Schedule.ReloginCron); err != nil {
			return err
		}
	}
	sched.Start()

	var srv *server.Server
	if prom != nil {
		srv = server.New(cfg.Metrics.Addr, prom.Registry, prom, 5*cfg.Schedule.PollInterval+cfg.Schedule.IterationTimeout, a.Clock, log)
		srv.Start()
	}

	err = poller.Run(ctx)
	log.Info().Msg("shutting down...")
	sched.Stop()
	shutdown(log, srv)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("polling: %w", err)
	}
	return nil
}

func shutdown(log zerolog.Logger, srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("ops server shutdown")
		}
	}
	if err := trace.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("trace shutdown")
	}
}
