// Command login performs one full broker login, saves the credential and prints the account summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"FyersSentinel/internal/app"
	"FyersSentinel/internal/config"
	"FyersSentinel/internal/logging"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/notifier"
	"FyersSentinel/internal/recorder"
)

func main() {
	quotes := flag.String("quotes", "", "comma separated symbols to quote (default: the configured instrument)")
	report := flag.Bool("report", false, "send holdings and trades as a CSV document to Telegram")
	flag.Parse()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		l := logging.New("info", "console")
		l.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Log.Level, "console")
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	symbols := []string{cfg.Strategy.Instrument}
	if *quotes != "" {
		symbols = strings.Split(*quotes, ",")
	}
	if err := run(cfg, log, symbols, *report); err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger, symbols []string, report bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, recorder.NewNoopRecorder(), log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	if cfg.DataSource != "static" {
		if err := a.Session.Login(ctx); err != nil {
			return err
		}
		log.Info().Str("path", cfg.Credentials.Path).Str("backend", cfg.Credentials.Backend).Msg("credential saved")
	}

	profile, err := a.Market.Profile(ctx)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	log.Info().Str("fy_id", profile.FyID).Str("name", profile.Name).Str("email", profile.EmailID).Msg("profile")

	funds, err := a.Market.Funds(ctx)
	if err != nil {
		log.Error().Err(err).Msg("funds")
	}
	for _, f := range funds {
		log.Info().Str("title", f.Title).Float64("equity", f.EquityAmount).Float64("commodity", f.CommodityAmount).Msg("fund")
	}

	holdings, err := a.Market.Holdings(ctx)
	if err != nil {
		log.Error().Err(err).Msg("holdings")
	}
	for _, h := range holdings {
		log.Info().Str("symbol", h.Symbol).Int64("qty", h.Quantity).Float64("ltp", h.LTP).Float64("pl", h.PL).Msg("holding")
	}

	trades, err := a.Market.Tradebook(ctx)
	if err != nil {
		log.Error().Err(err).Msg("tradebook")
	}
	for _, t := range trades {
		log.Info().Str("symbol", t.Symbol).Int("side", t.Side).Int64("qty", t.Quantity).Float64("price", t.Price).Str("at", t.TradedAt).Msg("trade")
	}

	qs, err := a.Market.Quotes(ctx, symbols)
	if err != nil {
		log.Error().Err(err).Strs("symbols", symbols).Msg("quotes")
	}
	for _, q := range qs {
		log.Info().Str("symbol", q.Symbol).Float64("ltp", q.LastPrice).Float64("chp", q.ChangePct).
			Float64("bid", q.Bid).Float64("ask", q.Ask).Int64("volume", q.Volume).Msg("quote")
	}

	if report {
		return sendReport(ctx, a, holdings, trades)
	}
	return nil
}

func sendReport(ctx context.Context, a *app.App, holdings []model.Holding, trades []model.Trade) error {
	if a.Telegram == nil {
		return fmt.Errorf("report requested but telegram is not configured")
	}
	doc, err := notifier.AccountReport(holdings, trades)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	day := model.Naive(a.Clock.Now()).Format(time.DateOnly)
	return a.Telegram.SendDocument(ctx, "account_"+day+".csv", doc, "Account report "+day)
}
