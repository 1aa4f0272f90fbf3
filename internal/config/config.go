package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pquerna/otp/totp"
	"gopkg.in/yaml.v3"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/collector"
	"FyersSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Broker struct {
		Username     string `yaml:"username"`
		ClientID     string `yaml:"client_id"`
		SecretKey    string `yaml:"secret_key"`
		RedirectURI  string `yaml:"redirect_uri"`
		TOTPSecret   string `yaml:"totp_secret"`
		PIN          string `yaml:"pin"`
		AppType      string `yaml:"app_type"`
		LoginBaseURL string `yaml:"login_base_url"`
		APIBaseURL   string `yaml:"api_base_url"`
	} `yaml:"broker"`
	Telegram struct {
		BotToken   string `yaml:"bot_token"`
		ChatID     string `yaml:"chat_id"`
		APIBaseURL string `yaml:"api_base_url"`
	} `yaml:"telegram"`
	Strategy struct {
		Instrument   string           `yaml:"instrument"`
		Exchange     string           `yaml:"exchange"`
		Symbol       string           `yaml:"symbol"`
		SecType      string           `yaml:"sec_type"`
		Resolution   model.Resolution `yaml:"resolution"`
		LookbackDays int              `yaml:"lookback_days"`
		ShortWindow  int              `yaml:"short_window"`
		LongWindow   int              `yaml:"long_window"`
		RSIPeriod    int              `yaml:"rsi_period"`
	} `yaml:"strategy"`
	Schedule struct {
		PollInterval     time.Duration `yaml:"poll_interval"`
		IterationTimeout time.Duration `yaml:"iteration_timeout"`
		MaxIterations    int           `yaml:"max_iterations"`
		ReloginCron      string        `yaml:"relogin_cron"`
		Notify           string        `yaml:"notify"`
	} `yaml:"schedule"`
	Credentials struct {
		Backend       string `yaml:"backend"`
		Path          string `yaml:"path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		RedisKey      string `yaml:"redis_key"`
	} `yaml:"credentials"`
	HTTP struct {
		Timeout           time.Duration `yaml:"timeout"`
		Proxy             string        `yaml:"proxy"`
		MaxRetries        int           `yaml:"max_retries"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		MaxSpanDays       int           `yaml:"max_span_days"`
	} `yaml:"http"`
	Log struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Tracing bool   `yaml:"tracing"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	DataSource string `yaml:"data_source"`
}

// Load decodes a YAML file over the defaults, then applies .env and environment variable overrides.
// A missing file is not an error; Validate reports what is still absent.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w: %w", apperr.ErrConfig, err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(cfg)
	resolveInstrument(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := map[string]*string{
		"FYERS_USERNAME":     &cfg.Broker.Username,
		"FYERS_CLIENT_ID":    &cfg.Broker.ClientID,
		"FYERS_SECRET_KEY":   &cfg.Broker.SecretKey,
		"FYERS_REDIRECT_URI": &cfg.Broker.RedirectURI,
		"FYERS_TOTP_SECRET":  &cfg.Broker.TOTPSecret,
		"FYERS_PIN":          &cfg.Broker.PIN,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"HTTPS_PROXY":        &cfg.HTTP.Proxy,
		"LOG_LEVEL":          &cfg.Log.Level,
		"REDIS_ADDR":         &cfg.Credentials.RedisAddr,
		"INSTRUMENT":         &cfg.Strategy.Instrument,
		"DATA_SOURCE":        &cfg.DataSource,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.MaxIterations = n
		}
	}
}

// defaults is the starting point the YAML file is decoded onto, so a key present in the
// file wins even when its value is zero (max_retries: 0 disables retries).
func defaults() *Config {
	cfg := &Config{}
	cfg.Broker.AppType = "100"
	cfg.Strategy.Resolution = "5"
	cfg.Strategy.LookbackDays = 5
	cfg.Strategy.ShortWindow = 3
	cfg.Strategy.LongWindow = 30
	cfg.Strategy.RSIPeriod = 14
	cfg.Schedule.PollInterval = 10 * time.Second
	cfg.Schedule.IterationTimeout = 2 * time.Minute
	cfg.Schedule.ReloginCron = "0 45 8 * * 1-5"
	cfg.Schedule.Notify = "on_change"
	cfg.Credentials.Backend = "file"
	cfg.Credentials.Path = "auth_tokens.json"
	cfg.HTTP.Timeout = 15 * time.Second
	cfg.HTTP.MaxRetries = 2
	cfg.HTTP.RequestsPerSecond = 5
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.DataSource = "live"
	return cfg
}

// resolveInstrument fills the instrument from exchange/symbol/sec_type when it was not given.
func resolveInstrument(cfg *Config) {
	if cfg.Strategy.Instrument != "" {
		return
	}
	if cfg.Strategy.Symbol != "" {
		cfg.Strategy.Instrument = collector.Ticker(
			orDefault(cfg.Strategy.Exchange, "NSE"), cfg.Strategy.Symbol, orDefault(cfg.Strategy.SecType, "EQ"))
		return
	}
	cfg.Strategy.Instrument = "NSE:NIFTYBANK-INDEX"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Validate checks that all required fields are set. Every error wraps apperr.ErrConfig.
func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{"broker.username", c.Broker.Username},
		{"broker.client_id", c.Broker.ClientID},
		{"broker.secret_key", c.Broker.SecretKey},
		{"broker.redirect_uri", c.Broker.RedirectURI},
		{"broker.totp_secret", c.Broker.TOTPSecret},
		{"broker.pin", c.Broker.PIN},
	}
	if c.DataSource != "static" {
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("%s is required: %w", r.name, apperr.ErrConfig)
			}
		}
		if _, err := totp.GenerateCode(c.Broker.TOTPSecret, time.Now()); err != nil {
			return fmt.Errorf("broker.totp_secret is not valid base32: %w", apperr.ErrConfig)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together: %w", apperr.ErrConfig)
	}
	if !strings.Contains(c.Strategy.Instrument, ":") {
		return fmt.Errorf("strategy.instrument %q must look like EXCHANGE:SYMBOL-TYPE: %w", c.Strategy.Instrument, apperr.ErrConfig)
	}
	if c.Strategy.Resolution.Step() == 0 {
		return fmt.Errorf("strategy.resolution %q is not supported: %w", c.Strategy.Resolution, apperr.ErrConfig)
	}
	if c.Strategy.ShortWindow <= 0 || c.Strategy.LongWindow <= 0 {
		return fmt.Errorf("strategy windows must be positive: %w", apperr.ErrConfig)
	}
	if c.Strategy.ShortWindow >= c.Strategy.LongWindow {
		return fmt.Errorf("strategy.short_window must be below strategy.long_window: %w", apperr.ErrConfig)
	}
	if c.Strategy.RSIPeriod < 0 {
		return fmt.Errorf("strategy.rsi_period must not be negative (0 disables RSI): %w", apperr.ErrConfig)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must not be negative (0 disables retries): %w", apperr.ErrConfig)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive: %w", apperr.ErrConfig)
	}
	if c.Strategy.LookbackDays <= 0 {
		return fmt.Errorf("strategy.lookback_days must be positive: %w", apperr.ErrConfig)
	}
	if c.Schedule.PollInterval <= 0 {
		return fmt.Errorf("schedule.poll_interval must be positive: %w", apperr.ErrConfig)
	}
	if c.Schedule.MaxIterations < 0 {
		return fmt.Errorf("schedule.max_iterations must not be negative: %w", apperr.ErrConfig)
	}
	switch c.Schedule.Notify {
	case "never", "on_change", "always":
	default:
		return fmt.Errorf("schedule.notify %q must be never, on_change or always: %w", c.Schedule.Notify, apperr.ErrConfig)
	}
	switch c.Credentials.Backend {
	case "file":
	case "redis":
		if c.Credentials.RedisAddr == "" {
			return fmt.Errorf("credentials.redis_addr is required for the redis backend: %w", apperr.ErrConfig)
		}
	default:
		return fmt.Errorf("credentials.backend %q must be file or redis: %w", c.Credentials.Backend, apperr.ErrConfig)
	}
	switch c.DataSource {
	case "live", "static":
	default:
		return fmt.Errorf("data_source %q must be live or static: %w", c.DataSource, apperr.ErrConfig)
	}
	return nil
}
