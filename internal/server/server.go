// Package server exposes the bot's health and metrics over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"FyersSentinel/internal/clock"
)

// HealthSource reports when the poller last completed an iteration.
type HealthSource interface {
	LastSuccess() time.Time
}

// Server is the ops endpoint: GET /healthz and GET /metrics.
type Server struct {
	StaleAfter time.Duration

	http   *http.Server
	health HealthSource
	clock  clock.Clock
	log    zerolog.Logger
}

// New builds the router. An iteration older than staleAfter turns /healthz into a 503.
func New(addr string, reg *prometheus.Registry, health HealthSource, staleAfter time.Duration, clk clock.Clock, log zerolog.Logger) *Server {
	s := &Server{
		StaleAfter: staleAfter,
		health:     health,
		clock:      clk,
		log:        log.With().Str("component", "server").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.healthz)
	r.HEAD("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("ops server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("ops server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) healthz(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	last := s.health.LastSuccess()
	status, code := "ok", http.StatusOK
	switch {
	case last.IsZero():
		status = "starting"
	case s.StaleAfter > 0 && s.clock.Now().Sub(last) > s.StaleAfter:
		status, code = "stale", http.StatusServiceUnavailable
	}

	if c.Request.Method == http.MethodHead {
		c.Status(code)
		return
	}
	body := gin.H{"status": status}
	if !last.IsZero() {
		body["last_success"] = last.UTC().Format(time.RFC3339)
	}
	c.JSON(code, body)
}
