package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"FyersSentinel/internal/model"
)

// ReloginRequester is told when a scheduled re-login is due.
type ReloginRequester interface {
	RequestRelogin()
}

// Scheduler manages the cron tasks. Jobs only raise flags; the poller acts on them.
type Scheduler struct {
	Cron   *cron.Cron
	target ReloginRequester
	log    zerolog.Logger
}

// NewScheduler creates a Scheduler whose expressions take a seconds field and run in IST.
func NewScheduler(target ReloginRequester, log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: l}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(model.IST),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		target: target,
		log:    l,
	}
}

// RegisterRelogin schedules the daily token refresh.
func (s *Scheduler) RegisterRelogin(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.reloginTask); err != nil {
		return fmt.Errorf("register relogin task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) reloginTask() {
	s.log.Info().Msg("scheduled re-login requested")
	s.target.RequestRelogin()
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
