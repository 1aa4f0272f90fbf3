package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/credential"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/notifier"
	"FyersSentinel/internal/recorder"
)

// LoginRunner performs a full login and returns the new credential.
type LoginRunner interface {
	Login(ctx context.Context) (model.Credential, error)
}

// TokenSource exposes the current access token read-only.
type TokenSource interface {
	AccessToken() string
}

// Session owns the process's single access token. Only Restore and Login write it.
type Session struct {
	mu   sync.RWMutex
	cred model.Credential

	flow     LoginRunner
	store    credential.Store
	sink     notifier.Sink
	recorder recorder.Recorder
	log      zerolog.Logger
}

func NewSession(flow LoginRunner, store credential.Store, sink notifier.Sink, rec recorder.Recorder, log zerolog.Logger) *Session {
	return &Session{
		flow:     flow,
		store:    store,
		sink:     sink,
		recorder: rec,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// AccessToken returns the cached token, empty before the first Restore or Login.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.AccessToken
}

// Credential returns a copy of the current credential.
func (s *Session) Credential() model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// Restore loads a previously saved credential. It returns apperr.ErrNotFound when none exists.
func (s *Session) Restore(ctx context.Context) error {
	cred, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.set(cred)
	s.log.Info().Msg("credential restored from store")
	return nil
}

// Login runs the login flow, replaces the cached token and reports the outcome.
func (s *Session) Login(ctx context.Context) error {
	start := time.Now()
	cred, err := s.flow.Login(ctx)
	evt := &recorder.LoginEvent{Duration: time.Since(start), Err: err}
	var se *StageError
	if errors.As(err, &se) {
		evt.Stage = se.Stage.String()
	}
	s.recorder.RecordLogin(evt)
	if err != nil {
		return err
	}

	s.set(cred)
	if derr := s.sink.Deliver(ctx, notifier.FormatLogin(time.Now())); derr != nil {
		s.log.Warn().Err(derr).Msg("login notification not delivered")
	}
	return nil
}

// Ensure restores a saved credential, falling back to a fresh login when there is none
// or the stored record is unreadable.
func (s *Session) Ensure(ctx context.Context) error {
	err := s.Restore(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrNotFound):
		s.log.Info().Msg("no saved credential, logging in")
	case errors.Is(err, apperr.ErrStorage):
		s.log.Error().Err(err).Str("kind", apperr.Kind(err)).Msg("saved credential unusable, logging in again")
	default:
		return err
	}
	return s.Login(ctx)
}

func (s *Session) set(cred model.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
}
