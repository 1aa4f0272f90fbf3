package auth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/clock"
	"FyersSentinel/internal/credential"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/trace"
)

// Stage is the position of a login attempt in the challenge sequence.
type Stage int

const (
	StageStart Stage = iota
	StageOtpSent
	StageOtpVerified
	StagePinVerified
	StageTokenIssued
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageOtpSent:
		return "otp_sent"
	case StageOtpVerified:
		return "otp_verified"
	case StagePinVerified:
		return "pin_verified"
	case StageTokenIssued:
		return "token_issued"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError reports the stage a login attempt was in when it failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("login failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Account is the login material for one broker account.
type Account struct {
	Username    string
	ClientID    string
	SecretKey   string
	RedirectURI string
	TOTPSecret  string
	PIN         string
	AppType     string
}

// AppID is the client id without its "-100" style app type suffix.
func (a Account) AppID() string {
	if len(a.ClientID) <= 4 {
		return a.ClientID
	}
	return a.ClientID[:len(a.ClientID)-4]
}

// challenge is threaded through the stage functions and never stored.
type challenge struct {
	requestKey string
	stage      Stage
}

// Flow runs the OTP/PIN login sequence.
type Flow struct {
	endpoints Endpoints
	account   Account
	store     credential.Store
	clock     clock.Clock
	log       zerolog.Logger

	// MinOTPValidity is the least time a generated code must have left before it is sent.
	MinOTPValidity time.Duration
}

func NewFlow(endpoints Endpoints, account Account, store credential.Store, clk clock.Clock, log zerolog.Logger) *Flow {
	if account.AppType == "" {
		account.AppType = "100"
	}
	return &Flow{
		endpoints:      endpoints,
		account:        account,
		store:          store,
		clock:          clk,
		log:            log.With().Str("component", "auth").Logger(),
		MinOTPValidity: 3 * time.Second,
	}
}

// Login performs every stage in order and persists the resulting credential.
// The first failing stage aborts the attempt; nothing is retried.
func (f *Flow) Login(ctx context.Context) (cred model.Credential, err error) {
	ctx, span := trace.StartSpan(ctx, "auth.Login")
	defer func() { trace.End(span, err) }()

	c, err := f.sendOTP(ctx)
	if err != nil {
		return model.Credential{}, f.fail(StageStart, err)
	}
	c, err = f.verifyOTP(ctx, c)
	if err != nil {
		return model.Credential{}, f.fail(StageOtpSent, err)
	}
	c, bearer, err := f.verifyPIN(ctx, c)
	if err != nil {
		return model.Credential{}, f.fail(StageOtpVerified, err)
	}
	code, err := f.authCode(ctx, c, bearer)
	if err != nil {
		return model.Credential{}, f.fail(StagePinVerified, err)
	}
	c, token, err := f.exchange(ctx, c, code)
	if err != nil {
		return model.Credential{}, f.fail(StagePinVerified, err)
	}

	cred = model.Credential{AuthorizationCode: code, AccessToken: token}
	if err := f.store.Save(ctx, cred); err != nil {
		return model.Credential{}, f.fail(c.stage, err)
	}
	f.log.Info().Str("stage", c.stage.String()).Msg("login complete, credential saved")
	return cred, nil
}

func (f *Flow) fail(stage Stage, err error) error {
	f.log.Error().Err(err).Str("stage", stage.String()).Str("kind", apperr.Kind(err)).Msg("login aborted")
	return &StageError{Stage: stage, Err: err}
}

func (f *Flow) sendOTP(ctx context.Context) (challenge, error) {
	ctx, span := trace.StartSpan(ctx, "auth.send_otp")
	defer span.End()

	key, err := f.endpoints.SendOTP(ctx, EncodeIdentifier(f.account.Username))
	if err != nil {
		return challenge{}, err
	}
	f.log.Debug().Msg("otp requested")
	return challenge{requestKey: key, stage: StageOtpSent}, nil
}

func (f *Flow) verifyOTP(ctx context.Context, c challenge) (challenge, error) {
	ctx, span := trace.StartSpan(ctx, "auth.verify_otp")
	defer span.End()

	if err := expect(c, StageOtpSent); err != nil {
		return challenge{}, err
	}
	code, err := freshOTP(ctx, f.clock, f.account.TOTPSecret, f.MinOTPValidity)
	if err != nil {
		return challenge{}, fmt.Errorf("generate totp: %w", err)
	}
	key, err := f.endpoints.VerifyOTP(ctx, c.requestKey, code)
	if err != nil {
		return challenge{}, err
	}
	f.log.Debug().Msg("otp verified")
	return challenge{requestKey: key, stage: StageOtpVerified}, nil
}

func (f *Flow) verifyPIN(ctx context.Context, c challenge) (challenge, string, error) {
	ctx, span := trace.StartSpan(ctx, "auth.verify_pin")
	defer span.End()

	if err := expect(c, StageOtpVerified); err != nil {
		return challenge{}, "", err
	}
	bearer, err := f.endpoints.VerifyPIN(ctx, c.requestKey, EncodeIdentifier(f.account.PIN))
	if err != nil {
		return challenge{}, "", err
	}
	f.log.Debug().Msg("pin verified")
	return challenge{requestKey: c.requestKey, stage: StagePinVerified}, bearer, nil
}

func (f *Flow) authCode(ctx context.Context, c challenge, bearer string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "auth.auth_code")
	defer span.End()

	if err := expect(c, StagePinVerified); err != nil {
		return "", err
	}
	redirect, err := f.endpoints.AuthCodeURL(ctx, bearer, AuthCodeRequest{
		FyersID:     f.account.Username,
		AppID:       f.account.AppID(),
		AppType:     f.account.AppType,
		RedirectURI: f.account.RedirectURI,
	})
	if err != nil {
		return "", err
	}
	return ParseAuthCode(redirect)
}

func (f *Flow) exchange(ctx context.Context, c challenge, code string) (challenge, string, error) {
	ctx, span := trace.StartSpan(ctx, "auth.exchange")
	defer span.End()

	if err := expect(c, StagePinVerified); err != nil {
		return challenge{}, "", err
	}
	token, err := f.endpoints.ExchangeCode(ctx, code, f.account.ClientID, f.account.SecretKey)
	if err != nil {
		return challenge{}, "", err
	}
	return challenge{stage: StageTokenIssued}, token, nil
}

func expect(c challenge, want Stage) error {
	if c.stage != want {
		return fmt.Errorf("challenge in stage %s, want %s: %w", c.stage, want, apperr.ErrProtocol)
	}
	return nil
}

// ParseAuthCode extracts the auth_code query parameter from the broker's redirect URL.
func ParseAuthCode(redirect string) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w: %w", apperr.ErrProtocol, err)
	}
	code := u.Query().Get("auth_code")
	if code == "" {
		return "", fmt.Errorf("redirect url has no auth_code: %w", apperr.ErrProtocol)
	}
	return code, nil
}
