package auth

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"FyersSentinel/internal/clock"
)

const otpPeriod = 30 * time.Second

// EncodeIdentifier applies the broker's transport encoding for account ids and PINs:
// standard base64 over the ASCII bytes.
func EncodeIdentifier(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// TOTPCode returns the RFC 6238 code (30s step, SHA1) for a base32 secret at t.
func TOTPCode(secret string, t time.Time, digits otp.Digits) (string, error) {
	return totp.GenerateCodeCustom(secret, t, totp.ValidateOpts{
		Period:    uint(otpPeriod / time.Second),
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// otpRemaining is how long the code for t stays valid.
func otpRemaining(t time.Time) time.Duration {
	return otpPeriod - time.Duration(t.UnixNano()%int64(otpPeriod))
}

// freshOTP waits out the tail of the current step when less than minValidity remains,
// so the code is not already stale when the broker checks it.
func freshOTP(ctx context.Context, clk clock.Clock, secret string, minValidity time.Duration) (string, error) {
	now := clk.Now()
	if rem := otpRemaining(now); rem < minValidity {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-clk.After(rem):
		}
		now = clk.Now()
	}
	return TOTPCode(secret, now, otp.DigitsSix)
}
