// Package apperr defines the error kinds shared by the broker, storage and polling layers.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTransientNetwork = errors.New("transient network error")
	// ErrUnavailable is a transient failure (timeout or 5xx) of a specific call.
	ErrUnavailable = fmt.Errorf("%w: service unavailable", ErrTransientNetwork)
	ErrAuthExpired = errors.New("access token rejected")
	ErrRateLimited = errors.New("rate limited")
	ErrProtocol    = errors.New("unexpected response shape")
	ErrData        = errors.New("malformed bar data")
	ErrConfig      = errors.New("invalid configuration")
	ErrStorage     = errors.New("credential storage error")
	ErrNotFound    = errors.New("not found")
)

// Kind returns a stable label for err, suitable for log fields and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "unavailable"
	case errors.Is(err, ErrTransientNetwork):
		return "transient_network"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrData):
		return "data"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether a call-site retry with backoff may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork) || errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}
