package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("history: %w", ErrAuthExpired), "auth_expired"},
		{fmt.Errorf("history: %w", ErrRateLimited), "rate_limited"},
		{fmt.Errorf("history: %w", ErrUnavailable), "unavailable"},
		{fmt.Errorf("history: %w", context.DeadlineExceeded), "unavailable"},
		{ErrTransientNetwork, "transient_network"},
		{fmt.Errorf("token: %w", ErrProtocol), "protocol"},
		{fmt.Errorf("row 3: %w", ErrData), "data"},
		{fmt.Errorf("broker.pin: %w", ErrConfig), "config"},
		{fmt.Errorf("decode: %w", ErrStorage), "storage"},
		{ErrNotFound, "not_found"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUnavailableIsTransient(t *testing.T) {
	if !errors.Is(ErrUnavailable, ErrTransientNetwork) {
		t.Fatal("ErrUnavailable should wrap ErrTransientNetwork")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(fmt.Errorf("x: %w", ErrUnavailable)) {
		t.Error("unavailable should be retryable")
	}
	if !Retryable(ErrRateLimited) {
		t.Error("rate limited should be retryable")
	}
	for _, err := range []error{ErrAuthExpired, ErrProtocol, ErrData, ErrConfig} {
		if Retryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}
