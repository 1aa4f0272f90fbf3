package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp"

	"FyersSentinel/internal/clock"
)

// Base32 of the ASCII secret "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestEncodeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1234", "MTIzNA=="},
		{"XA12345", "WEExMjM0NQ=="},
		{"DK0001", "REswMDAx"},
		{"a", "YQ=="},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EncodeIdentifier(tt.in); got != tt.want {
			t.Errorf("EncodeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTOTPCode_RFC6238Vectors(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}
	for _, tt := range tests {
		got, err := TOTPCode(rfcSecret, time.Unix(tt.unix, 0), otp.DigitsEight)
		if err != nil {
			t.Fatalf("TOTPCode(%d): %v", tt.unix, err)
		}
		if got != tt.want {
			t.Errorf("TOTPCode(%d) = %s, want %s", tt.unix, got, tt.want)
		}
	}
}

func TestTOTPCode_SixDigits(t *testing.T) {
	got, err := TOTPCode(rfcSecret, time.Unix(59, 0), otp.DigitsSix)
	if err != nil {
		t.Fatal(err)
	}
	if got != "287082" {
		t.Errorf("got %s, want 287082", got)
	}
}

func TestTOTPCode_BadSecret(t *testing.T) {
	if _, err := TOTPCode("not base32!", time.Unix(59, 0), otp.DigitsSix); err == nil {
		t.Fatal("expected error for invalid secret")
	}
}

func TestFreshOTP_WaitsNearBoundary(t *testing.T) {
	// 28s into the step: 2s left, below the 3s floor.
	clk := clock.NewFake(time.Unix(30*1000+28, 0))
	code, err := freshOTP(context.Background(), clk, rfcSecret, 3*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	waits := clk.Waits()
	if len(waits) != 1 || waits[0] != 2*time.Second {
		t.Fatalf("waits = %v, want [2s]", waits)
	}
	want, _ := TOTPCode(rfcSecret, time.Unix(30*1001, 0), otp.DigitsSix)
	if code != want {
		t.Errorf("code = %s, want code of next step %s", code, want)
	}
}

func TestFreshOTP_NoWaitMidStep(t *testing.T) {
	clk := clock.NewFake(time.Unix(30*1000+5, 0))
	if _, err := freshOTP(context.Background(), clk, rfcSecret, 3*time.Second); err != nil {
		t.Fatal(err)
	}
	if waits := clk.Waits(); len(waits) != 0 {
		t.Errorf("unexpected waits %v", waits)
	}
}
