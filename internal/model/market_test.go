package model

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestWindowSplit(t *testing.T) {
	tests := []struct {
		name    string
		w       Window
		maxDays int
		want    []Window
	}{
		{
			name:    "fits",
			w:       Window{day(2024, 1, 1), day(2024, 1, 5)},
			maxDays: 100,
			want:    []Window{{day(2024, 1, 1), day(2024, 1, 5)}},
		},
		{
			name:    "exact multiple",
			w:       Window{day(2024, 1, 1), day(2024, 1, 4)},
			maxDays: 2,
			want:    []Window{{day(2024, 1, 1), day(2024, 1, 2)}, {day(2024, 1, 3), day(2024, 1, 4)}},
		},
		{
			name:    "remainder",
			w:       Window{day(2024, 2, 27), day(2024, 3, 3)},
			maxDays: 3,
			want:    []Window{{day(2024, 2, 27), day(2024, 2, 29)}, {day(2024, 3, 1), day(2024, 3, 3)}},
		},
		{
			name:    "single day",
			w:       Window{day(2024, 1, 1), day(2024, 1, 1)},
			maxDays: 1,
			want:    []Window{{day(2024, 1, 1), day(2024, 1, 1)}},
		},
	}
	for _, tt := range tests {
		got := tt.w.Split(tt.maxDays)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: got %d parts %v, want %d", tt.name, len(got), got, len(tt.want))
		}
		for i := range got {
			if !got[i].From.Equal(tt.want[i].From) || !got[i].To.Equal(tt.want[i].To) {
				t.Errorf("%s: part %d = %v, want %v", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestWindowDaysAndContains(t *testing.T) {
	w := NewWindow(time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC), 5)
	if !w.From.Equal(day(2024, 3, 5)) || !w.To.Equal(day(2024, 3, 10)) {
		t.Fatalf("NewWindow = %v", w)
	}
	if w.Days() != 6 {
		t.Errorf("Days = %d, want 6", w.Days())
	}
	if !w.Contains(time.Date(2024, 3, 10, 15, 29, 0, 0, time.UTC)) {
		t.Error("last day should be inside")
	}
	if w.Contains(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Error("day after should be outside")
	}
}

func TestNaive(t *testing.T) {
	got := Naive(time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
	want := time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("Naive = %v, want %v", got, want)
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		r        Resolution
		intraday bool
		span     int
		step     time.Duration
	}{
		{"1", true, 100, time.Minute},
		{"5", true, 100, 5 * time.Minute},
		{"240", true, 100, 4 * time.Hour},
		{"D", false, 366, 24 * time.Hour},
		{"1D", false, 366, 24 * time.Hour},
		{"abc", true, 100, 0},
	}
	for _, tt := range tests {
		if tt.r.IsIntraday() != tt.intraday || tt.r.MaxSpanDays() != tt.span || tt.r.Step() != tt.step {
			t.Errorf("%q: intraday=%v span=%d step=%v", tt.r, tt.r.IsIntraday(), tt.r.MaxSpanDays(), tt.r.Step())
		}
	}
}

func TestCredentialValid(t *testing.T) {
	if (Credential{AuthorizationCode: "a"}).Valid() {
		t.Error("partial credential reported valid")
	}
	if !(Credential{AuthorizationCode: "a", AccessToken: "b"}).Valid() {
		t.Error("complete credential reported invalid")
	}
}
