package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FyersSentinel/internal/clock"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/recorder"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var now = time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC)

func setupServer(rec *recorder.PrometheusRecorder) *Server {
	return New(":0", rec.Registry, rec, time.Minute, clock.NewFake(now), zerolog.Nop())
}

func get(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		lastAt     time.Time
		wantCode   int
		wantStatus string
	}{
		{"no iteration yet", time.Time{}, http.StatusOK, "starting"},
		{"recent", now.Add(-20 * time.Second), http.StatusOK, "ok"},
		{"stale", now.Add(-5 * time.Minute), http.StatusServiceUnavailable, "stale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recorder.NewPrometheusRecorder()
			if !tt.lastAt.IsZero() {
				rec.RecordCycle(&recorder.CycleEvent{
					Iteration: 1, Instrument: "NSE:SBIN-EQ", At: tt.lastAt,
					Signal: &model.Signal{Instrument: "NSE:SBIN-EQ", Direction: model.DirectionLong},
				})
			}

			w := get(t, setupServer(rec), http.MethodGet, "/healthz")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			if !tt.lastAt.IsZero() {
				assert.Equal(t, tt.lastAt.Format(time.RFC3339), body["last_success"])
			}
		})
	}
}

func TestHealthz_HEAD(t *testing.T) {
	w := get(t, setupServer(recorder.NewPrometheusRecorder()), http.MethodHead, "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestMetrics(t *testing.T) {
	rec := recorder.NewPrometheusRecorder()
	rec.RecordCycle(&recorder.CycleEvent{
		Iteration: 1, Instrument: "NSE:SBIN-EQ", At: now,
		Signal: &model.Signal{Instrument: "NSE:SBIN-EQ", Direction: model.DirectionShort},
	})

	w := get(t, setupServer(rec), http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `sentinel_cycles_total{outcome="success"} 1`), body)
	assert.Contains(t, body, `sentinel_signal_direction{instrument="NSE:SBIN-EQ"} -1`)
}
