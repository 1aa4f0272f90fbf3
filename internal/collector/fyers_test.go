package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/transport"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc) *FyersClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewFyersClient(transport.NewClient("", time.Second, 0), srv.URL, "ABCD1234-100", staticToken("tok"))
}

func TestFyersClient_FetchHistory(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/history", r.URL.Path)
		assert.Equal(t, "ABCD1234-100:tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "NSE:NIFTYBANK-INDEX", q.Get("symbol"))
		assert.Equal(t, "5", q.Get("resolution"))
		assert.Equal(t, "1", q.Get("date_format"))
		assert.Equal(t, "2024-01-01", q.Get("range_from"))
		assert.Equal(t, "2024-01-05", q.Get("range_to"))
		assert.Equal(t, "1", q.Get("cont_flag"))
		_, _ = w.Write([]byte(`{"s":"ok","candles":[[1704079800,1,2,0.5,1.5,100]]}`))
	})

	raw, err := c.FetchHistory(context.Background(), "NSE:NIFTYBANK-INDEX", "5",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ok", raw.Status)
	assert.JSONEq(t, `[[1704079800,1,2,0.5,1.5,100]]`, string(raw.Candles))
}

func TestFyersClient_ErrorMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"http 401", http.StatusUnauthorized, `{"s":"error","code":-16,"message":"Could not authenticate the user"}`, apperr.ErrAuthExpired},
		{"body -16", http.StatusOK, `{"s":"error","code":-16,"message":"Could not authenticate the user"}`, apperr.ErrAuthExpired},
		{"body -15", http.StatusOK, `{"s":"error","code":-15,"message":"token expired"}`, apperr.ErrAuthExpired},
		{"http 429", http.StatusTooManyRequests, `{"s":"error","code":429}`, apperr.ErrRateLimited},
		{"body 429", http.StatusOK, `{"s":"error","code":429,"message":"request limit reached"}`, apperr.ErrRateLimited},
		{"http 503", http.StatusServiceUnavailable, `upstream down`, apperr.ErrUnavailable},
		{"garbage", http.StatusOK, `<html/>`, apperr.ErrProtocol},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.FetchHistory(context.Background(), "X", "5", time.Now(), time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFyersClient_UnknownBrokerError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"error","code":-300,"message":"Invalid symbol"}`))
	})
	_, err := c.FetchHistory(context.Background(), "NSE:NOPE-EQ", "5", time.Now(), time.Now())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -300, apiErr.Code)
	assert.Equal(t, "unknown", apperr.Kind(err))
}

func TestFyersClient_AccountCalls(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/profile":
			_, _ = w.Write([]byte(`{"s":"ok","code":200,"data":{"fy_id":"XA12345","name":"TEST USER","totp":true}}`))
		case "/api/v3/funds":
			_, _ = w.Write([]byte(`{"s":"ok","code":200,"fund_limit":[{"id":10,"title":"Available Balance","equityAmount":1500.5}]}`))
		case "/api/v3/holdings":
			_, _ = w.Write([]byte(`{"s":"ok","code":200,"holdings":[{"symbol":"NSE:SBIN-EQ","quantity":10,"costPrice":550.25}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	p, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "XA12345", p.FyID)
	assert.True(t, p.TOTPEnabled)

	funds, err := c.Funds(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, 1500.5, funds[0].EquityAmount)

	holdings, err := c.Holdings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, int64(10), holdings[0].Quantity)
}

func TestFyersClient_ProfileWithoutData(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"ok","code":200}`))
	})
	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, apperr.ErrProtocol)
}

func TestFyersClient_Quotes(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/quotes", r.URL.Path)
		assert.Equal(t, "ABCD1234-100:tok", r.Header.Get("Authorization"))
		assert.Equal(t, "NSE:SBIN-EQ,NSE:IDEA-EQ", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"s":"ok","code":200,"d":[
			{"n":"NSE:SBIN-EQ","s":"ok","v":{"ch":-2.5,"chp":-0.31,"lp":801.4,"ask":801.5,"bid":801.35,
				"open_price":805,"high_price":806.2,"low_price":799.1,"prev_close_price":803.9,"volume":1250000}},
			{"n":"NSE:IDEA-EQ","s":"ok","v":{"lp":14.2,"volume":98000000}}]}`))
	})

	quotes, err := c.Quotes(context.Background(), []string{"NSE:SBIN-EQ", "NSE:IDEA-EQ"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "NSE:SBIN-EQ", quotes[0].Symbol)
	assert.Equal(t, 801.4, quotes[0].LastPrice)
	assert.Equal(t, -0.31, quotes[0].ChangePct)
	assert.Equal(t, 803.9, quotes[0].PrevClose)
	assert.Equal(t, int64(1250000), quotes[0].Volume)
	assert.Equal(t, "NSE:IDEA-EQ", quotes[1].Symbol)
	assert.Equal(t, 14.2, quotes[1].LastPrice)
}

func TestFyersClient_QuotesErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want error
	}{
		{"symbol rejected", `{"s":"ok","code":200,"d":[{"n":"NSE:NOPE-EQ","s":"error","v":{"errmsg":"invalid symbol"}}]}`, apperr.ErrData},
		{"token expired", `{"s":"error","code":-16,"message":"Could not authenticate the user"}`, apperr.ErrAuthExpired},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Quotes(context.Background(), []string{"NSE:NOPE-EQ"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFyersClient_QuotesNoSymbols(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	quotes, err := c.Quotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestFyersClient_Tradebook(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/tradebook", r.URL.Path)
		_, _ = w.Write([]byte(`{"s":"ok","code":200,"tradeBook":[
			{"symbol":"NSE:SBIN-EQ","orderNumber":"52104097616","tradeNumber":"52104097616-2","side":1,
				"tradedQty":5,"tradePrice":801.2,"tradeValue":4006,"productType":"CNC","orderDateTime":"03-Jun-2024 09:20:11"}]}`))
	})

	trades, err := c.Tradebook(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "NSE:SBIN-EQ", trades[0].Symbol)
	assert.Equal(t, 1, trades[0].Side)
	assert.Equal(t, int64(5), trades[0].Quantity)
	assert.Equal(t, 801.2, trades[0].Price)
	assert.Equal(t, "CNC", trades[0].ProductType)
}

func TestStaticClient_Quotes(t *testing.T) {
	quotes, err := NewStaticClient(250).Quotes(context.Background(), []string{"NSE:SBIN-EQ", "NSE:IDEA-EQ"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "NSE:IDEA-EQ", quotes[1].Symbol)
	assert.Equal(t, 250.0, quotes[0].LastPrice)
}

func TestTicker(t *testing.T) {
	assert.Equal(t, "NSE:NIFTYBANK-INDEX", Ticker("nse", "niftybank", "index"))
	assert.Equal(t, "NSE:SBIN-EQ", Ticker("NSE", "SBIN", "EQ"))
}
