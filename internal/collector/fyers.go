package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
	"FyersSentinel/internal/transport"
)

const DefaultAPIBaseURL = "https://api-t1.fyers.in"

// FyersClient implements MarketDataClient using the Fyers API v3 REST endpoints.
type FyersClient struct {
	BaseURL  string
	ClientID string
	Tokens   TokenSource
	Client   *transport.Client
}

func NewFyersClient(client *transport.Client, baseURL, clientID string, tokens TokenSource) *FyersClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &FyersClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ClientID: clientID,
		Tokens:   tokens,
		Client:   client,
	}
}

func (f *FyersClient) Name() string { return "fyers" }

// envelope is the status block every Fyers response carries.
type envelope struct {
	S       string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is a request the broker answered with "s": "error".
type APIError struct {
	Op      string
	Code    int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: broker error %d: %s", e.Op, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

func (e envelope) err(op string) error {
	if e.S != "error" {
		return nil
	}
	apiErr := &APIError{Op: op, Code: e.Code, Message: e.Message}
	switch e.Code {
	case -8, -15, -16, -17:
		apiErr.kind = apperr.ErrAuthExpired
	case 429:
		apiErr.kind = apperr.ErrRateLimited
	case 500, 503:
		apiErr.kind = apperr.ErrUnavailable
	}
	return apiErr
}

func (f *FyersClient) get(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := f.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	h := http.Header{}
	h.Set("Authorization", f.ClientID+":"+f.Tokens.AccessToken())
	return f.Client.Do(ctx, op, http.MethodGet, endpoint, h, nil, out)
}

func (f *FyersClient) FetchHistory(ctx context.Context, instrument string, res model.Resolution, from, to time.Time) (model.RawHistory, error) {
	q := url.Values{}
	q.Set("symbol", instrument)
	q.Set("resolution", string(res))
	q.Set("date_format", "1")
	q.Set("range_from", from.Format(time.DateOnly))
	q.Set("range_to", to.Format(time.DateOnly))
	q.Set("cont_flag", "1")

	var resp struct {
		envelope
		Candles json.RawMessage `json:"candles"`
	}
	if err := f.get(ctx, "history", "/data/history", q, &resp); err != nil {
		return model.RawHistory{}, err
	}
	if err := resp.err("history"); err != nil {
		return model.RawHistory{}, err
	}
	return model.RawHistory{Status: resp.S, Candles: resp.Candles}, nil
}

func (f *FyersClient) Profile(ctx context.Context) (model.Profile, error) {
	var resp struct {
		envelope
		Data *model.Profile `json:"data"`
	}
	if err := f.get(ctx, "profile", "/api/v3/profile", nil, &resp); err != nil {
		return model.Profile{}, err
	}
	if err := resp.err("profile"); err != nil {
		return model.Profile{}, err
	}
	if resp.Data == nil {
		return model.Profile{}, fmt.Errorf("profile: no data: %w", apperr.ErrProtocol)
	}
	return *resp.Data, nil
}

func (f *FyersClient) Funds(ctx context.Context) ([]model.FundLimit, error) {
	var resp struct {
		envelope
		FundLimit []model.FundLimit `json:"fund_limit"`
	}
	if err := f.get(ctx, "funds", "/api/v3/funds", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("funds"); err != nil {
		return nil, err
	}
	return resp.FundLimit, nil
}

func (f *FyersClient) Holdings(ctx context.Context) ([]model.Holding, error) {
	var resp struct {
		envelope
		Holdings []model.Holding `json:"holdings"`
	}
	if err := f.get(ctx, "holdings", "/api/v3/holdings", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("holdings"); err != nil {
		return nil, err
	}
	return resp.Holdings, nil
}

func (f *FyersClient) Tradebook(ctx context.Context) ([]model.Trade, error) {
	var resp struct {
		envelope
		TradeBook []model.Trade `json:"tradeBook"`
	}
	if err := f.get(ctx, "tradebook", "/api/v3/tradebook", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("tradebook"); err != nil {
		return nil, err
	}
	return resp.TradeBook, nil
}

// quoteEntry is one element of the quotes response; "s" is per symbol.
type quoteEntry struct {
	Name   string `json:"n"`
	Status string `json:"s"`
	Values struct {
		Change    float64 `json:"ch"`
		ChangePct float64 `json:"chp"`
		LastPrice float64 `json:"lp"`
		Ask       float64 `json:"ask"`
		Bid       float64 `json:"bid"`
		Open      float64 `json:"open_price"`
		High      float64 `json:"high_price"`
		Low       float64 `json:"low_price"`
		PrevClose float64 `json:"prev_close_price"`
		Volume    int64   `json:"volume"`
		ErrMsg    string  `json:"errmsg"`
	} `json:"v"`
}

func (f *FyersClient) Quotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))

	var resp struct {
		envelope
		D []quoteEntry `json:"d"`
	}
	if err := f.get(ctx, "quotes", "/data/quotes", q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("quotes"); err != nil {
		return nil, err
	}
	quotes := make([]model.Quote, 0, len(resp.D))
	for _, e := range resp.D {
		if e.Status != "ok" {
			return nil, fmt.Errorf("quotes: %s: %s: %w", e.Name, e.Values.ErrMsg, apperr.ErrData)
		}
		v := e.Values
		quotes = append(quotes, model.Quote{
			Symbol:    e.Name,
			LastPrice: v.LastPrice,
			Change:    v.Change,
			ChangePct: v.ChangePct,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			PrevClose: v.PrevClose,
			Bid:       v.Bid,
			Ask:       v.Ask,
			Volume:    v.Volume,
		})
	}
	return quotes, nil
}

// Ticker builds an EXCHANGE:SYMBOL-SECTYPE instrument name, e.g. NSE:NIFTYBANK-INDEX.
func Ticker(exchange, symbol, secType string) string {
	return fmt.Sprintf("%s:%s-%s", strings.ToUpper(exchange), strings.ToUpper(symbol), strings.ToUpper(secType))
}
