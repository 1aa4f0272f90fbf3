package collector

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"FyersSentinel/internal/model"
)

// StaticClient serves deterministic synthetic candles for dry runs and tests.
// Bars follow the exchange session (09:15 to 15:30 IST, weekdays).
type StaticClient struct {
	Base  float64 // starting price
	Drift float64 // fractional change per bar
}

func NewStaticClient(base float64) *StaticClient {
	return &StaticClient{Base: base, Drift: 0.0002}
}

func (s *StaticClient) Name() string { return "static" }

func (s *StaticClient) FetchHistory(_ context.Context, _ string, res model.Resolution, from, to time.Time) (model.RawHistory, error) {
	step := res.Step()
	if step == 0 {
		step = 5 * time.Minute
	}
	var rows [][]any
	i := 0
	for day := model.DateOf(from); !day.After(model.DateOf(to)); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		// day carries IST wall-clock fields; rebuild it in IST to get true instants.
		open := time.Date(day.Year(), day.Month(), day.Day(), 9, 15, 0, 0, model.IST)
		closing := time.Date(day.Year(), day.Month(), day.Day(), 15, 30, 0, 0, model.IST)
		if !res.IsIntraday() {
			open = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, model.IST)
			closing = open
		}
		for t := open; !t.After(closing); t = t.Add(step) {
			p := s.price(i)
			rows = append(rows, []any{t.Unix(), round2(p * 0.999), round2(p * 1.002), round2(p * 0.997), round2(p), 1000 + i%500})
			i++
		}
	}
	if rows == nil {
		return model.RawHistory{Status: "no_data", Candles: json.RawMessage("[]")}, nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return model.RawHistory{}, err
	}
	return model.RawHistory{Status: "ok", Candles: data}, nil
}

func (s *StaticClient) price(i int) float64 {
	return s.Base * (1 + s.Drift*float64(i) + 0.001*math.Sin(float64(i)/7))
}

func (s *StaticClient) Profile(context.Context) (model.Profile, error) {
	return model.Profile{FyID: "STATIC", Name: "Static Data"}, nil
}

func (s *StaticClient) Funds(context.Context) ([]model.FundLimit, error) {
	return []model.FundLimit{{ID: 10, Title: "Available Balance"}}, nil
}

func (s *StaticClient) Holdings(context.Context) ([]model.Holding, error) {
	return nil, nil
}

func (s *StaticClient) Tradebook(context.Context) ([]model.Trade, error) {
	return nil, nil
}

// Quotes prices every symbol at the first synthetic bar.
func (s *StaticClient) Quotes(_ context.Context, symbols []string) ([]model.Quote, error) {
	p := round2(s.price(0))
	quotes := make([]model.Quote, 0, len(symbols))
	for _, sym := range symbols {
		quotes = append(quotes, model.Quote{
			Symbol: sym, LastPrice: p, Open: p, High: p, Low: p, PrevClose: p, Bid: p, Ask: p,
		})
	}
	return quotes, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
