package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/model"
)

// Builder turns raw history payloads into a normalized BarSeries.
type Builder struct{}

// Build decodes every payload, converts timestamps to naive exchange-local time, drops bars
// outside the window, sorts ascending and removes duplicate timestamps (first one wins).
// Any payload without the expected candle structure fails the whole build.
func (b *Builder) Build(instrument string, res model.Resolution, w model.Window, raws ...model.RawHistory) (*model.BarSeries, error) {
	var bars []model.Bar
	for i, raw := range raws {
		part, err := decodeCandles(raw)
		if err != nil {
			return nil, fmt.Errorf("payload %d of %d for %s: %w", i+1, len(raws), instrument, err)
		}
		for _, bar := range part {
			if w.Contains(bar.Time) {
				bars = append(bars, bar)
			}
		}
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, bar := range bars {
		if len(out) > 0 && out[len(out)-1].Time.Equal(bar.Time) {
			continue
		}
		out = append(out, bar)
	}

	return &model.BarSeries{Instrument: instrument, Resolution: res, Window: w, Bars: out}, nil
}

func decodeCandles(raw model.RawHistory) ([]model.Bar, error) {
	body := bytes.TrimSpace(raw.Candles)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		if raw.Status == "no_data" {
			return nil, nil
		}
		return nil, fmt.Errorf("response has no candles field: %w", apperr.ErrData)
	}

	var rows [][]json.Number
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("candles are not an array of numeric rows: %w: %w", apperr.ErrData, err)
	}

	bars := make([]model.Bar, 0, len(rows))
	for i, row := range rows {
		bar, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// decodeRow reads one [epoch, open, high, low, close, volume] tuple.
func decodeRow(row []json.Number) (model.Bar, error) {
	if len(row) != 6 {
		return model.Bar{}, fmt.Errorf("want 6 fields, got %d: %w", len(row), apperr.ErrData)
	}
	ts, err := strconv.ParseInt(row[0].String(), 10, 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("timestamp %q: %w", row[0], apperr.ErrData)
	}

	var prices [4]decimal.Decimal
	for k := range prices {
		d, err := decimal.NewFromString(row[k+1].String())
		if err != nil {
			return model.Bar{}, fmt.Errorf("price field %d %q: %w", k+1, row[k+1], apperr.ErrData)
		}
		prices[k] = d
	}

	vol, err := parseVolume(row[5].String())
	if err != nil {
		return model.Bar{}, err
	}

	return model.Bar{
		Time:   model.Naive(time.Unix(ts, 0)),
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: vol,
	}, nil
}

func parseVolume(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some feeds send integral volumes as 1234.0.
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.IsInteger() {
			return 0, fmt.Errorf("volume %q: %w", s, apperr.ErrData)
		}
		v = d.IntPart()
	}
	if v < 0 {
		return 0, fmt.Errorf("negative volume %d: %w", v, apperr.ErrData)
	}
	return v, nil
}
