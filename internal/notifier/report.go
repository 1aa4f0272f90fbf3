package notifier

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"FyersSentinel/internal/model"
)

// AccountReport renders holdings and the day's trades as one CSV document.
// The first column tells the two row kinds apart.
func AccountReport(holdings []model.Holding, trades []model.Trade) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{"kind", "symbol", "quantity", "price", "value", "pl", "detail"}}
	for _, h := range holdings {
		rows = append(rows, []string{
			"holding", h.Symbol, strconv.FormatInt(h.Quantity, 10),
			money(h.CostPrice), money(h.MarketVal), money(h.PL), h.HoldingType,
		})
	}
	for _, t := range trades {
		side := "BUY"
		if t.Side < 0 {
			side = "SELL"
		}
		rows = append(rows, []string{
			"trade", t.Symbol, strconv.FormatInt(t.Quantity, 10),
			money(t.Price), money(t.Value), "", side + " " + t.ProductType + " " + t.TradedAt,
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
