package model

// Credential is the persisted authorization record.
type Credential struct {
	AuthorizationCode string `json:"authorization_code"`
	AccessToken       string `json:"access_token"`
}

// Valid reports whether both fields are populated.
func (c Credential) Valid() bool {
	return c.AuthorizationCode != "" && c.AccessToken != ""
}

// Profile is the account profile returned by the broker.
type Profile struct {
	FyID         string `json:"fy_id"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	EmailID      string `json:"email_id"`
	PAN          string `json:"PAN"`
	TOTPEnabled  bool   `json:"totp"`
	PinChangedAt string `json:"pin_change_date"`
}

// FundLimit is one line of the broker's fund summary.
type FundLimit struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	EquityAmount    float64 `json:"equityAmount"`
	CommodityAmount float64 `json:"commodityAmount"`
}

// Holding is a single long-term position.
type Holding struct {
	Symbol      string  `json:"symbol"`
	Quantity    int64   `json:"quantity"`
	CostPrice   float64 `json:"costPrice"`
	LTP         float64 `json:"ltp"`
	MarketVal   float64 `json:"marketVal"`
	PL          float64 `json:"pl"`
	HoldingType string  `json:"holdingType"`
}

// Quote is a market snapshot for one symbol.
type Quote struct {
	Symbol    string
	LastPrice float64
	Change    float64
	ChangePct float64
	Open      float64
	High      float64
	Low       float64
	PrevClose float64
	Bid       float64
	Ask       float64
	Volume    int64
}

// Trade is one fill from the day's tradebook.
type Trade struct {
	Symbol      string  `json:"symbol"`
	OrderID     string  `json:"orderNumber"`
	TradeID     string  `json:"tradeNumber"`
	Side        int     `json:"side"` // 1 buy, -1 sell
	Quantity    int64   `json:"tradedQty"`
	Price       float64 `json:"tradePrice"`
	Value       float64 `json:"tradeValue"`
	ProductType string  `json:"productType"`
	TradedAt    string  `json:"orderDateTime"`
}
