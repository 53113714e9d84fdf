package mt5

// AccountSummary is a balance/equity snapshot for a connected login, as
// returned by the bridge's /AccountSummary endpoint.
type AccountSummary struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	FreeMargin float64 `json:"freeMargin"`
	Profit     float64 `json:"profit"`
	Currency   string  `json:"currency"`
}

// Order is one closed order from the bridge's /OrderHistory endpoint.
type Order struct {
	Ticket     int64   `json:"ticket"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Lots       float64 `json:"lots"`
	OpenPrice  float64 `json:"openPrice"`
	ClosePrice float64 `json:"closePrice"`
	Profit     float64 `json:"profit"`
	OpenTime   int64   `json:"openTime"`  // Unix timestamp in milliseconds
	CloseTime  int64   `json:"closeTime"` // Unix timestamp in milliseconds
}
