package domain

// EquitySnapshot is one balance/equity observation for a monitored
// instance. Immutable once written; the poller appends one per cycle in
// non-decreasing timestamp order. Corresponds to equity_history in ClickHouse.
type EquitySnapshot struct {
	InstanceID string
	Balance    float64 // account value excluding floating P/L
	Equity     float64 // account value including floating P/L
	RecordedAt int64   // Unix timestamp in milliseconds
}
