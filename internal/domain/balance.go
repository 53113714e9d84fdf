package domain

// InitialBalance is the fixed baseline for total-drawdown evaluation.
// Set exactly once when the account is first funded and never mutated;
// it is the immutable denominator for lifetime drawdown.
// Corresponds to initial_balances table in PostgreSQL.
type InitialBalance struct {
	AccountID  string
	Value      float64
	RecordedAt int64 // Unix timestamp in milliseconds
}
