package domain

// Account represents an externally-held trading account registered with the
// platform. Corresponds to accounts table in PostgreSQL.
type Account struct {
	AccountID   string // PRIMARY KEY, deterministic hash
	Login       string // trading platform login
	Server      string // trading platform server host
	AccountType string // standard | funded | evaluation
	CreatedAt   int64  // record creation timestamp (ms)
	UpdatedAt   int64  // last update timestamp (ms)
}
