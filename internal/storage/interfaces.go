package storage

import (
	"context"

	"prop-risk-monitor/internal/domain"
)

// AccountStore provides access to accounts storage.
type AccountStore interface {
	// Upsert inserts the account or refreshes updated_at if it already exists.
	Upsert(ctx context.Context, a *domain.Account) error

	// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)
}

// InstanceStore provides access to account_instances storage.
type InstanceStore interface {
	// Upsert inserts the instance or rotates its credential envelope and
	// status if it already exists. Instances are never deleted.
	Upsert(ctx context.Context, inst *domain.MonitoredInstance) error

	// ListActive retrieves all instances with status active, joined with
	// their parent account's login and server, ordered by instance_id ASC.
	ListActive(ctx context.Context) ([]*domain.ActiveInstance, error)

	// SetStatus changes an instance's status. Returns ErrNotFound if the
	// instance does not exist.
	SetStatus(ctx context.Context, instanceID string, status domain.InstanceStatus) error

	// GetByID retrieves an instance by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, instanceID string) (*domain.MonitoredInstance, error)
}

// InitialBalanceStore provides access to initial_balances storage.
type InitialBalanceStore interface {
	// Insert records the immutable initial balance for an account.
	// Returns ErrDuplicateKey if one is already recorded; the value is
	// never updated once set.
	Insert(ctx context.Context, b *domain.InitialBalance) error

	// GetByAccountID retrieves the initial balance for an account.
	// Returns ErrNotFound if not exists.
	GetByAccountID(ctx context.Context, accountID string) (*domain.InitialBalance, error)
}

// EquityHistoryStore provides access to equity_history storage.
type EquityHistoryStore interface {
	// Insert appends one observation. History is append-only.
	Insert(ctx context.Context, s *domain.EquitySnapshot) error

	// FirstSince retrieves the earliest observation for an instance with
	// recorded_at >= sinceMs. Returns ErrNotFound if none exists.
	FirstSince(ctx context.Context, instanceID string, sinceMs int64) (*domain.EquitySnapshot, error)

	// ListByInstance retrieves all observations for an instance, ordered
	// by recorded_at ASC.
	ListByInstance(ctx context.Context, instanceID string) ([]*domain.EquitySnapshot, error)
}

// ViolationStore provides access to rule_violations storage.
type ViolationStore interface {
	// Insert adds a new violation and fills in its ViolationID.
	Insert(ctx context.Context, v *domain.RuleViolation) error

	// ExistsSince reports whether a violation for the same
	// (instance, rule, severity) tuple was detected strictly after sinceMs.
	ExistsSince(ctx context.Context, instanceID string, rule domain.RuleType, severity domain.Severity, sinceMs int64) (bool, error)

	// ListByInstance retrieves all violations for an instance, ordered by
	// detected_at ASC.
	ListByInstance(ctx context.Context, instanceID string) ([]*domain.RuleViolation, error)
}
