package postgres

import (
	"context"
	"fmt"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// InitialBalanceStore implements storage.InitialBalanceStore using PostgreSQL.
type InitialBalanceStore struct {
	pool *Pool
}

// NewInitialBalanceStore creates a new InitialBalanceStore.
func NewInitialBalanceStore(pool *Pool) *InitialBalanceStore {
	return &InitialBalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InitialBalanceStore = (*InitialBalanceStore)(nil)

// Insert records the immutable initial balance for an account.
// Returns ErrDuplicateKey if one is already recorded.
func (s *InitialBalanceStore) Insert(ctx context.Context, b *domain.InitialBalance) error {
	query := `
		INSERT INTO initial_balances (account_id, initial_balance_value)
		VALUES ($1, $2)
	`

	_, err := s.pool.Exec(ctx, query, b.AccountID, b.Value)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert initial balance: %w", err)
	}
	return nil
}

// GetByAccountID retrieves the initial balance for an account.
// Returns ErrNotFound if not exists.
func (s *InitialBalanceStore) GetByAccountID(ctx context.Context, accountID string) (*domain.InitialBalance, error) {
	query := `
		SELECT account_id, initial_balance_value, recorded_at
		FROM initial_balances
		WHERE account_id = $1
	`

	var b domain.InitialBalance
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&b.AccountID,
		&b.Value,
		&b.RecordedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get initial balance: %w", err)
	}
	return &b, nil
}
