package postgres

import (
	"context"
	"fmt"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Upsert inserts the account or refreshes updated_at if it already exists.
func (s *AccountStore) Upsert(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, login, server, account_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE SET
			account_type = EXCLUDED.account_type,
			updated_at = (extract(epoch FROM now()) * 1000)::bigint
	`

	_, err := s.pool.Exec(ctx, query,
		a.AccountID,
		a.Login,
		a.Server,
		a.AccountType,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			// Same login/server registered under a different account id.
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT account_id, login, server, account_type, created_at, updated_at
		FROM accounts
		WHERE account_id = $1
	`

	var a domain.Account
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID,
		&a.Login,
		&a.Server,
		&a.AccountType,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return &a, nil
}
