package memory

import (
	"context"
	"sync"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Account // keyed by account_id
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[string]*domain.Account),
	}
}

// Upsert inserts the account or refreshes updated_at if it already exists.
func (s *AccountStore) Upsert(_ context.Context, a *domain.Account) error {
	if a == nil || a.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if existing, ok := s.data[a.AccountID]; ok {
		existing.AccountType = a.AccountType
		existing.UpdatedAt = now
		return nil
	}

	accountCopy := *a
	accountCopy.CreatedAt = now
	accountCopy.UpdatedAt = now
	s.data[a.AccountID] = &accountCopy
	return nil
}

// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
func (s *AccountStore) GetByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[accountID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	accountCopy := *a
	return &accountCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.AccountStore = (*AccountStore)(nil)
