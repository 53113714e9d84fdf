package memory

import (
	"context"
	"sync"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// InitialBalanceStore is an in-memory implementation of storage.InitialBalanceStore.
type InitialBalanceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.InitialBalance // keyed by account_id
}

// NewInitialBalanceStore creates a new in-memory initial balance store.
func NewInitialBalanceStore() *InitialBalanceStore {
	return &InitialBalanceStore{
		data: make(map[string]*domain.InitialBalance),
	}
}

// Insert records the immutable initial balance for an account.
// Returns ErrDuplicateKey if one is already recorded.
func (s *InitialBalanceStore) Insert(_ context.Context, b *domain.InitialBalance) error {
	if b == nil || b.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.AccountID]; exists {
		return storage.ErrDuplicateKey
	}

	balanceCopy := *b
	if balanceCopy.RecordedAt == 0 {
		balanceCopy.RecordedAt = time.Now().UnixMilli()
	}
	s.data[b.AccountID] = &balanceCopy
	return nil
}

// GetByAccountID retrieves the initial balance for an account.
// Returns ErrNotFound if not exists.
func (s *InitialBalanceStore) GetByAccountID(_ context.Context, accountID string) (*domain.InitialBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[accountID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	balanceCopy := *b
	return &balanceCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.InitialBalanceStore = (*InitialBalanceStore)(nil)
