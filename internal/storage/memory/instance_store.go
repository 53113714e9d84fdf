package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// InstanceStore is an in-memory implementation of storage.InstanceStore.
// ListActive joins against an AccountStore for login/server, mirroring
// the SQL join in the Postgres implementation.
type InstanceStore struct {
	mu       sync.RWMutex
	data     map[string]*domain.MonitoredInstance // keyed by instance_id
	accounts *AccountStore
}

// NewInstanceStore creates a new in-memory instance store backed by the
// given account store.
func NewInstanceStore(accounts *AccountStore) *InstanceStore {
	return &InstanceStore{
		data:     make(map[string]*domain.MonitoredInstance),
		accounts: accounts,
	}
}

// Upsert inserts the instance or rotates its credential envelope and status.
func (s *InstanceStore) Upsert(_ context.Context, inst *domain.MonitoredInstance) error {
	if inst == nil || inst.InstanceID == "" || inst.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if existing, ok := s.data[inst.InstanceID]; ok {
		existing.EncryptedInvestorPass = inst.EncryptedInvestorPass
		existing.Status = inst.Status
		existing.UpdatedAt = now
		return nil
	}

	instCopy := *inst
	instCopy.CreatedAt = now
	instCopy.UpdatedAt = now
	s.data[inst.InstanceID] = &instCopy
	return nil
}

// ListActive retrieves all active instances joined with their parent
// account's login and server, ordered by instance_id ASC.
func (s *InstanceStore) ListActive(ctx context.Context) ([]*domain.ActiveInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ActiveInstance
	for _, inst := range s.data {
		if inst.Status != domain.StatusActive {
			continue
		}

		account, err := s.accounts.GetByID(ctx, inst.AccountID)
		if err != nil {
			// Instance without a parent account: skip, same as an inner join.
			continue
		}

		result = append(result, &domain.ActiveInstance{
			InstanceID:            inst.InstanceID,
			AccountID:             inst.AccountID,
			Login:                 account.Login,
			Server:                account.Server,
			EncryptedInvestorPass: inst.EncryptedInvestorPass,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].InstanceID < result[j].InstanceID
	})

	return result, nil
}

// SetStatus changes an instance's status. Returns ErrNotFound if the
// instance does not exist.
func (s *InstanceStore) SetStatus(_ context.Context, instanceID string, status domain.InstanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.data[instanceID]
	if !ok {
		return storage.ErrNotFound
	}

	inst.Status = status
	inst.UpdatedAt = time.Now().UnixMilli()
	return nil
}

// GetByID retrieves an instance by its ID. Returns ErrNotFound if not exists.
func (s *InstanceStore) GetByID(_ context.Context, instanceID string) (*domain.MonitoredInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.data[instanceID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	instCopy := *inst
	return &instCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.InstanceStore = (*InstanceStore)(nil)
