package memory

import (
	"context"
	"sort"
	"sync"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// EquityHistoryStore is an in-memory implementation of storage.EquityHistoryStore.
type EquityHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.EquitySnapshot // keyed by instance_id
}

// NewEquityHistoryStore creates a new in-memory equity history store.
func NewEquityHistoryStore() *EquityHistoryStore {
	return &EquityHistoryStore{
		data: make(map[string][]*domain.EquitySnapshot),
	}
}

// Insert appends one observation.
func (s *EquityHistoryStore) Insert(_ context.Context, snap *domain.EquitySnapshot) error {
	if snap == nil || snap.InstanceID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	s.data[snap.InstanceID] = append(s.data[snap.InstanceID], &snapCopy)
	return nil
}

// FirstSince retrieves the earliest observation for an instance with
// recorded_at >= sinceMs. Returns ErrNotFound if none exists.
func (s *EquityHistoryStore) FirstSince(_ context.Context, instanceID string, sinceMs int64) (*domain.EquitySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var first *domain.EquitySnapshot
	for _, snap := range s.data[instanceID] {
		if snap.RecordedAt < sinceMs {
			continue
		}
		if first == nil || snap.RecordedAt < first.RecordedAt {
			first = snap
		}
	}

	if first == nil {
		return nil, storage.ErrNotFound
	}

	snapCopy := *first
	return &snapCopy, nil
}

// ListByInstance retrieves all observations for an instance, ordered by
// recorded_at ASC.
func (s *EquityHistoryStore) ListByInstance(_ context.Context, instanceID string) ([]*domain.EquitySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EquitySnapshot
	for _, snap := range s.data[instanceID] {
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt < result[j].RecordedAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.EquityHistoryStore = (*EquityHistoryStore)(nil)
