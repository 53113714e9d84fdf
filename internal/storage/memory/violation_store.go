package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// ViolationStore is an in-memory implementation of storage.ViolationStore.
type ViolationStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.RuleViolation // keyed by instance_id
	seq  int
}

// NewViolationStore creates a new in-memory violation store.
func NewViolationStore() *ViolationStore {
	return &ViolationStore{
		data: make(map[string][]*domain.RuleViolation),
	}
}

// Insert adds a new violation and fills in its ViolationID.
func (s *ViolationStore) Insert(_ context.Context, v *domain.RuleViolation) error {
	if v == nil || v.InstanceID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	v.ViolationID = fmt.Sprintf("violation-%06d", s.seq)

	violationCopy := *v
	s.data[v.InstanceID] = append(s.data[v.InstanceID], &violationCopy)
	return nil
}

// ExistsSince reports whether a violation for the same
// (instance, rule, severity) tuple was detected strictly after sinceMs.
func (s *ViolationStore) ExistsSince(_ context.Context, instanceID string, rule domain.RuleType, severity domain.Severity, sinceMs int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.data[instanceID] {
		if v.Rule == rule && v.Severity == severity && v.DetectedAt > sinceMs {
			return true, nil
		}
	}
	return false, nil
}

// ListByInstance retrieves all violations for an instance, ordered by
// detected_at ASC.
func (s *ViolationStore) ListByInstance(_ context.Context, instanceID string) ([]*domain.RuleViolation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RuleViolation
	for _, v := range s.data[instanceID] {
		violationCopy := *v
		result = append(result, &violationCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DetectedAt != result[j].DetectedAt {
			return result[i].DetectedAt < result[j].DetectedAt
		}
		return result[i].ViolationID < result[j].ViolationID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ViolationStore = (*ViolationStore)(nil)
