package postgres

import (
	"context"
	"fmt"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// ViolationStore implements storage.ViolationStore using PostgreSQL.
type ViolationStore struct {
	pool *Pool
}

// NewViolationStore creates a new ViolationStore.
func NewViolationStore(pool *Pool) *ViolationStore {
	return &ViolationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ViolationStore = (*ViolationStore)(nil)

// Insert adds a new violation and fills in its ViolationID.
func (s *ViolationStore) Insert(ctx context.Context, v *domain.RuleViolation) error {
	query := `
		INSERT INTO rule_violations (instance_id, rule_type, threshold_value, current_value, severity, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING violation_id
	`

	err := s.pool.QueryRow(ctx, query,
		v.InstanceID,
		string(v.Rule),
		v.Threshold,
		v.CurrentValue,
		string(v.Severity),
		v.DetectedAt,
	).Scan(&v.ViolationID)
	if err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}
	return nil
}

// ExistsSince reports whether a violation for the same
// (instance, rule, severity) tuple was detected strictly after sinceMs.
func (s *ViolationStore) ExistsSince(ctx context.Context, instanceID string, rule domain.RuleType, severity domain.Severity, sinceMs int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM rule_violations
			WHERE instance_id = $1 AND rule_type = $2 AND severity = $3 AND detected_at > $4
		)
	`

	var exists bool
	err := s.pool.QueryRow(ctx, query, instanceID, string(rule), string(severity), sinceMs).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent violations: %w", err)
	}
	return exists, nil
}

// ListByInstance retrieves all violations for an instance, ordered by
// detected_at ASC.
func (s *ViolationStore) ListByInstance(ctx context.Context, instanceID string) ([]*domain.RuleViolation, error) {
	query := `
		SELECT violation_id, instance_id, rule_type, threshold_value, current_value, severity, detected_at
		FROM rule_violations
		WHERE instance_id = $1
		ORDER BY detected_at ASC, violation_id ASC
	`

	rows, err := s.pool.Query(ctx, query, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list violations by instance: %w", err)
	}
	defer rows.Close()

	var violations []*domain.RuleViolation
	for rows.Next() {
		var v domain.RuleViolation
		var ruleStr, severityStr string

		err := rows.Scan(
			&v.ViolationID,
			&v.InstanceID,
			&ruleStr,
			&v.Threshold,
			&v.CurrentValue,
			&severityStr,
			&v.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan violation row: %w", err)
		}

		v.Rule = domain.RuleType(ruleStr)
		v.Severity = domain.Severity(severityStr)
		violations = append(violations, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violation rows: %w", err)
	}

	return violations, nil
}
