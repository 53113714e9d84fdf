package postgres

import (
	"context"
	"fmt"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// InstanceStore implements storage.InstanceStore using PostgreSQL.
type InstanceStore struct {
	pool *Pool
}

// NewInstanceStore creates a new InstanceStore.
func NewInstanceStore(pool *Pool) *InstanceStore {
	return &InstanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InstanceStore = (*InstanceStore)(nil)

// Upsert inserts the instance or rotates its credential envelope and status.
func (s *InstanceStore) Upsert(ctx context.Context, inst *domain.MonitoredInstance) error {
	query := `
		INSERT INTO account_instances (instance_id, account_id, encrypted_investor_pass, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id) DO UPDATE SET
			encrypted_investor_pass = EXCLUDED.encrypted_investor_pass,
			status = EXCLUDED.status,
			updated_at = (extract(epoch FROM now()) * 1000)::bigint
	`

	_, err := s.pool.Exec(ctx, query,
		inst.InstanceID,
		inst.AccountID,
		inst.EncryptedInvestorPass,
		string(inst.Status),
	)
	if err != nil {
		return fmt.Errorf("upsert instance: %w", err)
	}
	return nil
}

// ListActive retrieves all active instances joined with their parent
// account's login and server, ordered by instance_id ASC.
func (s *InstanceStore) ListActive(ctx context.Context) ([]*domain.ActiveInstance, error) {
	query := `
		SELECT ai.instance_id, ai.account_id, a.login, a.server, ai.encrypted_investor_pass
		FROM account_instances ai
		JOIN accounts a ON a.account_id = ai.account_id
		WHERE ai.status = 'active'
		ORDER BY ai.instance_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active instances: %w", err)
	}
	defer rows.Close()

	var instances []*domain.ActiveInstance
	for rows.Next() {
		var inst domain.ActiveInstance
		err := rows.Scan(
			&inst.InstanceID,
			&inst.AccountID,
			&inst.Login,
			&inst.Server,
			&inst.EncryptedInvestorPass,
		)
		if err != nil {
			return nil, fmt.Errorf("scan active instance row: %w", err)
		}
		instances = append(instances, &inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active instance rows: %w", err)
	}

	return instances, nil
}

// SetStatus changes an instance's status. Returns ErrNotFound if the
// instance does not exist.
func (s *InstanceStore) SetStatus(ctx context.Context, instanceID string, status domain.InstanceStatus) error {
	query := `
		UPDATE account_instances
		SET status = $2, updated_at = (extract(epoch FROM now()) * 1000)::bigint
		WHERE instance_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, instanceID, string(status))
	if err != nil {
		return fmt.Errorf("set instance status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves an instance by its ID. Returns ErrNotFound if not exists.
func (s *InstanceStore) GetByID(ctx context.Context, instanceID string) (*domain.MonitoredInstance, error) {
	query := `
		SELECT instance_id, account_id, encrypted_investor_pass, status, created_at, updated_at
		FROM account_instances
		WHERE instance_id = $1
	`

	var inst domain.MonitoredInstance
	var statusStr string
	err := s.pool.QueryRow(ctx, query, instanceID).Scan(
		&inst.InstanceID,
		&inst.AccountID,
		&inst.EncryptedInvestorPass,
		&statusStr,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get instance by id: %w", err)
	}

	inst.Status = domain.InstanceStatus(statusStr)
	return &inst, nil
}
