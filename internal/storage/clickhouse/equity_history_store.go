package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

// EquityHistoryStore implements storage.EquityHistoryStore using ClickHouse.
// equity_history is a MergeTree ordered by (instance_id, recorded_at); the
// scheduler appends in non-decreasing timestamp order per instance, so no
// dedup key is needed.
type EquityHistoryStore struct {
	conn *Conn
}

// NewEquityHistoryStore creates a new EquityHistoryStore.
func NewEquityHistoryStore(conn *Conn) *EquityHistoryStore {
	return &EquityHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityHistoryStore = (*EquityHistoryStore)(nil)

// Insert appends one observation.
func (s *EquityHistoryStore) Insert(ctx context.Context, snap *domain.EquitySnapshot) error {
	if snap == nil || snap.InstanceID == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_history (instance_id, balance, equity, recorded_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(snap.InstanceID, snap.Balance, snap.Equity, snap.RecordedAt); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// FirstSince retrieves the earliest observation for an instance with
// recorded_at >= sinceMs. Returns ErrNotFound if none exists.
func (s *EquityHistoryStore) FirstSince(ctx context.Context, instanceID string, sinceMs int64) (*domain.EquitySnapshot, error) {
	query := `
		SELECT instance_id, balance, equity, recorded_at
		FROM equity_history
		WHERE instance_id = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, instanceID, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("query first snapshot since: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate snapshot rows: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	snap, err := scanSnapshot(rows)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListByInstance retrieves all observations for an instance, ordered by
// recorded_at ASC.
func (s *EquityHistoryStore) ListByInstance(ctx context.Context, instanceID string) ([]*domain.EquitySnapshot, error) {
	query := `
		SELECT instance_id, balance, equity, recorded_at
		FROM equity_history
		WHERE instance_id = ?
		ORDER BY recorded_at ASC
	`

	rows, err := s.conn.Query(ctx, query, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by instance: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.EquitySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}

// scanSnapshot scans the current row into an EquitySnapshot.
func scanSnapshot(rows driver.Rows) (*domain.EquitySnapshot, error) {
	var snap domain.EquitySnapshot
	err := rows.Scan(
		&snap.InstanceID,
		&snap.Balance,
		&snap.Equity,
		&snap.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan snapshot row: %w", err)
	}
	return &snap, nil
}
