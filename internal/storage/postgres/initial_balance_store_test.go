package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prop-risk-monitor/internal/domain"
	"prop-risk-monitor/internal/storage"
)

func TestInitialBalanceStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedAccount(t, pool, "acct-1", "1001", "Broker-Demo")

	store := NewInitialBalanceStore(pool)
	ctx := context.Background()

	err := store.Insert(ctx, &domain.InitialBalance{
		AccountID: "acct-1",
		Value:     100000.0,
	})
	require.NoError(t, err)

	retrieved, err := store.GetByAccountID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", retrieved.AccountID)
	assert.Equal(t, 100000.0, retrieved.Value)
	assert.NotZero(t, retrieved.RecordedAt)
}

func TestInitialBalanceStore_InsertIsImmutable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedAccount(t, pool, "acct-1", "1001", "Broker-Demo")

	store := NewInitialBalanceStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.InitialBalance{
		AccountID: "acct-1",
		Value:     100000.0,
	}))

	// Second insert must not overwrite the recorded value
	err := store.Insert(ctx, &domain.InitialBalance{
		AccountID: "acct-1",
		Value:     50000.0,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	retrieved, err := store.GetByAccountID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, retrieved.Value)
}

func TestInitialBalanceStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewInitialBalanceStore(pool)

	_, err := store.GetByAccountID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
