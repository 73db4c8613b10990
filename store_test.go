package transact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	txs := []*Transaction{
		{TransactionID: "tx-1", State: StatePending, CreatedAt: time.Now().UTC(), TimeoutSeconds: 60},
		{TransactionID: "tx-2", State: StateCommitted, CreatedAt: time.Now().UTC(), TimeoutSeconds: 30},
	}
	require.NoError(t, store.Save(ctx, txs))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestMemoryStoreSnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tx := &Transaction{TransactionID: "tx-1", State: StatePending, CreatedAt: time.Now().UTC(), TimeoutSeconds: 60}
	require.NoError(t, store.Save(ctx, []*Transaction{tx}))

	// Mutations after Save must not leak into the snapshot.
	tx.State = StateCommitted

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, StatePending, loaded[0].State)

	// Nor do mutations of a loaded copy affect later loads.
	loaded[0].State = StateFailed
	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePending, reloaded[0].State)
}

func TestSnapshotAndRestoreManager(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	manager := NewTransactionManager(nil)
	tx := manager.Begin(60)
	_, err := manager.AddStep(tx, "agent", "do_work", Payload{"k": "v"}, "undo_work")
	require.NoError(t, err)

	require.NoError(t, SnapshotManager(ctx, store, manager))

	// A fresh manager restored from the store sees the same transaction
	// and can drive it to completion.
	restored := NewTransactionManager(nil)
	require.NoError(t, RestoreManager(ctx, store, restored))

	got, ok := restored.GetTransaction(tx.TransactionID)
	require.True(t, ok)
	assert.Equal(t, StatePending, got.State)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, ActionName("do_work"), got.Steps[0].Action)

	result, err := restored.Commit(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, result.State)
}
