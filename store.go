package transact

import (
	"context"
	"sync"
)

// Store persists the full transaction set as a single snapshot.
//
// The engine itself never calls a Store; persistence is an external
// concern that snapshots the manager's in-memory transactions (via
// SnapshotManager) and restores them through RegisterTransaction (via
// RestoreManager). Save always rewrites the whole set.
type Store interface {
	// Save persists a snapshot of all transactions, replacing any
	// previously saved set.
	Save(ctx context.Context, txs []*Transaction) error

	// Load retrieves the previously saved transaction set. An empty store
	// yields an empty slice, not an error.
	Load(ctx context.Context) ([]*Transaction, error)
}

// SnapshotManager saves every transaction held by the manager to the store.
func SnapshotManager(ctx context.Context, store Store, manager *TransactionManager) error {
	return store.Save(ctx, manager.GetAllTransactions())
}

// RestoreManager loads the persisted transaction set and registers each
// transaction with the manager.
func RestoreManager(ctx context.Context, store Store, manager *TransactionManager) error {
	txs, err := store.Load(ctx)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		manager.RegisterTransaction(tx)
	}
	return nil
}

// MemoryStore provides an in-memory implementation of Store for testing or
// scenarios where persistence is not required.
type MemoryStore struct {
	txs []*Transaction
	mu  sync.RWMutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a snapshot of the transaction set in memory.
func (m *MemoryStore) Save(ctx context.Context, txs []*Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Clone to decouple the snapshot from later engine mutations.
	snapshot := make([]*Transaction, len(txs))
	for i, tx := range txs {
		snapshot[i] = tx.Clone()
	}
	m.txs = snapshot
	return nil
}

// Load retrieves the saved transaction set from memory.
func (m *MemoryStore) Load(ctx context.Context) ([]*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := make([]*Transaction, len(m.txs))
	for i, tx := range m.txs {
		txs[i] = tx.Clone()
	}
	return txs, nil
}
