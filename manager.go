package transact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// TransactionManager creates, tracks and executes multi-agent transactions.
//
// Steps execute synchronously in declaration order. When a forward action
// fails, every previously completed step is compensated in reverse order
// (saga-style rollback) and the outcome is reported in the returned
// TransactionResult; the only errors Commit and Rollback return are
// InvalidStateError values for lifecycle misuse.
//
// A manager with an empty registry records and sequences steps without
// executing anything, which is useful for dry runs.
//
// The manager is safe for concurrent use: the transaction registry is a
// concurrent map, and each transaction serializes its own AddStep, Commit
// and Rollback calls so that two concurrent commits cannot both pass the
// pending check.
type TransactionManager struct {
	handlers     *HandlerRegistry
	transactions *xsync.MapOf[string, *Transaction]
}

// NewTransactionManager creates a manager that resolves step actions
// against the given registry. A nil registry yields a dry-run manager with
// no handlers.
func NewTransactionManager(handlers *HandlerRegistry) *TransactionManager {
	if handlers == nil {
		handlers = NewHandlerRegistry()
	}
	return &TransactionManager{
		handlers:     handlers,
		transactions: xsync.NewMapOf[string, *Transaction](),
	}
}

// Begin creates a new transaction in the pending state and registers it.
//
// timeoutSeconds is accepted as-is; zero or negative values are legal and
// cause the transaction to fail at Commit time.
func (m *TransactionManager) Begin(timeoutSeconds int) *Transaction {
	tx := &Transaction{
		TransactionID:  uuid.New().String(),
		Steps:          make([]TransactionStep, 0),
		State:          StatePending,
		CreatedAt:      time.Now().UTC(),
		TimeoutSeconds: timeoutSeconds,
	}
	m.transactions.Store(tx.TransactionID, tx)
	return tx
}

// AddStep appends a step to tx and returns it. The step is visible
// immediately through tx.Steps; there is no separate registration call.
//
// An empty compensatingAction means the step has no undo and is skipped
// during rollback. Returns an InvalidStateError when tx is no longer
// pending: a transaction's shape is frozen once execution has started.
func (m *TransactionManager) AddStep(tx *Transaction, agentID string, action ActionName, data Payload, compensatingAction ActionName) (TransactionStep, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.State != StatePending {
		return TransactionStep{}, CannotAddStep(tx)
	}

	if data == nil {
		data = Payload{}
	}
	step := TransactionStep{
		StepID:             uuid.New().String(),
		AgentID:            agentID,
		Action:             action,
		Data:               data,
		CompensatingAction: compensatingAction,
	}
	tx.Steps = append(tx.Steps, step)
	return step, nil
}

// Commit executes all steps of tx in order, rolling back on any failure.
//
// The transaction transitions to active before execution begins. The
// timeout deadline is checked exactly once, at that point: a transaction
// whose deadline has passed transitions to failed without running any
// handler, and a long step sequence is never interrupted mid-flight.
//
// Step failures do not surface as errors; they are captured in the
// rolled_back result's FailedStep and Error fields. The returned error is
// non-nil only when tx is not pending — a transaction may be committed at
// most once, regardless of the first attempt's outcome.
func (m *TransactionManager) Commit(ctx context.Context, tx *Transaction) (*TransactionResult, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if !tx.transition(StateActive) {
		return nil, CannotCommit(tx)
	}

	if time.Now().UTC().After(tx.Deadline()) {
		tx.transition(StateFailed)
		return &TransactionResult{
			TransactionID:  tx.TransactionID,
			State:          StateFailed,
			CompletedSteps: []string{},
			Error:          "transaction timed out before commit",
		}, nil
	}

	completed := make([]string, 0, len(tx.Steps))
	for _, step := range tx.Steps {
		if err := m.executeStep(ctx, step); err != nil {
			compensated := m.executeRollback(ctx, tx, completed)
			tx.transition(StateRolledBack)
			return &TransactionResult{
				TransactionID:  tx.TransactionID,
				State:          StateRolledBack,
				CompletedSteps: compensated,
				FailedStep:     step.StepID,
				Error:          err.Error(),
			}, nil
		}
		completed = append(completed, step.StepID)
	}

	tx.transition(StateCommitted)
	return &TransactionResult{
		TransactionID:  tx.TransactionID,
		State:          StateCommitted,
		CompletedSteps: completed,
	}, nil
}

// Rollback executes compensating actions for every step of tx in reverse
// order, treating all steps as completed regardless of whether any forward
// action ever ran, and transitions tx to rolled_back.
//
// Rollback may be called on a pending or active transaction; calling it on
// a terminal transaction returns an InvalidStateError.
func (m *TransactionManager) Rollback(ctx context.Context, tx *Transaction) (*TransactionResult, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.State.Terminal() {
		return nil, CannotRollback(tx)
	}

	compensated := m.executeRollback(ctx, tx, tx.StepIDs())
	tx.transition(StateRolledBack)
	return &TransactionResult{
		TransactionID:  tx.TransactionID,
		State:          StateRolledBack,
		CompletedSteps: compensated,
	}, nil
}

// GetTransaction returns the transaction with the given id, if registered.
func (m *TransactionManager) GetTransaction(transactionID string) (*Transaction, bool) {
	return m.transactions.Load(transactionID)
}

// GetAllTransactions returns a snapshot of every registered transaction.
// Order is not guaranteed and must not be relied on.
func (m *TransactionManager) GetAllTransactions() []*Transaction {
	txs := make([]*Transaction, 0, m.transactions.Size())
	m.transactions.Range(func(_ string, tx *Transaction) bool {
		txs = append(txs, tx)
		return true
	})
	return txs
}

// RegisterTransaction inserts an externally constructed transaction into
// the registry, overwriting any prior entry with the same id. This is the
// restore path for persisted state; no consistency validation is performed
// here, so callers restoring from storage should validate records first
// (FileStore does).
func (m *TransactionManager) RegisterTransaction(tx *Transaction) {
	m.transactions.Store(tx.TransactionID, tx)
}

// executeStep resolves and invokes the forward handler for step. An action
// with no registered handler is a successful no-op.
func (m *TransactionManager) executeStep(ctx context.Context, step TransactionStep) error {
	handler, ok := m.handlers.Get(step.Action)
	if !ok {
		return nil
	}
	return handler.Handle(ctx, step.Action, step.Data)
}

// executeRollback runs compensating actions for the given completed steps
// in strict reverse declaration order and returns the ids it swept, in
// that order.
//
// Compensation is best-effort: a failing compensating handler is discarded
// so that it neither masks the original failure nor halts compensation of
// the remaining steps. Steps without a compensating action, and
// compensating actions without a registered handler, are skipped. Callers
// must hold tx.mu.
func (m *TransactionManager) executeRollback(ctx context.Context, tx *Transaction, completedStepIDs []string) []string {
	completedSet := make(map[string]struct{}, len(completedStepIDs))
	for _, id := range completedStepIDs {
		completedSet[id] = struct{}{}
	}

	compensated := make([]string, 0, len(completedStepIDs))
	for i := len(tx.Steps) - 1; i >= 0; i-- {
		step := tx.Steps[i]
		if _, ok := completedSet[step.StepID]; !ok {
			continue
		}
		if step.CompensatingAction != "" {
			if handler, ok := m.handlers.Get(step.CompensatingAction); ok {
				// Best-effort: the error is deliberately dropped.
				_ = handler.Handle(ctx, step.CompensatingAction, step.Data)
			}
		}
		compensated = append(compensated, step.StepID)
	}
	return compensated
}
