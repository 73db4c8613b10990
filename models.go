package transact

import (
	"sync"
	"time"
)

// TransactionState represents the lifecycle state of a Transaction.
//
// The legal transitions form a small monotonic state machine:
//
//	pending -> active       (Commit entered)
//	pending -> rolled_back  (explicit Rollback)
//	active  -> committed    (all steps executed)
//	active  -> rolled_back  (a step failed, or explicit Rollback)
//	active  -> failed       (deadline had already passed at Commit entry)
//
// committed, rolled_back and failed are terminal; no transition ever
// returns to pending.
type TransactionState string

const (
	StatePending    TransactionState = "pending"
	StateActive     TransactionState = "active"
	StateCommitted  TransactionState = "committed"
	StateRolledBack TransactionState = "rolled_back"
	StateFailed     TransactionState = "failed"
)

// String implements the fmt.Stringer interface for TransactionState.
func (s TransactionState) String() string {
	return string(s)
}

// Terminal reports whether the state has no outgoing transitions.
func (s TransactionState) Terminal() bool {
	switch s {
	case StateCommitted, StateRolledBack, StateFailed:
		return true
	}
	return false
}

// canTransition reports whether moving from s to next is a legal lifecycle
// transition.
func (s TransactionState) canTransition(next TransactionState) bool {
	switch s {
	case StatePending:
		switch next {
		case StateActive, StateRolledBack:
			return true
		}
	case StateActive:
		switch next {
		case StateCommitted, StateRolledBack, StateFailed:
			return true
		}
	}
	return false
}

// transition moves the transaction to next if the lifecycle permits it,
// reporting whether the move happened. Callers must hold t.mu.
func (t *Transaction) transition(next TransactionState) bool {
	if !t.State.canTransition(next) {
		return false
	}
	t.State = next
	return true
}

// TransactionStep is a single unit of work within a transaction: a forward
// action descriptor, its payload, and an optional compensating action.
//
// Steps are immutable after creation. AgentID labels the responsible
// participant and is informational only; it is never used for routing.
type TransactionStep struct {
	StepID             string     `json:"step_id" validate:"required"`
	AgentID            string     `json:"agent_id"`
	Action             ActionName `json:"action" validate:"required"`
	Data               Payload    `json:"data"`
	CompensatingAction ActionName `json:"compensating_action,omitempty"`
}

// Transaction is an ordered sequence of steps that should execute
// atomically, plus its lifecycle state and timeout deadline.
//
// The TransactionManager owns every transaction for its lifetime. Callers
// hold references for inspection but must not mutate State or Steps
// directly; AddStep, Commit and Rollback are the only mutation paths and
// they serialize through the transaction's internal mutex.
type Transaction struct {
	TransactionID  string            `json:"transaction_id" validate:"required"`
	Steps          []TransactionStep `json:"steps" validate:"dive"`
	State          TransactionState  `json:"state" validate:"required,oneof=pending active committed rolled_back failed"`
	CreatedAt      time.Time         `json:"created_at" validate:"required"`
	TimeoutSeconds int               `json:"timeout_seconds"`

	// mu serializes state transitions and step-list mutation so that two
	// concurrent commits cannot both pass the pending check.
	mu sync.Mutex
}

// Deadline returns the instant after which Commit refuses to run any step.
func (t *Transaction) Deadline() time.Time {
	return t.CreatedAt.Add(time.Duration(t.TimeoutSeconds) * time.Second)
}

// Clone returns an independent copy of the transaction. The internal mutex
// is not carried over; the clone is a detached snapshot.
func (t *Transaction) Clone() *Transaction {
	steps := make([]TransactionStep, len(t.Steps))
	copy(steps, t.Steps)
	return &Transaction{
		TransactionID:  t.TransactionID,
		Steps:          steps,
		State:          t.State,
		CreatedAt:      t.CreatedAt,
		TimeoutSeconds: t.TimeoutSeconds,
	}
}

// StepIDs returns the ids of all steps in declaration order.
func (t *Transaction) StepIDs() []string {
	ids := make([]string, len(t.Steps))
	for i, step := range t.Steps {
		ids[i] = step.StepID
	}
	return ids
}

// TransactionResult is the immutable outcome snapshot of a commit or
// rollback.
//
// CompletedSteps lists step ids in the order they were handled: declaration
// order on the commit path, compensation (reverse) order on the rollback
// path. FailedStep and Error are set only when a forward action failed.
type TransactionResult struct {
	TransactionID  string           `json:"transaction_id"`
	State          TransactionState `json:"state"`
	CompletedSteps []string         `json:"completed_steps"`
	FailedStep     string           `json:"failed_step,omitempty"`
	Error          string           `json:"error,omitempty"`
}
