package transact

import (
	"errors"
	"fmt"
)

// InvalidStateError indicates that a caller attempted a lifecycle operation
// disallowed by a transaction's current state: adding a step to a
// non-pending transaction, committing twice, or rolling back a terminal
// transaction.
//
// This is the only error class the engine surfaces to callers. Step
// execution failures are reported through the TransactionResult, and
// compensation failures are discarded entirely.
type InvalidStateError struct {
	error
}

// Unwrap exposes the wrapped error for errors.Is/errors.As chains.
func (e *InvalidStateError) Unwrap() error {
	return e.error
}

// CannotAddStep reports an attempt to append a step to a transaction whose
// shape is already frozen.
func CannotAddStep(tx *Transaction) error {
	return &InvalidStateError{fmt.Errorf(
		"cannot add steps to transaction %q in state %q; only 'pending' transactions accept new steps",
		tx.TransactionID, tx.State,
	)}
}

// CannotCommit reports a commit attempt on a non-pending transaction.
func CannotCommit(tx *Transaction) error {
	return &InvalidStateError{fmt.Errorf(
		"transaction %q is in state %q; only 'pending' transactions can be committed",
		tx.TransactionID, tx.State,
	)}
}

// CannotRollback reports a rollback attempt on a terminal transaction.
func CannotRollback(tx *Transaction) error {
	return &InvalidStateError{fmt.Errorf(
		"transaction %q is in state %q; only 'pending' or 'active' transactions can be rolled back",
		tx.TransactionID, tx.State,
	)}
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}
