// Package transact coordinates multi-step operations across independent
// participants as a single logical unit: either every step commits, or every
// already-completed step is undone via its compensating action, in reverse
// order. This is the saga pattern applied to workflows that cannot share one
// atomic database transaction. For background on distributed sagas, see this
// 2017 JOTB talk by Caitie McCaffrey:
// https://www.youtube.com/watch?v=0UTOLRTwOX0
//
// Overview
//
//  1. Define your handlers:
//     - A handler is anything implementing Handler, or a plain function
//       wrapped in HandlerFunc. It receives the action name and payload and
//       signals failure by returning an error.
//  2. Build a HandlerRegistry:
//     - Use NewHandlerRegistry and Register each handler under its action
//       name. Actions with no registered handler are legal no-ops, which
//       keeps dry runs cheap.
//  3. Drive transactions through a TransactionManager:
//     - Begin creates a pending transaction with a timeout deadline.
//     - AddStep appends forward/compensating action pairs while pending.
//     - Commit executes the steps in order; on the first failure it
//       compensates completed steps in reverse and reports the outcome in a
//       TransactionResult rather than an error.
//     - Rollback abandons a pending or active transaction, compensating
//       every registered step.
//  4. Or use the SagaOrchestrator façade:
//     - Register participant steps up front, then Execute runs
//       begin/add/commit in one call.
//
// Persistence is external to the engine: Store implementations (MemoryStore,
// FileStore) snapshot the manager's transactions to a single JSON array and
// restore them through RegisterTransaction.
//
// For complete, documented programs, see the examples directory.
package transact
