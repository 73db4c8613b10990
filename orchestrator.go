package transact

import "context"

// sagaStep is a participant step registered with a SagaOrchestrator before
// any transaction exists.
type sagaStep struct {
	agentID            string
	action             ActionName
	data               Payload
	compensatingAction ActionName
}

// SagaOrchestrator is a convenience façade over TransactionManager for
// multi-participant sagas: each participant registers its forward and
// compensating action up front, and Execute sequences them as a single
// transaction, rolling back on failure.
//
// The orchestrator has no lifecycle logic of its own beyond delegation to
// the manager's Begin/AddStep/Commit sequence. It is not safe for
// concurrent use; build one per saga.
type SagaOrchestrator struct {
	manager *TransactionManager
	steps   []sagaStep
}

// NewSagaOrchestrator creates an orchestrator over the given manager. A nil
// manager yields a default, handler-less one.
func NewSagaOrchestrator(manager *TransactionManager) *SagaOrchestrator {
	if manager == nil {
		manager = NewTransactionManager(nil)
	}
	return &SagaOrchestrator{
		manager: manager,
		steps:   make([]sagaStep, 0),
	}
}

// Register records a participant step. No transaction exists yet, so no
// engine call happens until Execute.
func (o *SagaOrchestrator) Register(agentID string, action ActionName, data Payload, compensatingAction ActionName) {
	o.steps = append(o.steps, sagaStep{
		agentID:            agentID,
		action:             action,
		data:               data,
		compensatingAction: compensatingAction,
	})
}

// Execute runs all registered steps as one transaction: begin, add each
// step in registration order, then commit, returning the commit result.
func (o *SagaOrchestrator) Execute(ctx context.Context, timeoutSeconds int) (*TransactionResult, error) {
	tx := o.manager.Begin(timeoutSeconds)
	for _, step := range o.steps {
		if _, err := o.manager.AddStep(tx, step.agentID, step.action, step.data, step.compensatingAction); err != nil {
			return nil, err
		}
	}
	return o.manager.Commit(ctx, tx)
}

// Manager returns the underlying TransactionManager.
func (o *SagaOrchestrator) Manager() *TransactionManager {
	return o.manager
}
