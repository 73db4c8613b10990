package transact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateActive.Terminal())
	assert.True(t, StateCommitted.Terminal())
	assert.True(t, StateRolledBack.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestStateTransitions(t *testing.T) {
	legal := []struct{ from, to TransactionState }{
		{StatePending, StateActive},
		{StatePending, StateRolledBack},
		{StateActive, StateCommitted},
		{StateActive, StateRolledBack},
		{StateActive, StateFailed},
	}
	for _, tr := range legal {
		assert.True(t, tr.from.canTransition(tr.to), "%s -> %s should be legal", tr.from, tr.to)
	}

	// No transition returns to pending, and no transition exits a
	// terminal state.
	states := []TransactionState{StatePending, StateActive, StateCommitted, StateRolledBack, StateFailed}
	for _, from := range states {
		assert.False(t, from.canTransition(StatePending), "%s -> pending should be illegal", from)
	}
	for _, from := range []TransactionState{StateCommitted, StateRolledBack, StateFailed} {
		for _, to := range states {
			assert.False(t, from.canTransition(to), "%s -> %s should be illegal", from, to)
		}
	}
}

func TestTransactionDeadline(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tx := &Transaction{CreatedAt: created, TimeoutSeconds: 90}
	assert.Equal(t, created.Add(90*time.Second), tx.Deadline())

	tx.TimeoutSeconds = 0
	assert.Equal(t, created, tx.Deadline())
}

func TestTransactionClone(t *testing.T) {
	tx := &Transaction{
		TransactionID: "tx-1",
		Steps: []TransactionStep{
			{StepID: "s-1", AgentID: "agent", Action: "do", Data: Payload{"k": "v"}, CompensatingAction: "undo"},
		},
		State:          StatePending,
		CreatedAt:      time.Now().UTC(),
		TimeoutSeconds: 60,
	}

	clone := tx.Clone()
	require.Equal(t, tx.TransactionID, clone.TransactionID)
	require.Equal(t, tx.Steps, clone.Steps)

	// The clone's step list is detached from the original.
	clone.Steps = append(clone.Steps, TransactionStep{StepID: "s-2"})
	clone.State = StateActive
	assert.Len(t, tx.Steps, 1)
	assert.Equal(t, StatePending, tx.State)
}

func TestTransactionSerializationShape(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tx := &Transaction{
		TransactionID: "tx-shape",
		Steps: []TransactionStep{
			{StepID: "s-1", AgentID: "billing", Action: "charge_card", Data: Payload{"amount": 500}, CompensatingAction: "refund_card"},
			{StepID: "s-2", AgentID: "email", Action: "send_email", Data: Payload{}},
		},
		State:          StatePending,
		CreatedAt:      created,
		TimeoutSeconds: 60,
	}

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))

	assert.Equal(t, "tx-shape", record["transaction_id"])
	assert.Equal(t, "pending", record["state"])
	assert.Equal(t, "2025-03-01T12:00:00Z", record["created_at"])
	assert.Equal(t, float64(60), record["timeout_seconds"])

	steps, ok := record["steps"].([]any)
	require.True(t, ok)
	require.Len(t, steps, 2)

	first, ok := steps[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "s-1", first["step_id"])
	assert.Equal(t, "billing", first["agent_id"])
	assert.Equal(t, "charge_card", first["action"])
	assert.Equal(t, "refund_card", first["compensating_action"])

	// Absent compensating action is omitted, not emitted as empty.
	second, ok := steps[1].(map[string]any)
	require.True(t, ok)
	_, present := second["compensating_action"]
	assert.False(t, present)
}

func TestTransactionRoundTrip(t *testing.T) {
	original := &Transaction{
		TransactionID: "tx-roundtrip",
		Steps: []TransactionStep{
			{StepID: "s-1", AgentID: "a", Action: "do_a", Data: Payload{"n": float64(1)}, CompensatingAction: "undo_a"},
			{StepID: "s-2", AgentID: "b", Action: "do_b", Data: Payload{"s": "two"}},
		},
		State:          StateActive,
		CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		TimeoutSeconds: 120,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored Transaction
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original.TransactionID, restored.TransactionID)
	assert.Equal(t, original.State, restored.State)
	assert.True(t, original.CreatedAt.Equal(restored.CreatedAt))
	assert.Equal(t, original.TimeoutSeconds, restored.TimeoutSeconds)
	assert.Equal(t, original.Steps, restored.Steps)

	// A deserialized transaction is accepted by the registry restore path.
	manager := NewTransactionManager(nil)
	manager.RegisterTransaction(&restored)
	got, ok := manager.GetTransaction("tx-roundtrip")
	require.True(t, ok)
	assert.Equal(t, StateActive, got.State)
}

func TestResultSerializationShape(t *testing.T) {
	result := &TransactionResult{
		TransactionID:  "tx-1",
		State:          StateRolledBack,
		CompletedSteps: []string{"s-2", "s-1"},
		FailedStep:     "s-3",
		Error:          "card declined",
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "rolled_back", record["state"])
	assert.Equal(t, "s-3", record["failed_step"])
	assert.Equal(t, "card declined", record["error"])

	// Success results omit the failure fields entirely.
	data, err = json.Marshal(&TransactionResult{TransactionID: "tx-2", State: StateCommitted, CompletedSteps: []string{}})
	require.NoError(t, err)
	record = map[string]any{}
	require.NoError(t, json.Unmarshal(data, &record))
	_, hasFailed := record["failed_step"]
	_, hasError := record["error"]
	assert.False(t, hasFailed)
	assert.False(t, hasError)
}

func TestStepIDs(t *testing.T) {
	tx := &Transaction{
		Steps: []TransactionStep{{StepID: "a"}, {StepID: "b"}, {StepID: "c"}},
	}
	assert.Equal(t, []string{"a", "b", "c"}, tx.StepIDs())
	assert.Empty(t, (&Transaction{}).StepIDs())
}
