package approval

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledger(taskID uuid.UUID, statuses ...StepStatus) []*Step {
	steps := make([]*Step, len(statuses))
	for i, st := range statuses {
		steps[i] = &Step{
			StepID:     uuid.New(),
			TaskID:     taskID,
			Level:      i,
			ApproverID: uuid.New(),
			Status:     st,
		}
	}
	return steps
}

func TestCurrentBlockingStep(t *testing.T) {
	taskID := uuid.New()

	t.Run("fresh ledger blocks at level zero", func(t *testing.T) {
		steps := ledger(taskID, StatusPending, StatusWaiting, StatusWaiting)
		b := CurrentBlockingStep(steps)
		require.NotNil(t, b)
		assert.Equal(t, 0, b.Level)
	})

	t.Run("mid-chain", func(t *testing.T) {
		steps := ledger(taskID, StatusApproved, StatusPending, StatusWaiting)
		b := CurrentBlockingStep(steps)
		require.NotNil(t, b)
		assert.Equal(t, 1, b.Level)
		assert.Equal(t, StatusPending, b.Status)
	})

	t.Run("revision blocks at same level", func(t *testing.T) {
		steps := ledger(taskID, StatusApproved, StatusRevisionRequested, StatusWaiting)
		b := CurrentBlockingStep(steps)
		require.NotNil(t, b)
		assert.Equal(t, 1, b.Level)
	})

	t.Run("fully approved", func(t *testing.T) {
		steps := ledger(taskID, StatusApproved, StatusApproved)
		assert.Nil(t, CurrentBlockingStep(steps))
	})

	t.Run("unsorted input", func(t *testing.T) {
		steps := ledger(taskID, StatusApproved, StatusPending, StatusWaiting)
		steps[0], steps[2] = steps[2], steps[0]
		b := CurrentBlockingStep(steps)
		require.NotNil(t, b)
		assert.Equal(t, 1, b.Level)
	})
}

func TestCheckLedgerInvariant(t *testing.T) {
	taskID := uuid.New()

	valid := [][]StepStatus{
		{StatusPending, StatusWaiting},
		{StatusApproved, StatusPending, StatusWaiting},
		{StatusApproved, StatusApproved},
		{StatusApproved, StatusRejected},
		{StatusApproved, StatusRevisionRequested, StatusWaiting},
		{},
	}
	for _, statuses := range valid {
		assert.NoError(t, CheckLedgerInvariant(ledger(taskID, statuses...)), "%v", statuses)
	}

	invalid := [][]StepStatus{
		{StatusPending, StatusPending},
		{StatusWaiting, StatusApproved},
		{StatusPending, StatusApproved},
		{StatusRevisionRequested, StatusPending},
	}
	for _, statuses := range invalid {
		assert.Error(t, CheckLedgerInvariant(ledger(taskID, statuses...)), "%v", statuses)
	}
}

func TestValidateDecision(t *testing.T) {
	for _, d := range []Decision{DecisionApprove, DecisionReject, DecisionRequestRevision} {
		assert.NoError(t, ValidateDecision(d))
	}
	assert.Error(t, ValidateDecision(Decision("ESCALATE")))
}
