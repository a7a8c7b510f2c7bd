package task

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from   Status
		to     Status
		wantOK bool
	}{
		{StatusNew, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusAwaitingReview, true},
		{StatusAwaitingReview, StatusApproved, true},
		{StatusAwaitingReview, StatusRejected, true},
		{StatusAwaitingReview, StatusRevisionsRequired, true},
		{StatusRevisionsRequired, StatusAwaitingReview, true},
		{StatusApproved, StatusClientReview, true},
		{StatusApproved, StatusCompleted, true},
		{StatusClientReview, StatusClientApproved, true},
		{StatusClientApproved, StatusCompleted, true},
		{StatusCompleted, StatusArchived, true},
		{StatusCompleted, StatusAwaitingReview, false},
		{StatusArchived, StatusNew, false},
		{StatusRejected, StatusApproved, false},
		{StatusNew, StatusCompleted, false},
	}
	for _, c := range cases {
		tk := &Task{Status: c.from}
		assert.Equal(t, c.wantOK, tk.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	tk := &Task{Status: StatusCompleted}
	err := tk.Transition(StatusAwaitingReview)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, tk.Status)
}

func TestArchiveSetsFlag(t *testing.T) {
	tk := &Task{Status: StatusCompleted}
	require.NoError(t, tk.Archive())
	assert.True(t, tk.Archived)
	assert.Equal(t, StatusArchived, tk.Status)
	assert.True(t, tk.IsClosed())
}

func TestBeginRevisionIncrementsCycle(t *testing.T) {
	now := time.Now().UTC()
	reviewer := uuid.New()
	assignee := uuid.New()
	tk := &Task{Status: StatusAwaitingReview, AssigneeID: &assignee}

	tk.BeginRevision(reviewer, "tighten the logo spacing", now)
	require.NotNil(t, tk.RevisionContext)
	assert.Equal(t, 1, tk.RevisionContext.Cycle)
	assert.Equal(t, reviewer, tk.RevisionContext.RequestedBy)
	require.NotNil(t, tk.RevisionContext.AssigneeID)
	assert.Equal(t, assignee, *tk.RevisionContext.AssigneeID)

	tk.BeginRevision(reviewer, "second pass", now.Add(time.Hour))
	assert.Equal(t, 2, tk.RevisionContext.Cycle)
}
