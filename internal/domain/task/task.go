package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the coarse task lifecycle.
type Status string

const (
	StatusNew                Status = "NEW"
	StatusAssigned           Status = "ASSIGNED"
	StatusInProgress         Status = "IN_PROGRESS"
	StatusAwaitingReview     Status = "AWAITING_REVIEW"
	StatusRevisionsRequired  Status = "REVISIONS_REQUIRED"
	StatusApproved           Status = "APPROVED"
	StatusRejected           Status = "REJECTED"
	StatusClientReview       Status = "CLIENT_REVIEW"
	StatusClientApproved     Status = "CLIENT_APPROVED"
	StatusCompleted          Status = "COMPLETED"
	StatusArchived           Status = "ARCHIVED"
)

var ErrInvalidTransition = errors.New("invalid task status transition")

// RevisionContext describes an active revision loop on a task.
type RevisionContext struct {
	RequestedBy uuid.UUID  `json:"requestedBy"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	Message     string     `json:"message"`
	Cycle       int        `json:"cycle"`
	RequestedAt time.Time  `json:"requestedAt"`
}

// Task represents a unit of agency work moving through review.
type Task struct {
	ID                     int64            `json:"id"`
	TaskID                 uuid.UUID        `json:"taskId"`
	ProjectID              uuid.UUID        `json:"projectId"`
	Title                  string           `json:"title"`
	Description            string           `json:"description,omitempty"`
	Department             string           `json:"department"`
	TaskType               string           `json:"taskType"`
	Priority               int              `json:"priority"`
	Status                 Status           `json:"status"`
	AssigneeID             *uuid.UUID       `json:"assigneeId,omitempty"`
	DueDate                *time.Time       `json:"dueDate,omitempty"`
	WorkflowTemplateID     *uuid.UUID       `json:"workflowTemplateId,omitempty"`
	CurrentApprovalLevel   int              `json:"currentApprovalLevel"`
	ClientApprovalRequired bool             `json:"clientApprovalRequired"`
	Archived               bool             `json:"archived"`
	RevisionContext        *RevisionContext `json:"revisionContext,omitempty"`
	CreatedAt              time.Time        `json:"createdAt"`
	CreatedBy              *string          `json:"createdBy,omitempty"`
	UpdatedAt              time.Time        `json:"updatedAt"`
}

// CanTransitionTo validates a task status transition. The table is the
// source of truth for the coarse lifecycle; the approval ledger drives
// which transitions actually fire.
func (t *Task) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusNew:               {StatusAssigned, StatusAwaitingReview, StatusArchived},
		StatusAssigned:          {StatusInProgress, StatusAwaitingReview, StatusArchived},
		StatusInProgress:        {StatusAwaitingReview, StatusArchived},
		StatusAwaitingReview:    {StatusRevisionsRequired, StatusApproved, StatusRejected, StatusArchived},
		StatusRevisionsRequired: {StatusAwaitingReview, StatusArchived},
		StatusApproved:          {StatusClientReview, StatusCompleted, StatusArchived},
		StatusRejected:          {StatusArchived},
		StatusClientReview:      {StatusClientApproved, StatusRevisionsRequired, StatusArchived},
		StatusClientApproved:    {StatusCompleted, StatusArchived},
		StatusCompleted:         {StatusArchived},
		StatusArchived:          {},
	}
	allowed := transitions[t.Status]
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// Transition applies a status change after validating it.
func (t *Task) Transition(target Status) error {
	if !t.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	t.Status = target
	return nil
}

// Archive marks a task archived. Archived tasks never surface in approval
// queues regardless of their ledger state.
func (t *Task) Archive() error {
	if err := t.Transition(StatusArchived); err != nil {
		return err
	}
	t.Archived = true
	return nil
}

// IsClosed reports whether the task is finished for approval purposes.
func (t *Task) IsClosed() bool {
	return t.Status == StatusCompleted || t.Archived
}

// BeginRevision records a new revision cycle on the task.
func (t *Task) BeginRevision(requestedBy uuid.UUID, message string, now time.Time) {
	cycle := 1
	if t.RevisionContext != nil {
		cycle = t.RevisionContext.Cycle + 1
	}
	t.RevisionContext = &RevisionContext{
		RequestedBy: requestedBy,
		AssigneeID:  t.AssigneeID,
		Message:     message,
		Cycle:       cycle,
		RequestedAt: now,
	}
}

func ValidateStatus(status Status) error {
	switch status {
	case StatusNew, StatusAssigned, StatusInProgress, StatusAwaitingReview,
		StatusRevisionsRequired, StatusApproved, StatusRejected, StatusClientReview,
		StatusClientApproved, StatusCompleted, StatusArchived:
		return nil
	default:
		return errors.New("invalid task status")
	}
}
