package approval

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// StepStatus represents the lifecycle of one ledger row.
type StepStatus string

const (
	// StatusWaiting marks a step whose turn has not come.
	StatusWaiting StepStatus = "WAITING"
	// StatusPending marks the single currently-actionable step of a task.
	StatusPending           StepStatus = "PENDING"
	StatusApproved          StepStatus = "APPROVED"
	StatusRejected          StepStatus = "REJECTED"
	StatusRevisionRequested StepStatus = "REVISION_REQUESTED"
	StatusRevisionSubmitted StepStatus = "REVISION_SUBMITTED"
)

// Decision is an approver's action on a pending step.
type Decision string

const (
	DecisionApprove         Decision = "APPROVE"
	DecisionReject          Decision = "REJECT"
	DecisionRequestRevision Decision = "REQUEST_REVISION"
)

var (
	ErrUnresolvableApprover = errors.New("approver strategy yields no valid user")
	ErrNotCurrentApprover   = errors.New("actor is not the current approver")
	ErrNoActiveStep         = errors.New("task has no pending approval step")
)

// Step is one stateful ledger row: the instantiation of a template stage for
// a single task. Rows are created once per level and only ever transition
// status; they are never deleted.
type Step struct {
	ID             int64      `json:"id"`
	StepID         uuid.UUID  `json:"stepId"`
	TaskID         uuid.UUID  `json:"taskId"`
	StepTemplateID *uuid.UUID `json:"stepTemplateId,omitempty"`
	Level          int        `json:"level"`
	Label          string     `json:"label"`
	ApproverID     uuid.UUID  `json:"approverId"`
	Status         StepStatus `json:"status"`
	Comment        *string    `json:"comment,omitempty"`
	MilestoneID    *uuid.UUID `json:"milestoneId,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// SortByLevel orders ledger rows ascending by level.
func SortByLevel(steps []*Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Level < steps[j].Level
	})
}

// CurrentBlockingStep returns the task's blocking step: the lowest-level row
// whose status is PENDING or WAITING. All consumers derive "where is this
// task stuck" from this one function. Returns nil when the ledger is empty
// or fully resolved.
func CurrentBlockingStep(steps []*Step) *Step {
	SortByLevel(steps)
	for _, s := range steps {
		switch s.Status {
		case StatusPending, StatusWaiting, StatusRevisionRequested, StatusRevisionSubmitted:
			return s
		}
	}
	return nil
}

// CheckLedgerInvariant verifies the single-pending-row invariant for one
// task's rows: at most one PENDING row, every row below the blocking level
// APPROVED, and nothing actionable above a WAITING row.
func CheckLedgerInvariant(steps []*Step) error {
	SortByLevel(steps)
	pending := 0
	blocked := false
	for _, s := range steps {
		switch s.Status {
		case StatusPending, StatusRevisionRequested, StatusRevisionSubmitted:
			pending++
			if pending > 1 {
				return fmt.Errorf("ledger has %d active rows, want at most one", pending)
			}
			blocked = true
		case StatusWaiting:
			blocked = true
		case StatusApproved:
			if blocked {
				return fmt.Errorf("approved row at level %d above the blocking level", s.Level)
			}
		case StatusRejected:
			blocked = true
		default:
			return fmt.Errorf("unknown step status %q at level %d", s.Status, s.Level)
		}
	}
	return nil
}

// ValidateDecision checks a wire decision value.
func ValidateDecision(d Decision) error {
	switch d {
	case DecisionApprove, DecisionReject, DecisionRequestRevision:
		return nil
	default:
		return fmt.Errorf("invalid decision %q", d)
	}
}
