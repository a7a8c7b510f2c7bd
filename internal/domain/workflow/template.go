package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agency-hub/agency-hub/internal/domain/user"
)

// Status represents workflow template lifecycle status.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusAvailable Status = "AVAILABLE"
	// StatusSystemProtected marks seeded templates that cannot be deleted.
	StatusSystemProtected Status = "SYSTEM_PROTECTED"
)

var ErrProtectedTemplate = errors.New("template is system protected")

// ValidationError reports a malformed template or step definition.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "workflow validation: " + e.Msg
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StrategyKind discriminates the approver resolution strategy.
type StrategyKind string

const (
	StrategyRole         StrategyKind = "ROLE"
	StrategyProjectRole  StrategyKind = "PROJECT_ROLE"
	StrategySpecificUser StrategyKind = "SPECIFIC_USER"
)

// ApproverStrategy is a closed union: exactly one payload field is set,
// matching Kind. Use the constructors; Validate enforces the invariant for
// values decoded from the wire.
type ApproverStrategy struct {
	Kind           StrategyKind `json:"kind"`
	RoleID         user.Role    `json:"role_id,omitempty"`
	ProjectRoleKey string       `json:"project_role_key,omitempty"`
	UserID         uuid.UUID    `json:"user_id,omitempty"`
}

// RoleStrategy resolves to whoever holds a system role.
func RoleStrategy(role user.Role) ApproverStrategy {
	return ApproverStrategy{Kind: StrategyRole, RoleID: role}
}

// ProjectRoleStrategy resolves through the parent project's role assignments.
func ProjectRoleStrategy(key string) ApproverStrategy {
	return ApproverStrategy{Kind: StrategyProjectRole, ProjectRoleKey: key}
}

// SpecificUserStrategy resolves to one fixed user regardless of context.
func SpecificUserStrategy(userID uuid.UUID) ApproverStrategy {
	return ApproverStrategy{Kind: StrategySpecificUser, UserID: userID}
}

// Validate enforces that exactly one payload field is populated and that it
// matches the declared kind.
func (s ApproverStrategy) Validate() error {
	set := 0
	if s.RoleID != "" {
		set++
	}
	if s.ProjectRoleKey != "" {
		set++
	}
	if s.UserID != uuid.Nil {
		set++
	}
	if set == 0 {
		return validationf("step approver strategy is empty")
	}
	if set > 1 {
		return validationf("step approver strategy sets %d fields, want exactly one", set)
	}
	switch s.Kind {
	case StrategyRole:
		if s.RoleID == "" {
			return validationf("strategy kind ROLE requires role_id")
		}
		if err := user.ValidateRole(s.RoleID); err != nil {
			return validationf("strategy role_id: %v", err)
		}
	case StrategyProjectRole:
		if s.ProjectRoleKey == "" {
			return validationf("strategy kind PROJECT_ROLE requires project_role_key")
		}
	case StrategySpecificUser:
		if s.UserID == uuid.Nil {
			return validationf("strategy kind SPECIFIC_USER requires user_id")
		}
	default:
		return validationf("unknown strategy kind: %q", s.Kind)
	}
	return nil
}

// UnmarshalJSON accepts the wire shape used by dashboard collaborators,
// where kind may be omitted and is inferred from whichever field is set.
func (s *ApproverStrategy) UnmarshalJSON(data []byte) error {
	type alias ApproverStrategy
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = ApproverStrategy(a)
	if s.Kind == "" {
		switch {
		case s.RoleID != "":
			s.Kind = StrategyRole
		case s.ProjectRoleKey != "":
			s.Kind = StrategyProjectRole
		case s.UserID != uuid.Nil:
			s.Kind = StrategySpecificUser
		}
	}
	return s.Validate()
}

// StepTemplate is one ordered stage in a template.
type StepTemplate struct {
	StepTemplateID uuid.UUID        `json:"stepTemplateId"`
	TemplateID     uuid.UUID        `json:"templateId"`
	Order          int              `json:"order"`
	Label          string           `json:"label"`
	Approver       ApproverStrategy `json:"approver"`
}

// Template is a reusable, ordered approval chain definition.
type Template struct {
	ID                     int64          `json:"id"`
	TemplateID             uuid.UUID      `json:"templateId"`
	Name                   string         `json:"name"`
	Description            string         `json:"description,omitempty"`
	Department             *string        `json:"department,omitempty"`
	TaskType               *string        `json:"taskType,omitempty"`
	MatchExpression        *string        `json:"matchExpression,omitempty"`
	Status                 Status         `json:"status"`
	ClientApprovalRequired bool           `json:"clientApprovalRequired"`
	Steps                  []StepTemplate `json:"steps"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

// Validate checks template invariants: a name, at least one step, contiguous
// zero-based unique orders, and a valid approver strategy per step.
func (t *Template) Validate() error {
	if t.Name == "" {
		return validationf("name is required")
	}
	if len(t.Steps) == 0 {
		return validationf("at least one step is required")
	}
	seen := make(map[int]struct{}, len(t.Steps))
	for i := range t.Steps {
		step := &t.Steps[i]
		if step.Label == "" {
			return validationf("step %d: label is required", step.Order)
		}
		if step.Order < 0 || step.Order >= len(t.Steps) {
			return validationf("step order %d out of range [0,%d)", step.Order, len(t.Steps))
		}
		if _, ok := seen[step.Order]; ok {
			return validationf("duplicate step order %d", step.Order)
		}
		seen[step.Order] = struct{}{}
		if err := step.Approver.Validate(); err != nil {
			return err
		}
	}
	// len(t.Steps) distinct orders all inside [0,len) means contiguous.
	return nil
}

// Specificity scores how narrowly a template is targeted: both filters set
// beats one beats none. Used to rank applicable templates.
func (t *Template) Specificity() int {
	n := 0
	if t.Department != nil && *t.Department != "" {
		n++
	}
	if t.TaskType != nil && *t.TaskType != "" {
		n++
	}
	return n
}

// AppliesTo reports whether the template's filters admit the given
// department and task type. A nil filter admits everything.
func (t *Template) AppliesTo(department, taskType string) bool {
	if t.Department != nil && *t.Department != "" && *t.Department != department {
		return false
	}
	if t.TaskType != nil && *t.TaskType != "" && *t.TaskType != taskType {
		return false
	}
	return true
}

// SortSteps orders steps by their Order field ascending.
func (t *Template) SortSteps() {
	for i := 1; i < len(t.Steps); i++ {
		for j := i; j > 0 && t.Steps[j-1].Order > t.Steps[j].Order; j-- {
			t.Steps[j-1], t.Steps[j] = t.Steps[j], t.Steps[j-1]
		}
	}
}

// Renumber rewrites step orders to be contiguous from zero, preserving the
// current relative order. Called after add/remove/move mutations.
func (t *Template) Renumber() {
	t.SortSteps()
	for i := range t.Steps {
		t.Steps[i].Order = i
	}
}

// MoveStep swaps a step with its neighbour. delta must be -1 (up) or +1
// (down); out-of-range moves are no-ops.
func (t *Template) MoveStep(stepTemplateID uuid.UUID, delta int) error {
	if delta != -1 && delta != 1 {
		return validationf("move delta must be -1 or +1")
	}
	t.SortSteps()
	idx := -1
	for i := range t.Steps {
		if t.Steps[i].StepTemplateID == stepTemplateID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return validationf("step %s not found in template", stepTemplateID)
	}
	target := idx + delta
	if target < 0 || target >= len(t.Steps) {
		return nil
	}
	t.Steps[idx], t.Steps[target] = t.Steps[target], t.Steps[idx]
	t.Renumber()
	return nil
}

func ValidateStatus(status Status) error {
	switch status {
	case StatusActive, StatusAvailable, StatusSystemProtected:
		return nil
	default:
		return errors.New("invalid template status")
	}
}
