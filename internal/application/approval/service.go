package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	appNotification "github.com/agency-hub/agency-hub/internal/application/notification"
	appWorkflow "github.com/agency-hub/agency-hub/internal/application/workflow"
	domainApproval "github.com/agency-hub/agency-hub/internal/domain/approval"
	"github.com/agency-hub/agency-hub/internal/domain/audit"
	"github.com/agency-hub/agency-hub/internal/domain/notification"
	"github.com/agency-hub/agency-hub/internal/domain/project"
	"github.com/agency-hub/agency-hub/internal/domain/task"
	"github.com/agency-hub/agency-hub/internal/domain/user"
	"github.com/agency-hub/agency-hub/internal/domain/workflow"
)

// Actor describes an authenticated actor.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     user.Role
}

// Service is the approval resolution engine: it instantiates templates into
// ledger rows, records decisions, and keeps the task status in lockstep with
// the ledger.
type Service struct {
	approvalRepo domainApproval.Repository
	taskRepo     task.Repository
	projectRepo  project.Repository
	userRepo     user.Repository
	workflowSvc  *appWorkflow.Service
	auditSvc     *appAudit.Service
	notifSvc     *appNotification.Service
	logger       zerolog.Logger
}

// NewService creates an approval service.
func NewService(
	approvalRepo domainApproval.Repository,
	taskRepo task.Repository,
	projectRepo project.Repository,
	userRepo user.Repository,
	workflowSvc *appWorkflow.Service,
	auditSvc *appAudit.Service,
	notifSvc *appNotification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		approvalRepo: approvalRepo,
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
		userRepo:     userRepo,
		workflowSvc:  workflowSvc,
		auditSvc:     auditSvc,
		notifSvc:     notifSvc,
		logger:       logger.With().Str("service", "approval").Logger(),
	}
}

// ResolveApprover resolves an approver strategy to a concrete active user at
// instantiation time. ROLE strategies demand exactly one active holder:
// zero means nobody can act, more than one means the system cannot pick a
// side, and both fail closed.
func (s *Service) ResolveApprover(ctx context.Context, strategy workflow.ApproverStrategy, proj *project.Project) (uuid.UUID, error) {
	switch strategy.Kind {
	case workflow.StrategyRole:
		holders, err := s.userRepo.ListByRole(ctx, strategy.RoleID)
		if err != nil {
			return uuid.Nil, err
		}
		active := holders[:0]
		for _, u := range holders {
			if u.IsActive() {
				active = append(active, u)
			}
		}
		if len(active) != 1 {
			s.logger.Warn().
				Str("role", string(strategy.RoleID)).
				Int("holders", len(active)).
				Msg("role strategy needs exactly one active holder")
			return uuid.Nil, fmt.Errorf("%w: role %s has %d active holders", domainApproval.ErrUnresolvableApprover, strategy.RoleID, len(active))
		}
		return active[0].UserID, nil

	case workflow.StrategyProjectRole:
		if proj == nil {
			return uuid.Nil, fmt.Errorf("%w: no project for project role %q", domainApproval.ErrUnresolvableApprover, strategy.ProjectRoleKey)
		}
		userID, err := proj.UserForRole(strategy.ProjectRoleKey)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: project role %q unassigned on project %s", domainApproval.ErrUnresolvableApprover, strategy.ProjectRoleKey, proj.ProjectID)
		}
		return s.requireActiveUser(ctx, userID)

	case workflow.StrategySpecificUser:
		return s.requireActiveUser(ctx, strategy.UserID)

	default:
		return uuid.Nil, fmt.Errorf("%w: unknown strategy kind %q", domainApproval.ErrUnresolvableApprover, strategy.Kind)
	}
}

func (s *Service) requireActiveUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if u == nil || !u.IsActive() {
		return uuid.Nil, fmt.Errorf("%w: user %s is not active", domainApproval.ErrUnresolvableApprover, userID)
	}
	return u.UserID, nil
}

// AssignWorkflow instantiates a template against a task: one ledger row per
// step, level 0 pending, the rest waiting. Every approver is resolved and
// snapshotted up front; a single unresolvable step aborts the whole
// assignment before anything is written. Passing a nil templateID selects
// the best applicable template for the task.
func (s *Service) AssignWorkflow(ctx context.Context, taskID uuid.UUID, templateID *uuid.UUID, actor Actor) ([]*domainApproval.Step, error) {
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	if t.IsClosed() {
		return nil, fmt.Errorf("task %s is closed", taskID)
	}
	existing, err := s.approvalRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("task %s already has a workflow assigned", taskID)
	}

	var tpl *workflow.Template
	if templateID != nil {
		tpl, err = s.workflowSvc.GetTemplate(ctx, *templateID)
		if err != nil {
			return nil, err
		}
	} else {
		tpl, err = s.workflowSvc.FindApplicable(ctx, t)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, fmt.Errorf("no applicable workflow template for task %s", taskID)
		}
	}

	proj, err := s.projectRepo.GetByID(ctx, t.ProjectID)
	if err != nil {
		return nil, err
	}

	tpl.SortSteps()
	now := time.Now().UTC()
	steps := make([]*domainApproval.Step, 0, len(tpl.Steps))
	for i := range tpl.Steps {
		st := &tpl.Steps[i]
		approverID, err := s.ResolveApprover(ctx, st.Approver, proj)
		if err != nil {
			return nil, err
		}
		status := domainApproval.StatusWaiting
		if st.Order == 0 {
			status = domainApproval.StatusPending
		}
		stepTemplateID := st.StepTemplateID
		steps = append(steps, &domainApproval.Step{
			StepID:         uuid.New(),
			TaskID:         taskID,
			StepTemplateID: &stepTemplateID,
			Level:          st.Order,
			Label:          st.Label,
			ApproverID:     approverID,
			Status:         status,
			CreatedAt:      now,
		})
	}

	if err := s.approvalRepo.CreateBatch(ctx, steps); err != nil {
		return nil, fmt.Errorf("failed to create approval steps: %w", err)
	}

	tplID := tpl.TemplateID
	t.WorkflowTemplateID = &tplID
	t.CurrentApprovalLevel = 0
	t.ClientApprovalRequired = tpl.ClientApprovalRequired
	if t.Status != task.StatusAwaitingReview {
		if err := t.Transition(task.StatusAwaitingReview); err != nil {
			return nil, err
		}
	}
	t.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTask,
		EntityID:   taskID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor.Username,
		ActorRoles: []string{string(actor.Role)},
		Reason:     fmt.Sprintf("workflow %s assigned", tpl.TemplateID),
	})
	s.notifyStepPending(ctx, t, steps[0])

	s.logger.Info().
		Str("task_id", taskID.String()).
		Str("template_id", tpl.TemplateID.String()).
		Int("steps", len(steps)).
		Msg("workflow assigned")
	return steps, nil
}

// RecordDecision records the current approver's decision on a task. The
// status swap is a compare-and-swap at the repository, so two concurrent
// decisions on the same step cannot both land; the loser sees
// ErrNoActiveStep.
func (s *Service) RecordDecision(ctx context.Context, taskID uuid.UUID, actor Actor, decision domainApproval.Decision, comment *string) (*domainApproval.Step, error) {
	if err := domainApproval.ValidateDecision(decision); err != nil {
		return nil, err
	}
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	if t.IsClosed() {
		return nil, domainApproval.ErrNoActiveStep
	}

	steps, err := s.approvalRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	active := domainApproval.CurrentBlockingStep(steps)
	if active == nil || active.Status != domainApproval.StatusPending {
		return nil, domainApproval.ErrNoActiveStep
	}
	if active.ApproverID != actor.UserID {
		return nil, domainApproval.ErrNotCurrentApprover
	}

	now := time.Now().UTC()
	switch decision {
	case domainApproval.DecisionApprove:
		return s.approve(ctx, t, active, actor, comment, now)
	case domainApproval.DecisionReject:
		return s.reject(ctx, t, active, actor, comment, now)
	default:
		return s.requestRevision(ctx, t, active, actor, comment, now)
	}
}

func (s *Service) approve(ctx context.Context, t *task.Task, active *domainApproval.Step, actor Actor, comment *string, now time.Time) (*domainApproval.Step, error) {
	swapped, err := s.approvalRepo.CompareAndSwapStatus(ctx, active.StepID, active.Status, domainApproval.StatusApproved, &now, comment)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domainApproval.ErrNoActiveStep
	}
	active.Status = domainApproval.StatusApproved
	active.ReviewedAt = &now
	active.Comment = comment

	next, err := s.approvalRepo.GetByTaskLevel(ctx, t.TaskID, active.Level+1)
	if err != nil {
		return nil, err
	}
	if next != nil {
		promoted, err := s.approvalRepo.CompareAndSwapStatus(ctx, next.StepID, domainApproval.StatusWaiting, domainApproval.StatusPending, nil, nil)
		if err != nil {
			return nil, err
		}
		if !promoted {
			return nil, fmt.Errorf("step %s at level %d is not waiting", next.StepID, next.Level)
		}
		next.Status = domainApproval.StatusPending
		t.CurrentApprovalLevel = next.Level
		t.UpdatedAt = now
		if err := s.taskRepo.Update(ctx, t); err != nil {
			return nil, err
		}
		s.notifyStepPending(ctx, t, next)
	} else {
		if err := s.completeChain(ctx, t, now); err != nil {
			return nil, err
		}
	}

	s.auditDecision(ctx, active, actor, audit.ActionApprove, comment)
	s.notifyDecision(ctx, t, active, "approved")
	return active, nil
}

func (s *Service) reject(ctx context.Context, t *task.Task, active *domainApproval.Step, actor Actor, comment *string, now time.Time) (*domainApproval.Step, error) {
	swapped, err := s.approvalRepo.CompareAndSwapStatus(ctx, active.StepID, active.Status, domainApproval.StatusRejected, &now, comment)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domainApproval.ErrNoActiveStep
	}
	active.Status = domainApproval.StatusRejected
	active.ReviewedAt = &now
	active.Comment = comment

	if err := t.Transition(task.StatusRejected); err != nil {
		return nil, err
	}
	t.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.auditDecision(ctx, active, actor, audit.ActionReject, comment)
	s.notifyDecision(ctx, t, active, "rejected")
	return active, nil
}

func (s *Service) requestRevision(ctx context.Context, t *task.Task, active *domainApproval.Step, actor Actor, comment *string, now time.Time) (*domainApproval.Step, error) {
	swapped, err := s.approvalRepo.CompareAndSwapStatus(ctx, active.StepID, active.Status, domainApproval.StatusRevisionRequested, &now, comment)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domainApproval.ErrNoActiveStep
	}
	active.Status = domainApproval.StatusRevisionRequested
	active.ReviewedAt = &now
	active.Comment = comment

	message := ""
	if comment != nil {
		message = *comment
	}
	t.BeginRevision(actor.UserID, message, now)
	if err := t.Transition(task.StatusRevisionsRequired); err != nil {
		return nil, err
	}
	t.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.auditDecision(ctx, active, actor, audit.ActionRequestRevision, comment)
	s.notifyDecision(ctx, t, active, "revision requested")
	return active, nil
}

// ResubmitRevision moves a revision-requested step back in front of the same
// approver. Only the task assignee resubmits.
func (s *Service) ResubmitRevision(ctx context.Context, taskID uuid.UUID, actor Actor) (*domainApproval.Step, error) {
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	if t.Status != task.StatusRevisionsRequired {
		return nil, domainApproval.ErrNoActiveStep
	}
	if t.AssigneeID == nil || *t.AssigneeID != actor.UserID {
		return nil, fmt.Errorf("only the assignee can resubmit task %s", taskID)
	}

	steps, err := s.approvalRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	var target *domainApproval.Step
	for _, st := range steps {
		if st.Status == domainApproval.StatusRevisionRequested {
			target = st
			break
		}
	}
	if target == nil {
		return nil, domainApproval.ErrNoActiveStep
	}

	now := time.Now().UTC()
	swapped, err := s.approvalRepo.CompareAndSwapStatus(ctx, target.StepID, domainApproval.StatusRevisionRequested, domainApproval.StatusRevisionSubmitted, nil, nil)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domainApproval.ErrNoActiveStep
	}
	// The submitted marker lands in the audit trail, then the row goes
	// straight back to pending so it reappears in the approver's inbox.
	swapped, err = s.approvalRepo.CompareAndSwapStatus(ctx, target.StepID, domainApproval.StatusRevisionSubmitted, domainApproval.StatusPending, nil, nil)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, domainApproval.ErrNoActiveStep
	}
	target.Status = domainApproval.StatusPending

	if err := t.Transition(task.StatusAwaitingReview); err != nil {
		return nil, err
	}
	t.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeApprovalStep,
		EntityID:   target.StepID.String(),
		Action:     audit.ActionResubmit,
		Actor:      actor.Username,
		ActorRoles: []string{string(actor.Role)},
		Reason:     "revision resubmitted",
	})
	s.notifyStepPending(ctx, t, target)
	return target, nil
}

// RecordClientDecision records the external client gate decision on a task
// sitting in client review. A client rejection reopens the final internal
// step as a revision request so the normal revision loop handles the rework.
func (s *Service) RecordClientDecision(ctx context.Context, taskID uuid.UUID, approve bool, comment *string, actor Actor) (*domainApproval.ClientApproval, error) {
	t, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	if t.Status != task.StatusClientReview {
		return nil, fmt.Errorf("task %s is not in client review", taskID)
	}
	ca, err := s.approvalRepo.GetClientApprovalByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if ca == nil || ca.Status != domainApproval.ClientPending {
		return nil, fmt.Errorf("task %s has no pending client approval", taskID)
	}

	now := time.Now().UTC()
	ca.Comment = comment
	ca.ReviewedAt = &now

	if approve {
		ca.Status = domainApproval.ClientApproved
		if err := t.Transition(task.StatusClientApproved); err != nil {
			return nil, err
		}
	} else {
		ca.Status = domainApproval.ClientRejected
		steps, err := s.approvalRepo.ListByTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		domainApproval.SortByLevel(steps)
		if len(steps) > 0 {
			last := steps[len(steps)-1]
			reopened, err := s.approvalRepo.CompareAndSwapStatus(ctx, last.StepID, domainApproval.StatusApproved, domainApproval.StatusRevisionRequested, &now, comment)
			if err != nil {
				return nil, err
			}
			if !reopened {
				return nil, domainApproval.ErrNoActiveStep
			}
		}
		message := ""
		if comment != nil {
			message = *comment
		}
		t.BeginRevision(actor.UserID, message, now)
		if err := t.Transition(task.StatusRevisionsRequired); err != nil {
			return nil, err
		}
	}

	if err := s.approvalRepo.UpdateClientApproval(ctx, ca); err != nil {
		return nil, err
	}
	t.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	action := audit.ActionReject
	if approve {
		action = audit.ActionApprove
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeClientApproval,
		EntityID:   ca.ClientApprovalID.String(),
		Action:     action,
		Actor:      actor.Username,
		ActorRoles: []string{string(actor.Role)},
		Reason:     "client decision recorded",
	})
	return ca, nil
}

// ListSteps returns a task's ledger in level order.
func (s *Service) ListSteps(ctx context.Context, taskID uuid.UUID) ([]*domainApproval.Step, error) {
	steps, err := s.approvalRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	domainApproval.SortByLevel(steps)
	return steps, nil
}

// SendPendingReminders nudges approvers whose step has sat pending past the
// cutoff. At most one reminder per step per cutoff window.
func (s *Service) SendPendingReminders(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.approvalRepo.ListPendingOlderThan(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, st := range stale {
		recent, err := s.notifSvc.HasRecentReminder(ctx, st.StepID, cutoff)
		if err != nil {
			s.logger.Warn().Err(err).Str("step_id", st.StepID.String()).Msg("reminder check failed")
			continue
		}
		if recent {
			continue
		}
		stepID := st.StepID
		n := notification.NewNotification(
			notification.KindApprovalReminder,
			st.TaskID,
			st.ApproverID,
			"Approval reminder",
			fmt.Sprintf("Step %q is still waiting on your decision", st.Label),
			nil,
		)
		n.StepID = &stepID
		if err := s.notifSvc.Notify(ctx, n); err != nil {
			s.logger.Warn().Err(err).Str("step_id", st.StepID.String()).Msg("reminder delivery failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// completeChain runs after the final internal step approves: the task moves
// to APPROVED, then on to the client gate when required.
func (s *Service) completeChain(ctx context.Context, t *task.Task, now time.Time) error {
	if err := t.Transition(task.StatusApproved); err != nil {
		return err
	}
	if t.ClientApprovalRequired {
		if err := t.Transition(task.StatusClientReview); err != nil {
			return err
		}
		ca, err := s.approvalRepo.GetClientApprovalByTask(ctx, t.TaskID)
		if err != nil {
			return err
		}
		if ca == nil {
			ca = &domainApproval.ClientApproval{
				ClientApprovalID: uuid.New(),
				TaskID:           t.TaskID,
				Status:           domainApproval.ClientPending,
				CreatedAt:        now,
			}
			if err := s.approvalRepo.CreateClientApproval(ctx, ca); err != nil {
				return err
			}
		} else if ca.Status != domainApproval.ClientPending {
			ca.Status = domainApproval.ClientPending
			ca.Comment = nil
			ca.ReviewedAt = nil
			if err := s.approvalRepo.UpdateClientApproval(ctx, ca); err != nil {
				return err
			}
		}
	}
	t.UpdatedAt = now
	return s.taskRepo.Update(ctx, t)
}

func (s *Service) auditDecision(ctx context.Context, st *domainApproval.Step, actor Actor, action audit.Action, comment *string) {
	reason := "decision recorded"
	if comment != nil && *comment != "" {
		reason = *comment
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeApprovalStep,
		EntityID:   st.StepID.String(),
		Action:     action,
		Actor:      actor.Username,
		ActorRoles: []string{string(actor.Role)},
		Reason:     reason,
	})
}

func (s *Service) notifyStepPending(ctx context.Context, t *task.Task, st *domainApproval.Step) {
	stepID := st.StepID
	payload, _ := json.Marshal(map[string]interface{}{
		"taskId": t.TaskID.String(),
		"stepId": st.StepID.String(),
		"level":  st.Level,
	})
	n := notification.NewNotification(
		notification.KindApprovalRequested,
		t.TaskID,
		st.ApproverID,
		"Approval requested",
		fmt.Sprintf("%q needs your approval: %s", t.Title, st.Label),
		payload,
	)
	n.StepID = &stepID
	if err := s.notifSvc.Notify(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("step_id", st.StepID.String()).Msg("failed to notify approver")
	}
}

func (s *Service) notifyDecision(ctx context.Context, t *task.Task, st *domainApproval.Step, outcome string) {
	if t.AssigneeID == nil {
		return
	}
	stepID := st.StepID
	payload, _ := json.Marshal(map[string]interface{}{
		"taskId":  t.TaskID.String(),
		"stepId":  st.StepID.String(),
		"status":  st.Status,
		"outcome": outcome,
	})
	n := notification.NewNotification(
		notification.KindDecisionRecorded,
		t.TaskID,
		*t.AssigneeID,
		"Decision recorded",
		fmt.Sprintf("%q: step %s %s", t.Title, st.Label, outcome),
		payload,
	)
	n.StepID = &stepID
	if err := s.notifSvc.Notify(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("step_id", st.StepID.String()).Msg("failed to notify assignee")
	}
}
