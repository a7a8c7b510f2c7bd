package approval

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	appNotification "github.com/agency-hub/agency-hub/internal/application/notification"
	appWorkflow "github.com/agency-hub/agency-hub/internal/application/workflow"
	domainApproval "github.com/agency-hub/agency-hub/internal/domain/approval"
	approvalmocks "github.com/agency-hub/agency-hub/internal/domain/approval/mocks"
	"github.com/agency-hub/agency-hub/internal/domain/audit"
	"github.com/agency-hub/agency-hub/internal/domain/notification"
	"github.com/agency-hub/agency-hub/internal/domain/project"
	projectmocks "github.com/agency-hub/agency-hub/internal/domain/project/mocks"
	"github.com/agency-hub/agency-hub/internal/domain/task"
	taskmocks "github.com/agency-hub/agency-hub/internal/domain/task/mocks"
	"github.com/agency-hub/agency-hub/internal/domain/user"
	usermocks "github.com/agency-hub/agency-hub/internal/domain/user/mocks"
	"github.com/agency-hub/agency-hub/internal/domain/workflow"
	workflowmocks "github.com/agency-hub/agency-hub/internal/domain/workflow/mocks"
)

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *audit.AuditLog) error { return nil }
func (fakeAuditRepo) GetByID(context.Context, uuid.UUID) (*audit.AuditLog, error) {
	return nil, nil
}
func (fakeAuditRepo) GetByEntityID(context.Context, audit.EntityType, string) ([]*audit.AuditLog, error) {
	return nil, nil
}
func (fakeAuditRepo) Query(context.Context, audit.QueryFilter, *audit.Cursor, int) ([]*audit.AuditLog, *audit.Cursor, error) {
	return nil, nil, nil
}

type fakeNotifRepo struct{}

func (fakeNotifRepo) Create(context.Context, *notification.Notification) error { return nil }
func (fakeNotifRepo) GetByID(context.Context, uuid.UUID) (*notification.Notification, error) {
	return nil, nil
}
func (fakeNotifRepo) List(context.Context, notification.Filter, int, int) ([]*notification.Notification, error) {
	return nil, nil
}
func (fakeNotifRepo) ListPending(context.Context, int) ([]*notification.Notification, error) {
	return nil, nil
}
func (fakeNotifRepo) Update(context.Context, *notification.Notification) error { return nil }
func (fakeNotifRepo) HasRecentReminder(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

type fakeHub struct {
	messages []*notification.SSEMessage
}

func (h *fakeHub) BroadcastToUser(_ string, msg *notification.SSEMessage) {
	h.messages = append(h.messages, msg)
}
func (h *fakeHub) BroadcastToAll(msg *notification.SSEMessage) {
	h.messages = append(h.messages, msg)
}

type fixture struct {
	approvalRepo *approvalmocks.MockRepository
	taskRepo     *taskmocks.MockRepository
	projectRepo  *projectmocks.MockRepository
	userRepo     *usermocks.MockRepository
	workflowRepo *workflowmocks.MockRepository
	hub          *fakeHub
	svc          *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	logger := zerolog.Nop()

	f := &fixture{
		approvalRepo: approvalmocks.NewMockRepository(ctrl),
		taskRepo:     taskmocks.NewMockRepository(ctrl),
		projectRepo:  projectmocks.NewMockRepository(ctrl),
		userRepo:     usermocks.NewMockRepository(ctrl),
		workflowRepo: workflowmocks.NewMockRepository(ctrl),
		hub:          &fakeHub{},
	}
	auditSvc := appAudit.NewService(fakeAuditRepo{}, logger, nil)
	notifSvc := appNotification.NewService(fakeNotifRepo{}, f.userRepo, f.hub, logger)
	workflowSvc := appWorkflow.NewService(f.workflowRepo, auditSvc, logger)
	f.svc = NewService(f.approvalRepo, f.taskRepo, f.projectRepo, f.userRepo, workflowSvc, auditSvc, notifSvc, logger)
	return f
}

func activeUser(id uuid.UUID, role user.Role) *user.User {
	return &user.User{
		UserID:   id,
		Username: "u-" + id.String()[:8],
		Role:     role,
		Status:   user.StatusActive,
	}
}

// anyUserLookup satisfies the user lookups notification delivery performs.
func (f *fixture) anyUserLookup() {
	f.userRepo.EXPECT().
		GetByID(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) (*user.User, error) {
			return activeUser(id, user.RoleDesigner), nil
		}).
		AnyTimes()
}

func pendingLedger(taskID uuid.UUID, approvers ...uuid.UUID) []*domainApproval.Step {
	steps := make([]*domainApproval.Step, 0, len(approvers))
	for i, a := range approvers {
		status := domainApproval.StatusWaiting
		if i == 0 {
			status = domainApproval.StatusPending
		}
		steps = append(steps, &domainApproval.Step{
			StepID:     uuid.New(),
			TaskID:     taskID,
			Level:      i,
			Label:      "review",
			ApproverID: a,
			Status:     status,
			CreatedAt:  time.Now().UTC(),
		})
	}
	return steps
}

func TestRecordDecisionApproveAdvancesChain(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	approver, next, assignee := uuid.New(), uuid.New(), uuid.New()
	tk := &task.Task{
		TaskID:     uuid.New(),
		Title:      "homepage refresh",
		Status:     task.StatusAwaitingReview,
		AssigneeID: &assignee,
	}
	steps := pendingLedger(tk.TaskID, approver, next)

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusApproved, gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.approvalRepo.EXPECT().GetByTaskLevel(gomock.Any(), tk.TaskID, 1).Return(steps[1], nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[1].StepID, domainApproval.StatusWaiting, domainApproval.StatusPending, nil, nil).
		Return(true, nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	got, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, domainApproval.StatusApproved, got.Status)
	assert.NotNil(t, got.ReviewedAt)
	assert.Equal(t, 1, tk.CurrentApprovalLevel)
	assert.Equal(t, task.StatusAwaitingReview, tk.Status)
	assert.NoError(t, domainApproval.CheckLedgerInvariant(steps))
}

func TestRecordDecisionApproveFailsWhenNextStepNotWaiting(t *testing.T) {
	f := newFixture(t)

	approver := uuid.New()
	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview}
	steps := pendingLedger(tk.TaskID, approver, uuid.New())

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusApproved, gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.approvalRepo.EXPECT().GetByTaskLevel(gomock.Any(), tk.TaskID, 1).Return(steps[1], nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[1].StepID, domainApproval.StatusWaiting, domainApproval.StatusPending, nil, nil).
		Return(false, nil)

	_, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionApprove, nil)
	assert.Error(t, err)
}

func TestRecordDecisionFinalApproveCompletesChain(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	approver, assignee := uuid.New(), uuid.New()
	tk := &task.Task{
		TaskID:     uuid.New(),
		Title:      "brand book",
		Status:     task.StatusAwaitingReview,
		AssigneeID: &assignee,
	}
	steps := pendingLedger(tk.TaskID, approver)

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusApproved, gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.approvalRepo.EXPECT().GetByTaskLevel(gomock.Any(), tk.TaskID, 1).Return(nil, nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	_, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, task.StatusApproved, tk.Status)
}

func TestRecordDecisionFinalApproveEntersClientReview(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	approver := uuid.New()
	tk := &task.Task{
		TaskID:                 uuid.New(),
		Title:                  "campaign video",
		Status:                 task.StatusAwaitingReview,
		ClientApprovalRequired: true,
	}
	steps := pendingLedger(tk.TaskID, approver)

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusApproved, gomock.Any(), gomock.Any()).
		Return(true, nil)
	f.approvalRepo.EXPECT().GetByTaskLevel(gomock.Any(), tk.TaskID, 1).Return(nil, nil)
	f.approvalRepo.EXPECT().GetClientApprovalByTask(gomock.Any(), tk.TaskID).Return(nil, nil)
	f.approvalRepo.EXPECT().
		CreateClientApproval(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ca *domainApproval.ClientApproval) error {
			assert.Equal(t, tk.TaskID, ca.TaskID)
			assert.Equal(t, domainApproval.ClientPending, ca.Status)
			return nil
		})
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	_, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionApprove, nil)
	require.NoError(t, err)
	assert.Equal(t, task.StatusClientReview, tk.Status)
}

func TestRecordDecisionRejectsWrongApprover(t *testing.T) {
	f := newFixture(t)

	approver := uuid.New()
	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview}
	steps := pendingLedger(tk.TaskID, approver)

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)

	_, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: uuid.New()}, domainApproval.DecisionApprove, nil)
	assert.ErrorIs(t, err, domainApproval.ErrNotCurrentApprover)
}

func TestRecordDecisionNoActiveStep(t *testing.T) {
	f := newFixture(t)

	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusRevisionsRequired}
	steps := []*domainApproval.Step{{
		StepID:     uuid.New(),
		TaskID:     tk.TaskID,
		Level:      0,
		ApproverID: uuid.New(),
		Status:     domainApproval.StatusRevisionRequested,
	}}

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)

	_, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: uuid.New()}, domainApproval.DecisionApprove, nil)
	assert.ErrorIs(t, err, domainApproval.ErrNoActiveStep)
}

func TestRecordDecisionLostSwapSurfacesNoActiveStep(t *testing.T) {
	f := newFixture(t)

	approver := uuid.New()
	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview}
	steps := pendingLedger(tk.TaskID, approver)

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusApproved, gomock.Any(), gomock.Any()).
		Return(false, nil)

	_, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionApprove, nil)
	assert.ErrorIs(t, err, domainApproval.ErrNoActiveStep)
}

func TestRecordDecisionReject(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	approver, assignee := uuid.New(), uuid.New()
	tk := &task.Task{
		TaskID:     uuid.New(),
		Title:      "print ad",
		Status:     task.StatusAwaitingReview,
		AssigneeID: &assignee,
	}
	steps := pendingLedger(tk.TaskID, approver, uuid.New())
	comment := "wrong format"

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusRejected, gomock.Any(), &comment).
		Return(true, nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	got, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionReject, &comment)
	require.NoError(t, err)
	assert.Equal(t, domainApproval.StatusRejected, got.Status)
	assert.Equal(t, task.StatusRejected, tk.Status)
}

func TestRecordDecisionRequestRevision(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	approver, assignee := uuid.New(), uuid.New()
	tk := &task.Task{
		TaskID:     uuid.New(),
		Title:      "landing page",
		Status:     task.StatusAwaitingReview,
		AssigneeID: &assignee,
	}
	steps := pendingLedger(tk.TaskID, approver)
	comment := "tighten the copy"

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusPending, domainApproval.StatusRevisionRequested, gomock.Any(), &comment).
		Return(true, nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	got, err := f.svc.RecordDecision(context.Background(), tk.TaskID, Actor{UserID: approver}, domainApproval.DecisionRequestRevision, &comment)
	require.NoError(t, err)
	assert.Equal(t, domainApproval.StatusRevisionRequested, got.Status)
	assert.Equal(t, task.StatusRevisionsRequired, tk.Status)
	require.NotNil(t, tk.RevisionContext)
	assert.Equal(t, 1, tk.RevisionContext.Cycle)
	assert.Equal(t, comment, tk.RevisionContext.Message)
}

func TestResubmitRevision(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	approver, assignee := uuid.New(), uuid.New()
	tk := &task.Task{
		TaskID:     uuid.New(),
		Title:      "landing page",
		Status:     task.StatusRevisionsRequired,
		AssigneeID: &assignee,
	}
	steps := []*domainApproval.Step{
		{
			StepID:     uuid.New(),
			TaskID:     tk.TaskID,
			Level:      0,
			Label:      "review",
			ApproverID: approver,
			Status:     domainApproval.StatusRevisionRequested,
		},
		{
			StepID:     uuid.New(),
			TaskID:     tk.TaskID,
			Level:      1,
			Label:      "signoff",
			ApproverID: uuid.New(),
			Status:     domainApproval.StatusWaiting,
		},
	}

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusRevisionRequested, domainApproval.StatusRevisionSubmitted, nil, nil).
		Return(true, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusRevisionSubmitted, domainApproval.StatusPending, nil, nil).
		Return(true, nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	got, err := f.svc.ResubmitRevision(context.Background(), tk.TaskID, Actor{UserID: assignee})
	require.NoError(t, err)
	assert.Equal(t, domainApproval.StatusPending, got.Status)
	assert.Equal(t, task.StatusAwaitingReview, tk.Status)

	// The step is actionable again: back in the approver's inbox, with the
	// ledger still holding a single active row.
	assert.True(t, domainApproval.NeedsMyApproval(tk, approver, steps))
	assert.NoError(t, domainApproval.CheckLedgerInvariant(steps))
}

func TestResubmitRevisionOnlyAssignee(t *testing.T) {
	f := newFixture(t)

	assignee := uuid.New()
	tk := &task.Task{
		TaskID:     uuid.New(),
		Status:     task.StatusRevisionsRequired,
		AssigneeID: &assignee,
	}
	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)

	_, err := f.svc.ResubmitRevision(context.Background(), tk.TaskID, Actor{UserID: uuid.New()})
	assert.Error(t, err)
}

func TestResubmitRevisionRejectsUnassignedTask(t *testing.T) {
	f := newFixture(t)

	tk := &task.Task{
		TaskID: uuid.New(),
		Status: task.StatusRevisionsRequired,
	}
	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)

	_, err := f.svc.ResubmitRevision(context.Background(), tk.TaskID, Actor{UserID: uuid.New()})
	assert.Error(t, err)
}

func TestRecordClientDecisionApprove(t *testing.T) {
	f := newFixture(t)

	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusClientReview}
	ca := &domainApproval.ClientApproval{
		ClientApprovalID: uuid.New(),
		TaskID:           tk.TaskID,
		Status:           domainApproval.ClientPending,
	}

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().GetClientApprovalByTask(gomock.Any(), tk.TaskID).Return(ca, nil)
	f.approvalRepo.EXPECT().UpdateClientApproval(gomock.Any(), ca).Return(nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	got, err := f.svc.RecordClientDecision(context.Background(), tk.TaskID, true, nil, Actor{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, domainApproval.ClientApproved, got.Status)
	assert.Equal(t, task.StatusClientApproved, tk.Status)
}

func TestRecordClientDecisionRejectReopensFinalStep(t *testing.T) {
	f := newFixture(t)

	approver := uuid.New()
	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusClientReview}
	ca := &domainApproval.ClientApproval{
		ClientApprovalID: uuid.New(),
		TaskID:           tk.TaskID,
		Status:           domainApproval.ClientPending,
	}
	steps := []*domainApproval.Step{{
		StepID:     uuid.New(),
		TaskID:     tk.TaskID,
		Level:      0,
		ApproverID: approver,
		Status:     domainApproval.StatusApproved,
	}}
	comment := "client wants a new palette"

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().GetClientApprovalByTask(gomock.Any(), tk.TaskID).Return(ca, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusApproved, domainApproval.StatusRevisionRequested, gomock.Any(), &comment).
		Return(true, nil)
	f.approvalRepo.EXPECT().UpdateClientApproval(gomock.Any(), ca).Return(nil)
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	got, err := f.svc.RecordClientDecision(context.Background(), tk.TaskID, false, &comment, Actor{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, domainApproval.ClientRejected, got.Status)
	assert.Equal(t, task.StatusRevisionsRequired, tk.Status)
	require.NotNil(t, tk.RevisionContext)
}

func TestRecordClientDecisionRejectFailsWhenFinalStepNotApproved(t *testing.T) {
	f := newFixture(t)

	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusClientReview}
	ca := &domainApproval.ClientApproval{
		ClientApprovalID: uuid.New(),
		TaskID:           tk.TaskID,
		Status:           domainApproval.ClientPending,
	}
	steps := []*domainApproval.Step{{
		StepID:     uuid.New(),
		TaskID:     tk.TaskID,
		Level:      0,
		ApproverID: uuid.New(),
		Status:     domainApproval.StatusApproved,
	}}
	comment := "client wants a new palette"

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().GetClientApprovalByTask(gomock.Any(), tk.TaskID).Return(ca, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(steps, nil)
	f.approvalRepo.EXPECT().
		CompareAndSwapStatus(gomock.Any(), steps[0].StepID, domainApproval.StatusApproved, domainApproval.StatusRevisionRequested, gomock.Any(), &comment).
		Return(false, nil)

	_, err := f.svc.RecordClientDecision(context.Background(), tk.TaskID, false, &comment, Actor{UserID: uuid.New()})
	assert.ErrorIs(t, err, domainApproval.ErrNoActiveStep)
}

func TestAssignWorkflowSnapshotsApprovers(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	producer := activeUser(uuid.New(), user.RoleProducer)
	specific := uuid.New()
	projectID := uuid.New()
	tk := &task.Task{
		TaskID:    uuid.New(),
		ProjectID: projectID,
		Title:     "social kit",
		Status:    task.StatusNew,
	}
	tpl := &workflow.Template{
		TemplateID:             uuid.New(),
		Name:                   "two-step",
		Status:                 workflow.StatusActive,
		ClientApprovalRequired: true,
		Steps: []workflow.StepTemplate{
			{StepTemplateID: uuid.New(), Order: 0, Label: "producer review", Approver: workflow.RoleStrategy(user.RoleProducer)},
			{StepTemplateID: uuid.New(), Order: 1, Label: "final signoff", Approver: workflow.SpecificUserStrategy(specific)},
		},
	}

	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(nil, nil)
	f.workflowRepo.EXPECT().GetByID(gomock.Any(), tpl.TemplateID).Return(tpl, nil)
	f.projectRepo.EXPECT().GetByID(gomock.Any(), projectID).Return(&project.Project{ProjectID: projectID}, nil)
	f.userRepo.EXPECT().ListByRole(gomock.Any(), user.RoleProducer).Return([]*user.User{producer}, nil)
	f.approvalRepo.EXPECT().
		CreateBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, steps []*domainApproval.Step) error {
			require.Len(t, steps, 2)
			assert.Equal(t, domainApproval.StatusPending, steps[0].Status)
			assert.Equal(t, producer.UserID, steps[0].ApproverID)
			assert.Equal(t, domainApproval.StatusWaiting, steps[1].Status)
			assert.Equal(t, specific, steps[1].ApproverID)
			return nil
		})
	f.taskRepo.EXPECT().Update(gomock.Any(), tk).Return(nil)

	tplID := tpl.TemplateID
	steps, err := f.svc.AssignWorkflow(context.Background(), tk.TaskID, &tplID, Actor{UserID: uuid.New(), Username: "pm"})
	require.NoError(t, err)
	assert.Len(t, steps, 2)
	assert.Equal(t, task.StatusAwaitingReview, tk.Status)
	assert.True(t, tk.ClientApprovalRequired)
	require.NotNil(t, tk.WorkflowTemplateID)
	assert.Equal(t, tpl.TemplateID, *tk.WorkflowTemplateID)
}

func TestAssignWorkflowFailsClosedOnUnresolvableRole(t *testing.T) {
	for name, holders := range map[string][]*user.User{
		"no holders":       {},
		"multiple holders": {activeUser(uuid.New(), user.RoleProducer), activeUser(uuid.New(), user.RoleProducer)},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)

			projectID := uuid.New()
			tk := &task.Task{TaskID: uuid.New(), ProjectID: projectID, Status: task.StatusNew}
			tpl := &workflow.Template{
				TemplateID: uuid.New(),
				Name:       "one-step",
				Status:     workflow.StatusActive,
				Steps: []workflow.StepTemplate{
					{StepTemplateID: uuid.New(), Order: 0, Label: "review", Approver: workflow.RoleStrategy(user.RoleProducer)},
				},
			}

			f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
			f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(nil, nil)
			f.workflowRepo.EXPECT().GetByID(gomock.Any(), tpl.TemplateID).Return(tpl, nil)
			f.projectRepo.EXPECT().GetByID(gomock.Any(), projectID).Return(&project.Project{ProjectID: projectID}, nil)
			f.userRepo.EXPECT().ListByRole(gomock.Any(), user.RoleProducer).Return(holders, nil)

			tplID := tpl.TemplateID
			_, err := f.svc.AssignWorkflow(context.Background(), tk.TaskID, &tplID, Actor{UserID: uuid.New()})
			assert.ErrorIs(t, err, domainApproval.ErrUnresolvableApprover)
		})
	}
}

func TestAssignWorkflowRejectsExistingLedger(t *testing.T) {
	f := newFixture(t)

	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview}
	f.taskRepo.EXPECT().GetByID(gomock.Any(), tk.TaskID).Return(tk, nil)
	f.approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).Return(pendingLedger(tk.TaskID, uuid.New()), nil)

	tplID := uuid.New()
	_, err := f.svc.AssignWorkflow(context.Background(), tk.TaskID, &tplID, Actor{UserID: uuid.New()})
	assert.Error(t, err)
}

func TestResolveApproverProjectRole(t *testing.T) {
	f := newFixture(t)

	manager := uuid.New()
	proj := &project.Project{
		ProjectID:       uuid.New(),
		RoleAssignments: map[string]uuid.UUID{project.RoleKeyAccountManager: manager},
	}
	f.userRepo.EXPECT().GetByID(gomock.Any(), manager).Return(activeUser(manager, user.RoleAccountManager), nil)

	got, err := f.svc.ResolveApprover(context.Background(), workflow.ProjectRoleStrategy(project.RoleKeyAccountManager), proj)
	require.NoError(t, err)
	assert.Equal(t, manager, got)
}

func TestResolveApproverProjectRoleUnassigned(t *testing.T) {
	f := newFixture(t)

	proj := &project.Project{ProjectID: uuid.New()}
	_, err := f.svc.ResolveApprover(context.Background(), workflow.ProjectRoleStrategy(project.RoleKeyCreativeDirector), proj)
	assert.ErrorIs(t, err, domainApproval.ErrUnresolvableApprover)
}

func TestResolveApproverDisabledSpecificUser(t *testing.T) {
	f := newFixture(t)

	target := uuid.New()
	disabled := activeUser(target, user.RoleDesigner)
	disabled.Status = user.StatusDisabled
	f.userRepo.EXPECT().GetByID(gomock.Any(), target).Return(disabled, nil)

	_, err := f.svc.ResolveApprover(context.Background(), workflow.SpecificUserStrategy(target), nil)
	assert.ErrorIs(t, err, domainApproval.ErrUnresolvableApprover)
}

func TestSendPendingReminders(t *testing.T) {
	f := newFixture(t)
	f.anyUserLookup()

	stale := []*domainApproval.Step{
		{StepID: uuid.New(), TaskID: uuid.New(), Label: "review", ApproverID: uuid.New(), Status: domainApproval.StatusPending},
		{StepID: uuid.New(), TaskID: uuid.New(), Label: "signoff", ApproverID: uuid.New(), Status: domainApproval.StatusPending},
	}
	f.approvalRepo.EXPECT().ListPendingOlderThan(gomock.Any(), gomock.Any(), 100).Return(stale, nil)

	sent, err := f.svc.SendPendingReminders(context.Background(), 48*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, f.hub.messages, 2)
}
