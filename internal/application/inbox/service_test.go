package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/agency-hub/agency-hub/internal/domain/approval"
	approvalmocks "github.com/agency-hub/agency-hub/internal/domain/approval/mocks"
	"github.com/agency-hub/agency-hub/internal/domain/task"
	taskmocks "github.com/agency-hub/agency-hub/internal/domain/task/mocks"
)

func newService(t *testing.T) (*Service, *approvalmocks.MockRepository, *taskmocks.MockRepository) {
	ctrl := gomock.NewController(t)
	approvalRepo := approvalmocks.NewMockRepository(ctrl)
	taskRepo := taskmocks.NewMockRepository(ctrl)
	return NewService(approvalRepo, taskRepo, zerolog.Nop()), approvalRepo, taskRepo
}

func pendingStep(taskID, approverID uuid.UUID) *approval.Step {
	return &approval.Step{
		StepID:     uuid.New(),
		TaskID:     taskID,
		Level:      0,
		ApproverID: approverID,
		Status:     approval.StatusPending,
	}
}

func TestListNeedingApprovalEmpty(t *testing.T) {
	svc, approvalRepo, _ := newService(t)
	me := uuid.New()

	approvalRepo.EXPECT().ListPendingByApprover(gomock.Any(), me).Return(nil, nil)

	got, err := svc.ListNeedingApproval(context.Background(), me, time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListNeedingApprovalFiltersStaleRows(t *testing.T) {
	svc, approvalRepo, taskRepo := newService(t)
	me := uuid.New()
	now := time.Now().UTC()

	live := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview, CreatedAt: now}
	archived := &task.Task{TaskID: uuid.New(), Status: task.StatusArchived, Archived: true, CreatedAt: now}

	liveStep := pendingStep(live.TaskID, me)
	staleStep := pendingStep(archived.TaskID, me)

	approvalRepo.EXPECT().ListPendingByApprover(gomock.Any(), me).
		Return([]*approval.Step{liveStep, staleStep}, nil)
	taskRepo.EXPECT().GetByIDs(gomock.Any(), gomock.Any()).
		Return([]*task.Task{live, archived}, nil)
	approvalRepo.EXPECT().ListByTask(gomock.Any(), live.TaskID).
		Return([]*approval.Step{liveStep}, nil)
	approvalRepo.EXPECT().ListByTask(gomock.Any(), archived.TaskID).
		Return([]*approval.Step{staleStep}, nil)

	got, err := svc.ListNeedingApproval(context.Background(), me, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, live.TaskID, got[0].TaskID)
}

func TestListNeedingApprovalSortsByUrgency(t *testing.T) {
	svc, approvalRepo, taskRepo := newService(t)
	me := uuid.New()
	now := time.Now().UTC()

	overdueAt := now.Add(-24 * time.Hour)
	soonAt := now.Add(24 * time.Hour)

	overdue := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview, DueDate: &overdueAt, CreatedAt: now.Add(-3 * time.Hour)}
	soon := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview, DueDate: &soonAt, CreatedAt: now.Add(-2 * time.Hour)}
	undated := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview, CreatedAt: now.Add(-time.Hour)}

	steps := map[uuid.UUID]*approval.Step{}
	var pending []*approval.Step
	for _, tk := range []*task.Task{undated, soon, overdue} {
		st := pendingStep(tk.TaskID, me)
		steps[tk.TaskID] = st
		pending = append(pending, st)
	}

	approvalRepo.EXPECT().ListPendingByApprover(gomock.Any(), me).Return(pending, nil)
	taskRepo.EXPECT().GetByIDs(gomock.Any(), gomock.Any()).
		Return([]*task.Task{undated, soon, overdue}, nil)
	for id, st := range steps {
		approvalRepo.EXPECT().ListByTask(gomock.Any(), id).Return([]*approval.Step{st}, nil)
	}

	got, err := svc.ListNeedingApproval(context.Background(), me, now)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, overdue.TaskID, got[0].TaskID)
	assert.Equal(t, soon.TaskID, got[1].TaskID)
	assert.Equal(t, undated.TaskID, got[2].TaskID)
}

func TestListNeedingApprovalDeduplicatesTasks(t *testing.T) {
	svc, approvalRepo, taskRepo := newService(t)
	me := uuid.New()
	now := time.Now().UTC()

	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview, CreatedAt: now}
	st := pendingStep(tk.TaskID, me)

	approvalRepo.EXPECT().ListPendingByApprover(gomock.Any(), me).
		Return([]*approval.Step{st, st}, nil)
	taskRepo.EXPECT().GetByIDs(gomock.Any(), []uuid.UUID{tk.TaskID}).
		Return([]*task.Task{tk}, nil)
	approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).
		Return([]*approval.Step{st}, nil)

	got, err := svc.ListNeedingApproval(context.Background(), me, now)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCountNeedingApproval(t *testing.T) {
	svc, approvalRepo, taskRepo := newService(t)
	me := uuid.New()
	now := time.Now().UTC()

	tk := &task.Task{TaskID: uuid.New(), Status: task.StatusAwaitingReview, CreatedAt: now}
	st := pendingStep(tk.TaskID, me)

	approvalRepo.EXPECT().ListPendingByApprover(gomock.Any(), me).
		Return([]*approval.Step{st}, nil)
	taskRepo.EXPECT().GetByIDs(gomock.Any(), gomock.Any()).
		Return([]*task.Task{tk}, nil)
	approvalRepo.EXPECT().ListByTask(gomock.Any(), tk.TaskID).
		Return([]*approval.Step{st}, nil)

	n, err := svc.CountNeedingApproval(context.Background(), me, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
