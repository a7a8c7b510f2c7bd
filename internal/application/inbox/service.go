package inbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agency-hub/agency-hub/internal/domain/approval"
	"github.com/agency-hub/agency-hub/internal/domain/task"
)

// Service builds the "needs my approval" dashboard view.
type Service struct {
	approvalRepo approval.Repository
	taskRepo     task.Repository
	logger       zerolog.Logger
}

// NewService creates an inbox service.
func NewService(approvalRepo approval.Repository, taskRepo task.Repository, logger zerolog.Logger) *Service {
	return &Service{
		approvalRepo: approvalRepo,
		taskRepo:     taskRepo,
		logger:       logger.With().Str("service", "inbox").Logger(),
	}
}

// ListNeedingApproval returns tasks currently awaiting the user's decision,
// sorted by urgency. Candidate tasks come from the user's pending rows; each
// candidate is then re-checked against its full ledger so a stale pending
// row can never surface a task that is no longer theirs to act on.
func (s *Service) ListNeedingApproval(ctx context.Context, userID uuid.UUID, now time.Time) ([]*task.Task, error) {
	pending, err := s.approvalRepo.ListPendingByApprover(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return []*task.Task{}, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(pending))
	taskIDs := make([]uuid.UUID, 0, len(pending))
	for _, st := range pending {
		if _, ok := seen[st.TaskID]; ok {
			continue
		}
		seen[st.TaskID] = struct{}{}
		taskIDs = append(taskIDs, st.TaskID)
	}

	tasks, err := s.taskRepo.GetByIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}

	result := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		steps, err := s.approvalRepo.ListByTask(ctx, t.TaskID)
		if err != nil {
			return nil, err
		}
		if approval.NeedsMyApproval(t, userID, steps) {
			result = append(result, t)
		}
	}

	approval.SortByUrgency(result, now)
	return result, nil
}

// CountNeedingApproval returns the badge count for the dashboard header.
func (s *Service) CountNeedingApproval(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	tasks, err := s.ListNeedingApproval(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}
