package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	"github.com/agency-hub/agency-hub/internal/domain/audit"
	"github.com/agency-hub/agency-hub/internal/domain/project"
	domain "github.com/agency-hub/agency-hub/internal/domain/task"
)

// Service handles task lifecycle outside the approval chain.
type Service struct {
	repo        domain.Repository
	projectRepo project.Repository
	auditSvc    *appAudit.Service
	logger      zerolog.Logger
}

// NewService creates a task service.
func NewService(repo domain.Repository, projectRepo project.Repository, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		projectRepo: projectRepo,
		auditSvc:    auditSvc,
		logger:      logger.With().Str("service", "task").Logger(),
	}
}

// CreateInput defines task creation input.
type CreateInput struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
	Department  string
	TaskType    string
	Priority    int
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
	CreatedBy   *string
}

// CreateTask creates a task under an existing project.
func (s *Service) CreateTask(ctx context.Context, input CreateInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	p, err := s.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", input.ProjectID)
	}
	department := input.Department
	if department == "" {
		department = p.Department
	}

	now := time.Now().UTC()
	t := &domain.Task{
		TaskID:      uuid.New(),
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Department:  department,
		TaskType:    input.TaskType,
		Priority:    input.Priority,
		Status:      domain.StatusNew,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		CreatedBy:   input.CreatedBy,
		UpdatedAt:   now,
	}
	if t.AssigneeID != nil {
		t.Status = domain.StatusAssigned
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	newValues, _ := json.Marshal(t)
	actor := "system"
	if input.CreatedBy != nil {
		actor = *input.CreatedBy
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTask,
		EntityID:   t.TaskID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor,
		NewValues:  newValues,
		Reason:     "task created",
	})

	s.logger.Info().
		Str("task_id", t.TaskID.String()).
		Str("project_id", t.ProjectID.String()).
		Msg("task created")
	return t, nil
}

// UpdateInput defines mutable task fields.
type UpdateInput struct {
	Title       *string
	Description *string
	TaskType    *string
	Priority    *int
	AssigneeID  *uuid.UUID
	DueDate     *time.Time
	Status      *domain.Status
}

// UpdateTask applies field updates. Status changes go through the
// transition table; everything else is a plain overwrite.
func (s *Service) UpdateTask(ctx context.Context, taskID uuid.UUID, input UpdateInput, actor string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	oldValues, _ := json.Marshal(t)

	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.TaskType != nil {
		t.TaskType = *input.TaskType
	}
	if input.Priority != nil {
		t.Priority = *input.Priority
	}
	if input.AssigneeID != nil {
		t.AssigneeID = input.AssigneeID
		if t.Status == domain.StatusNew {
			if err := t.Transition(domain.StatusAssigned); err != nil {
				return nil, err
			}
		}
	}
	if input.DueDate != nil {
		t.DueDate = input.DueDate
	}
	if input.Status != nil {
		if err := domain.ValidateStatus(*input.Status); err != nil {
			return nil, err
		}
		if err := t.Transition(*input.Status); err != nil {
			return nil, err
		}
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	newValues, _ := json.Marshal(t)
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTask,
		EntityID:   t.TaskID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		OldValues:  oldValues,
		NewValues:  newValues,
		Reason:     "task updated",
	})
	return t, nil
}

// CompleteTask closes out an approved task.
func (s *Service) CompleteTask(ctx context.Context, taskID uuid.UUID, actor string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	if err := t.Transition(domain.StatusCompleted); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTask,
		EntityID:   t.TaskID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Reason:     "task completed",
	})
	return t, nil
}

// ArchiveTask archives a task. Archived tasks drop out of every approval
// surface immediately.
func (s *Service) ArchiveTask(ctx context.Context, taskID uuid.UUID, actor string) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	if err := t.Archive(); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTask,
		EntityID:   t.TaskID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Reason:     "task archived",
	})
	return t, nil
}

// GetTask retrieves a task by id.
func (s *Service) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}
	return t, nil
}

// ListTasks lists tasks.
func (s *Service) ListTasks(ctx context.Context, filter domain.Filter, limit, offset int) ([]*domain.Task, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
