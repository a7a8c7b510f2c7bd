package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	"github.com/agency-hub/agency-hub/internal/domain/audit"
	domain "github.com/agency-hub/agency-hub/internal/domain/project"
	"github.com/agency-hub/agency-hub/internal/domain/user"
)

// Service handles project management.
type Service struct {
	repo     domain.Repository
	userRepo user.Repository
	auditSvc *appAudit.Service
	logger   zerolog.Logger
}

// NewService creates a project service.
func NewService(repo domain.Repository, userRepo user.Repository, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "project").Logger(),
	}
}

// CreateInput defines project creation input.
type CreateInput struct {
	Name       string
	ClientName string
	Department string
}

func (s *Service) CreateProject(ctx context.Context, input CreateInput, actor string) (*domain.Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	now := time.Now().UTC()
	p := &domain.Project{
		ProjectID:       uuid.New(),
		Name:            input.Name,
		ClientName:      input.ClientName,
		Department:      input.Department,
		Status:          domain.StatusActive,
		RoleAssignments: map[string]uuid.UUID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeProject,
		EntityID:   p.ProjectID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor,
		Reason:     "project created",
	})
	s.logger.Info().Str("project_id", p.ProjectID.String()).Msg("project created")
	return p, nil
}

// AssignRole binds an active user to a contextual role key on the project.
func (s *Service) AssignRole(ctx context.Context, projectID uuid.UUID, roleKey string, userID uuid.UUID, actor string) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive() {
		return nil, fmt.Errorf("user %s is not active", userID)
	}
	if err := p.AssignRole(roleKey, userID); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeProject,
		EntityID:   p.ProjectID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Reason:     fmt.Sprintf("role %s assigned", roleKey),
	})
	return p, nil
}

// UnassignRole removes a contextual role binding.
func (s *Service) UnassignRole(ctx context.Context, projectID uuid.UUID, roleKey string, actor string) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}
	p.UnassignRole(roleKey)
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeProject,
		EntityID:   p.ProjectID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Reason:     fmt.Sprintf("role %s unassigned", roleKey),
	})
	return p, nil
}

// SetStatus moves a project between ACTIVE, ON_HOLD, and CLOSED.
func (s *Service) SetStatus(ctx context.Context, projectID uuid.UUID, status domain.Status, actor string) (*domain.Project, error) {
	if err := domain.ValidateStatus(status); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeProject,
		EntityID:   p.ProjectID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Reason:     fmt.Sprintf("status set to %s", status),
	})
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	return s.repo.List(ctx, limit, offset)
}
