package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAudit "github.com/agency-hub/agency-hub/internal/application/audit"
	"github.com/agency-hub/agency-hub/internal/domain/audit"
	"github.com/agency-hub/agency-hub/internal/domain/task"
	"github.com/agency-hub/agency-hub/internal/domain/workflow"
)

// Service manages workflow templates: the reusable approval chain
// definitions tasks are instantiated from.
type Service struct {
	repo     workflow.Repository
	auditSvc *appAudit.Service
	logger   zerolog.Logger
}

// NewService creates a workflow template service.
func NewService(repo workflow.Repository, auditSvc *appAudit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		auditSvc: auditSvc,
		logger:   logger.With().Str("service", "workflow").Logger(),
	}
}

// CreateTemplate validates and persists a new template. Step identity and
// ordering are normalized here so callers can submit steps in any order.
func (s *Service) CreateTemplate(ctx context.Context, t *workflow.Template, actor string) (*workflow.Template, error) {
	if t.TemplateID == uuid.Nil {
		t.TemplateID = uuid.New()
	}
	if t.Status == "" {
		t.Status = workflow.StatusActive
	}
	if err := workflow.ValidateStatus(t.Status); err != nil {
		return nil, err
	}
	for i := range t.Steps {
		if t.Steps[i].StepTemplateID == uuid.Nil {
			t.Steps[i].StepTemplateID = uuid.New()
		}
		t.Steps[i].TemplateID = t.TemplateID
	}
	t.SortSteps()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	newValues, _ := json.Marshal(t)
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTemplate,
		EntityID:   t.TemplateID.String(),
		Action:     audit.ActionCreate,
		Actor:      actor,
		NewValues:  newValues,
		Reason:     "workflow template created",
	})

	s.logger.Info().
		Str("template_id", t.TemplateID.String()).
		Int("steps", len(t.Steps)).
		Msg("workflow template created")
	return t, nil
}

// UpdateInput defines mutable template fields. Nil means leave unchanged;
// Steps replaces the whole chain when present.
type UpdateInput struct {
	Name                   *string
	Description            *string
	Department             *string
	TaskType               *string
	MatchExpression        *string
	Status                 *workflow.Status
	ClientApprovalRequired *bool
	Steps                  []workflow.StepTemplate
}

// UpdateTemplate applies an update to an existing template. Edits to
// protected templates are allowed; only deletion is blocked.
func (s *Service) UpdateTemplate(ctx context.Context, templateID uuid.UUID, input UpdateInput, actor string) (*workflow.Template, error) {
	t, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}
	oldValues, _ := json.Marshal(t)

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Department != nil {
		t.Department = input.Department
	}
	if input.TaskType != nil {
		t.TaskType = input.TaskType
	}
	if input.MatchExpression != nil {
		t.MatchExpression = input.MatchExpression
	}
	if input.Status != nil {
		if err := workflow.ValidateStatus(*input.Status); err != nil {
			return nil, err
		}
		t.Status = *input.Status
	}
	if input.ClientApprovalRequired != nil {
		t.ClientApprovalRequired = *input.ClientApprovalRequired
	}
	if input.Steps != nil {
		for i := range input.Steps {
			if input.Steps[i].StepTemplateID == uuid.Nil {
				input.Steps[i].StepTemplateID = uuid.New()
			}
			input.Steps[i].TemplateID = t.TemplateID
		}
		t.Steps = input.Steps
		t.Renumber()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	newValues, _ := json.Marshal(t)
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTemplate,
		EntityID:   t.TemplateID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		OldValues:  oldValues,
		NewValues:  newValues,
		Reason:     "workflow template updated",
	})
	return t, nil
}

// MoveStep shifts a step one position up or down and renumbers the chain.
func (s *Service) MoveStep(ctx context.Context, templateID, stepTemplateID uuid.UUID, delta int, actor string) (*workflow.Template, error) {
	t, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}
	if err := t.MoveStep(stepTemplateID, delta); err != nil {
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTemplate,
		EntityID:   t.TemplateID.String(),
		Action:     audit.ActionUpdate,
		Actor:      actor,
		Reason:     "workflow step reordered",
	})
	return t, nil
}

// DeleteTemplate removes a template. Seeded system templates refuse.
func (s *Service) DeleteTemplate(ctx context.Context, templateID uuid.UUID, actor string) error {
	t, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("template not found: %s", templateID)
	}
	if t.Status == workflow.StatusSystemProtected {
		return workflow.ErrProtectedTemplate
	}
	if err := s.repo.Delete(ctx, templateID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	oldValues, _ := json.Marshal(t)
	s.auditSvc.Log(ctx, &audit.AuditEntry{
		EntityType: audit.EntityTypeTemplate,
		EntityID:   templateID.String(),
		Action:     audit.ActionDelete,
		Actor:      actor,
		OldValues:  oldValues,
		Reason:     "workflow template deleted",
	})
	s.logger.Info().Str("template_id", templateID.String()).Msg("workflow template deleted")
	return nil
}

// GetTemplate retrieves a template by id.
func (s *Service) GetTemplate(ctx context.Context, templateID uuid.UUID) (*workflow.Template, error) {
	t, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}
	return t, nil
}

// ListTemplates lists templates.
func (s *Service) ListTemplates(ctx context.Context, limit, offset int) ([]*workflow.Template, error) {
	return s.repo.List(ctx, limit, offset)
}

// FindApplicable picks the template to instantiate for a task. Candidates
// must admit the task's department and type and pass their match expression;
// the most specific candidate wins, with the most recently updated template
// breaking ties.
func (s *Service) FindApplicable(ctx context.Context, t *task.Task) (*workflow.Template, error) {
	candidates, err := s.repo.ListUsable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	params := map[string]interface{}{
		"department": t.Department,
		"taskType":   t.TaskType,
		"priority":   t.Priority,
	}
	var best *workflow.Template
	for _, c := range candidates {
		if !c.AppliesTo(t.Department, t.TaskType) {
			continue
		}
		if c.MatchExpression != nil {
			ok, err := evaluateMatch(*c.MatchExpression, params)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("template_id", c.TemplateID.String()).
					Msg("skipping template with bad match expression")
				continue
			}
			if !ok {
				continue
			}
		}
		if best == nil ||
			c.Specificity() > best.Specificity() ||
			(c.Specificity() == best.Specificity() && c.UpdatedAt.After(best.UpdatedAt)) {
			best = c
		}
	}
	return best, nil
}
