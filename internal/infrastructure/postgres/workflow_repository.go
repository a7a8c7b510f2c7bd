package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agency-hub/agency-hub/internal/domain/workflow"
)

// WorkflowRepository implements workflow.Repository. Templates and their
// steps form one aggregate: steps live in their own table and are replaced
// wholesale on update, inside one transaction.
type WorkflowRepository struct {
	pool *pgxpool.Pool
}

func NewWorkflowRepository(pool *pgxpool.Pool) *WorkflowRepository {
	return &WorkflowRepository{pool: pool}
}

func (r *WorkflowRepository) Create(ctx context.Context, t *workflow.Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO workflow_templates
		(template_id, name, description, department, task_type, match_expression, status,
		 client_approval_required, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, t.TemplateID, t.Name, t.Description, t.Department, t.TaskType, t.MatchExpression, t.Status,
		t.ClientApprovalRequired, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	if err := insertSteps(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) Update(ctx context.Context, t *workflow.Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE workflow_templates
		SET name=$1, description=$2, department=$3, task_type=$4, match_expression=$5, status=$6,
		    client_approval_required=$7, updated_at=$8
		WHERE template_id=$9
	`, t.Name, t.Description, t.Department, t.TaskType, t.MatchExpression, t.Status,
		t.ClientApprovalRequired, t.UpdatedAt, t.TemplateID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_template_steps WHERE template_id=$1`, t.TemplateID); err != nil {
		return err
	}
	if err := insertSteps(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) Delete(ctx context.Context, templateID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workflow_template_steps WHERE template_id=$1`, templateID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_templates WHERE template_id=$1`, templateID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *WorkflowRepository) GetByID(ctx context.Context, templateID uuid.UUID) (*workflow.Template, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, template_id, name, description, department, task_type, match_expression, status,
		       client_approval_required, created_at, updated_at
		FROM workflow_templates WHERE template_id=$1
	`, templateID)
	t, err := scanTemplate(row)
	if err != nil || t == nil {
		return t, err
	}
	if err := r.loadSteps(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *WorkflowRepository) List(ctx context.Context, limit, offset int) ([]*workflow.Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template_id, name, description, department, task_type, match_expression, status,
		       client_approval_required, created_at, updated_at
		FROM workflow_templates ORDER BY updated_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectTemplates(ctx, rows)
}

func (r *WorkflowRepository) ListUsable(ctx context.Context) ([]*workflow.Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template_id, name, description, department, task_type, match_expression, status,
		       client_approval_required, created_at, updated_at
		FROM workflow_templates ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectTemplates(ctx, rows)
}

func (r *WorkflowRepository) collectTemplates(ctx context.Context, rows pgx.Rows) ([]*workflow.Template, error) {
	var templates []*workflow.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range templates {
		if err := r.loadSteps(ctx, t); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (r *WorkflowRepository) loadSteps(ctx context.Context, t *workflow.Template) error {
	rows, err := r.pool.Query(ctx, `
		SELECT step_template_id, template_id, step_order, label, approver
		FROM workflow_template_steps WHERE template_id=$1 ORDER BY step_order
	`, t.TemplateID)
	if err != nil {
		return err
	}
	defer rows.Close()
	t.Steps = t.Steps[:0]
	for rows.Next() {
		var st workflow.StepTemplate
		var approver []byte
		if err := rows.Scan(&st.StepTemplateID, &st.TemplateID, &st.Order, &st.Label, &approver); err != nil {
			return err
		}
		if err := json.Unmarshal(approver, &st.Approver); err != nil {
			return err
		}
		t.Steps = append(t.Steps, st)
	}
	return rows.Err()
}

func insertSteps(ctx context.Context, tx pgx.Tx, t *workflow.Template) error {
	for i := range t.Steps {
		st := &t.Steps[i]
		approver, err := json.Marshal(st.Approver)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO workflow_template_steps
			(step_template_id, template_id, step_order, label, approver)
			VALUES ($1,$2,$3,$4,$5)
		`, st.StepTemplateID, t.TemplateID, st.Order, st.Label, approver); err != nil {
			return err
		}
	}
	return nil
}

func scanTemplate(row pgx.Row) (*workflow.Template, error) {
	var t workflow.Template
	if err := row.Scan(&t.ID, &t.TemplateID, &t.Name, &t.Description, &t.Department, &t.TaskType,
		&t.MatchExpression, &t.Status, &t.ClientApprovalRequired, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
