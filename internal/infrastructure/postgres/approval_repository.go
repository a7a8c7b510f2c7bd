package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agency-hub/agency-hub/internal/domain/approval"
)

// ApprovalRepository implements approval.Repository.
type ApprovalRepository struct {
	pool *pgxpool.Pool
}

func NewApprovalRepository(pool *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{pool: pool}
}

const stepColumns = `id, step_id, task_id, step_template_id, level, label, approver_id, status,
	comment, milestone_id, reviewed_at, created_at`

func (r *ApprovalRepository) CreateBatch(ctx context.Context, steps []*approval.Step) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range steps {
		if _, err := tx.Exec(ctx, `
			INSERT INTO approval_steps
			(step_id, task_id, step_template_id, level, label, approver_id, status,
			 comment, milestone_id, reviewed_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, s.StepID, s.TaskID, s.StepTemplateID, s.Level, s.Label, s.ApproverID, s.Status,
			s.Comment, s.MilestoneID, s.ReviewedAt, s.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ApprovalRepository) GetByTaskLevel(ctx context.Context, taskID uuid.UUID, level int) (*approval.Step, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+stepColumns+` FROM approval_steps WHERE task_id=$1 AND level=$2
	`, taskID, level)
	return scanStep(row)
}

func (r *ApprovalRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*approval.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepColumns+` FROM approval_steps WHERE task_id=$1 ORDER BY level
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSteps(rows)
}

func (r *ApprovalRepository) ListPendingByApprover(ctx context.Context, approverID uuid.UUID) ([]*approval.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepColumns+` FROM approval_steps WHERE approver_id=$1 AND status=$2 ORDER BY created_at
	`, approverID, approval.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSteps(rows)
}

func (r *ApprovalRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*approval.Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepColumns+` FROM approval_steps
		WHERE status=$1 AND created_at < $2 ORDER BY created_at LIMIT $3
	`, approval.StatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSteps(rows)
}

// CompareAndSwapStatus transitions a step's status only if it still holds
// the expected value. The row count tells concurrent writers apart: exactly
// one caller sees true.
func (r *ApprovalRepository) CompareAndSwapStatus(ctx context.Context, stepID uuid.UUID, from, to approval.StepStatus, reviewedAt *time.Time, comment *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE approval_steps
		SET status=$1,
		    reviewed_at=COALESCE($2, reviewed_at),
		    comment=COALESCE($3, comment)
		WHERE step_id=$4 AND status=$5
	`, to, reviewedAt, comment, stepID, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ApprovalRepository) CreateClientApproval(ctx context.Context, ca *approval.ClientApproval) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO client_approvals
		(client_approval_id, task_id, status, comment, reviewed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, ca.ClientApprovalID, ca.TaskID, ca.Status, ca.Comment, ca.ReviewedAt, ca.CreatedAt)
	return err
}

func (r *ApprovalRepository) GetClientApprovalByTask(ctx context.Context, taskID uuid.UUID) (*approval.ClientApproval, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_approval_id, task_id, status, comment, reviewed_at, created_at
		FROM client_approvals WHERE task_id=$1
	`, taskID)
	var ca approval.ClientApproval
	if err := row.Scan(&ca.ID, &ca.ClientApprovalID, &ca.TaskID, &ca.Status, &ca.Comment, &ca.ReviewedAt, &ca.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ca, nil
}

func (r *ApprovalRepository) UpdateClientApproval(ctx context.Context, ca *approval.ClientApproval) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE client_approvals
		SET status=$1, comment=$2, reviewed_at=$3
		WHERE client_approval_id=$4
	`, ca.Status, ca.Comment, ca.ReviewedAt, ca.ClientApprovalID)
	return err
}

func collectSteps(rows pgx.Rows) ([]*approval.Step, error) {
	var steps []*approval.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func scanStep(row pgx.Row) (*approval.Step, error) {
	var s approval.Step
	if err := row.Scan(&s.ID, &s.StepID, &s.TaskID, &s.StepTemplateID, &s.Level, &s.Label, &s.ApproverID,
		&s.Status, &s.Comment, &s.MilestoneID, &s.ReviewedAt, &s.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
