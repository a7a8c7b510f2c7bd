package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agency-hub/agency-hub/internal/domain/task"
)

// TaskRepository implements task.Repository. The revision context is a
// jsonb column; everything else is flat.
type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `id, task_id, project_id, title, description, department, task_type, priority, status,
	assignee_id, due_date, workflow_template_id, current_approval_level, client_approval_required,
	archived, revision_context, created_at, created_by, updated_at`

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	revision, err := marshalRevision(t)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tasks
		(task_id, project_id, title, description, department, task_type, priority, status,
		 assignee_id, due_date, workflow_template_id, current_approval_level, client_approval_required,
		 archived, revision_context, created_at, created_by, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, t.TaskID, t.ProjectID, t.Title, t.Description, t.Department, t.TaskType, t.Priority, t.Status,
		t.AssigneeID, t.DueDate, t.WorkflowTemplateID, t.CurrentApprovalLevel, t.ClientApprovalRequired,
		t.Archived, revision, t.CreatedAt, t.CreatedBy, t.UpdatedAt)
	return err
}

func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	revision, err := marshalRevision(t)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE tasks
		SET title=$1, description=$2, department=$3, task_type=$4, priority=$5, status=$6,
		    assignee_id=$7, due_date=$8, workflow_template_id=$9, current_approval_level=$10,
		    client_approval_required=$11, archived=$12, revision_context=$13, updated_at=$14
		WHERE task_id=$15
	`, t.Title, t.Description, t.Department, t.TaskType, t.Priority, t.Status,
		t.AssigneeID, t.DueDate, t.WorkflowTemplateID, t.CurrentApprovalLevel,
		t.ClientApprovalRequired, t.Archived, revision, t.UpdatedAt, t.TaskID)
	return err
}

func (r *TaskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (*task.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id=$1`, taskID)
	return scanTask(row)
}

func (r *TaskRepository) GetByIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*task.Task, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = ANY($1)`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepository) List(ctx context.Context, filter task.Filter, limit, offset int) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []interface{}{}
	idx := 1
	if filter.ProjectID != nil {
		query += addWhere(query) + " project_id=$" + strconv.Itoa(idx)
		args = append(args, *filter.ProjectID)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + strconv.Itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.AssigneeID != nil {
		query += addWhere(query) + " assignee_id=$" + strconv.Itoa(idx)
		args = append(args, *filter.AssigneeID)
		idx++
	}
	if filter.Department != nil {
		query += addWhere(query) + " department=$" + strconv.Itoa(idx)
		args = append(args, *filter.Department)
		idx++
	}
	if filter.Archived != nil {
		query += addWhere(query) + " archived=$" + strconv.Itoa(idx)
		args = append(args, *filter.Archived)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*task.Task, error) {
	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	var revision []byte
	if err := row.Scan(&t.ID, &t.TaskID, &t.ProjectID, &t.Title, &t.Description, &t.Department, &t.TaskType,
		&t.Priority, &t.Status, &t.AssigneeID, &t.DueDate, &t.WorkflowTemplateID, &t.CurrentApprovalLevel,
		&t.ClientApprovalRequired, &t.Archived, &revision, &t.CreatedAt, &t.CreatedBy, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(revision) > 0 {
		if err := json.Unmarshal(revision, &t.RevisionContext); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func marshalRevision(t *task.Task) ([]byte, error) {
	if t.RevisionContext == nil {
		return nil, nil
	}
	return json.Marshal(t.RevisionContext)
}
