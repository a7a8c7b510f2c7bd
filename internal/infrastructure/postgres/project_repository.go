package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agency-hub/agency-hub/internal/domain/project"
)

// ProjectRepository implements project.Repository. Role assignments are a
// jsonb column keyed by role key.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	assignments, err := json.Marshal(p.RoleAssignments)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO projects
		(project_id, name, client_name, department, status, role_assignments, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ProjectID, p.Name, p.ClientName, p.Department, p.Status, assignments, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) error {
	assignments, err := json.Marshal(p.RoleAssignments)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE projects
		SET name=$1, client_name=$2, department=$3, status=$4, role_assignments=$5, updated_at=$6
		WHERE project_id=$7
	`, p.Name, p.ClientName, p.Department, p.Status, assignments, p.UpdatedAt, p.ProjectID)
	return err
}

func (r *ProjectRepository) GetByID(ctx context.Context, projectID uuid.UUID) (*project.Project, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, project_id, name, client_name, department, status, role_assignments, created_at, updated_at
		FROM projects WHERE project_id=$1
	`, projectID)
	return scanProject(row)
}

func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]*project.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, name, client_name, department, status, role_assignments, created_at, updated_at
		FROM projects ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var p project.Project
	var assignments []byte
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.ClientName, &p.Department, &p.Status, &assignments, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(assignments) > 0 {
		if err := json.Unmarshal(assignments, &p.RoleAssignments); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
