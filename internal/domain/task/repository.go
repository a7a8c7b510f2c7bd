package task

import (
	"context"

	"github.com/google/uuid"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Filter controls task listing.
type Filter struct {
	ProjectID  *uuid.UUID
	Status     *Status
	AssigneeID *uuid.UUID
	Department *string
	Archived   *bool
}

// Repository defines task persistence.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, taskID uuid.UUID) (*Task, error)
	GetByIDs(ctx context.Context, taskIDs []uuid.UUID) ([]*Task, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
}
