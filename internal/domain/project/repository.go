package project

import (
	"context"

	"github.com/google/uuid"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Repository defines project persistence.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, projectID uuid.UUID) (*Project, error)
	List(ctx context.Context, limit, offset int) ([]*Project, error)
	Update(ctx context.Context, p *Project) error
}
