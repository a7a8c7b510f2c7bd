package workflow

import (
	"context"

	"github.com/google/uuid"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Repository defines workflow template persistence. Implementations load and
// store templates with their steps as one aggregate.
type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, templateID uuid.UUID) (*Template, error)
	List(ctx context.Context, limit, offset int) ([]*Template, error)
	ListUsable(ctx context.Context) ([]*Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, templateID uuid.UUID) error
}
