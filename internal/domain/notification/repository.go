package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository,SSEHub

// Filter narrows notification queries.
type Filter struct {
	TargetUserID *uuid.UUID
	Kind         *Kind
	Status       *Status
	Since        *time.Time
}

// Repository defines notification persistence.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Notification, error)
	ListPending(ctx context.Context, limit int) ([]*Notification, error)
	Update(ctx context.Context, n *Notification) error
	// HasRecentReminder prevents duplicate reminders for the same step.
	HasRecentReminder(ctx context.Context, stepID uuid.UUID, since time.Time) (bool, error)
}
