package approval

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

// Repository defines persistence for the approval step ledger and client
// approvals. Status changes go through CompareAndSwapStatus so concurrent
// decisions cannot both advance a task: the swap only succeeds when the row
// still holds the expected status.
type Repository interface {
	CreateBatch(ctx context.Context, steps []*Step) error
	GetByTaskLevel(ctx context.Context, taskID uuid.UUID, level int) (*Step, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Step, error)
	ListPendingByApprover(ctx context.Context, approverID uuid.UUID) ([]*Step, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*Step, error)
	CompareAndSwapStatus(ctx context.Context, stepID uuid.UUID, from, to StepStatus, reviewedAt *time.Time, comment *string) (bool, error)

	CreateClientApproval(ctx context.Context, ca *ClientApproval) error
	GetClientApprovalByTask(ctx context.Context, taskID uuid.UUID) (*ClientApproval, error)
	UpdateClientApproval(ctx context.Context, ca *ClientApproval) error
}
