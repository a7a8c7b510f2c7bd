package approval

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus represents the external client approval gate.
type ClientStatus string

const (
	ClientPending  ClientStatus = "PENDING"
	ClientApproved ClientStatus = "APPROVED"
	ClientRejected ClientStatus = "REJECTED"
)

// ClientApproval gates a task after the internal chain completes, when the
// task requires client sign-off. It is a separate state machine from the
// internal ledger.
type ClientApproval struct {
	ID               int64        `json:"id"`
	ClientApprovalID uuid.UUID    `json:"clientApprovalId"`
	TaskID           uuid.UUID    `json:"taskId"`
	Status           ClientStatus `json:"status"`
	Comment          *string      `json:"comment,omitempty"`
	ReviewedAt       *time.Time   `json:"reviewedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}
