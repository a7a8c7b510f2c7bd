package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents project status.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusOnHold Status = "ON_HOLD"
	StatusClosed Status = "CLOSED"
)

// Well-known contextual role keys. Assignments are free-form strings so
// admins can add project roles without a schema change.
const (
	RoleKeyAccountManager   = "account_manager"
	RoleKeyCreativeDirector = "creative_director"
	RoleKeyProducer         = "producer"
)

var ErrRoleNotAssigned = errors.New("project role not assigned")

// Project represents a client engagement.
type Project struct {
	ID              int64                `json:"id"`
	ProjectID       uuid.UUID            `json:"projectId"`
	Name            string               `json:"name"`
	ClientName      string               `json:"clientName"`
	Department      string               `json:"department"`
	Status          Status               `json:"status"`
	RoleAssignments map[string]uuid.UUID `json:"roleAssignments"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// UserForRole returns the user assigned to a contextual role key.
func (p *Project) UserForRole(key string) (uuid.UUID, error) {
	if p.RoleAssignments == nil {
		return uuid.Nil, ErrRoleNotAssigned
	}
	id, ok := p.RoleAssignments[key]
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrRoleNotAssigned
	}
	return id, nil
}

// AssignRole binds a user to a contextual role key.
func (p *Project) AssignRole(key string, userID uuid.UUID) error {
	if key == "" {
		return errors.New("role key is required")
	}
	if userID == uuid.Nil {
		return errors.New("user id is required")
	}
	if p.RoleAssignments == nil {
		p.RoleAssignments = make(map[string]uuid.UUID)
	}
	p.RoleAssignments[key] = userID
	return nil
}

// UnassignRole removes a contextual role binding.
func (p *Project) UnassignRole(key string) {
	delete(p.RoleAssignments, key)
}

func ValidateStatus(status Status) error {
	switch status {
	case StatusActive, StatusOnHold, StatusClosed:
		return nil
	default:
		return errors.New("invalid project status")
	}
}
