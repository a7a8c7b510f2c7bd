package audit

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies what kind of record an audit entry covers.
type EntityType string

const (
	EntityTypeTemplate       EntityType = "TEMPLATE"
	EntityTypeTask           EntityType = "TASK"
	EntityTypeApprovalStep   EntityType = "APPROVAL_STEP"
	EntityTypeClientApproval EntityType = "CLIENT_APPROVAL"
	EntityTypeUser           EntityType = "USER"
	EntityTypeProject        EntityType = "PROJECT"
)

// Action identifies the recorded operation.
type Action string

const (
	ActionCreate          Action = "CREATE"
	ActionUpdate          Action = "UPDATE"
	ActionDelete          Action = "DELETE"
	ActionApprove         Action = "APPROVE"
	ActionReject          Action = "REJECT"
	ActionRequestRevision Action = "REQUEST_REVISION"
	ActionResubmit        Action = "RESUBMIT"
	ActionLogin           Action = "LOGIN"
	ActionLogout          Action = "LOGOUT"
)

// RiskLevel classifies the audited operation.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// AuditEntry is the caller-facing payload for a new audit record.
type AuditEntry struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	Actor      string
	ActorRoles []string
	OldValues  json.RawMessage
	NewValues  json.RawMessage
	Reason     string
	Tags       []string
	TraceID    string
}

// AuditLog is the persisted, optionally signed audit record.
type AuditLog struct {
	ID         int64           `json:"id"`
	AuditID    uuid.UUID       `json:"auditId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     Action          `json:"action"`
	Actor      string          `json:"actor"`
	ActorRoles []string        `json:"actorRoles,omitempty"`
	OldValues  json.RawMessage `json:"oldValues,omitempty"`
	NewValues  json.RawMessage `json:"newValues,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RiskLevel  RiskLevel       `json:"riskLevel"`
	Tags       []string        `json:"tags,omitempty"`
	TraceID    string          `json:"traceId,omitempty"`
	Signature  []byte          `json:"signature,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewAuditLog builds a persistable log from an entry.
func NewAuditLog(entry *AuditEntry) (*AuditLog, error) {
	if entry == nil {
		return nil, errors.New("audit entry is nil")
	}
	if entry.EntityType == "" || entry.EntityID == "" || entry.Action == "" {
		return nil, errors.New("audit entry requires entity type, entity id, and action")
	}
	actor := entry.Actor
	if actor == "" {
		actor = "system"
	}
	return &AuditLog{
		AuditID:    uuid.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Actor:      actor,
		ActorRoles: entry.ActorRoles,
		OldValues:  entry.OldValues,
		NewValues:  entry.NewValues,
		Reason:     entry.Reason,
		RiskLevel:  riskFor(entry.Action),
		Tags:       entry.Tags,
		TraceID:    entry.TraceID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func riskFor(action Action) RiskLevel {
	switch action {
	case ActionDelete, ActionReject:
		return RiskLevelHigh
	case ActionApprove, ActionRequestRevision, ActionUpdate:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// Cursor marks a position in a paginated audit query.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id"`
}

// QueryFilter narrows audit queries.
type QueryFilter struct {
	EntityType *EntityType
	EntityID   *string
	Action     *Action
	Actor      *string
	RiskLevel  *RiskLevel
	StartTime  *time.Time
	EndTime    *time.Time
	TraceID    *string
}
