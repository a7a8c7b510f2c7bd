package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery status of a notification.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
	StatusExpired Status = "EXPIRED"
)

// Kind classifies what the notification is about.
type Kind string

const (
	// KindApprovalRequested fires when a ledger step becomes pending.
	KindApprovalRequested Kind = "APPROVAL_REQUESTED"
	// KindApprovalReminder fires for steps pending past the reminder age.
	KindApprovalReminder Kind = "APPROVAL_REMINDER"
	// KindDecisionRecorded fires toward the task assignee after a decision.
	KindDecisionRecorded Kind = "DECISION_RECORDED"
)

var (
	ErrInvalidTransition = errors.New("invalid notification status transition")
	ErrExpired           = errors.New("notification has expired")
	ErrClientNotFound    = errors.New("SSE client not found")
	ErrChannelFull       = errors.New("SSE message channel full")
)

// Notification is an SSE message queued for a user.
type Notification struct {
	ID             int64           `json:"id"`
	NotificationID uuid.UUID       `json:"notificationId"`
	Kind           Kind            `json:"kind"`
	TaskID         uuid.UUID       `json:"taskId"`
	StepID         *uuid.UUID      `json:"stepId,omitempty"`
	TargetUserID   uuid.UUID       `json:"targetUserId"`
	Title          string          `json:"title"`
	Body           string          `json:"body"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Status         Status          `json:"status"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	SentAt         *time.Time      `json:"sentAt,omitempty"`
	LastError      *string         `json:"lastError,omitempty"`
}

// NewNotification creates a pending notification for a user.
func NewNotification(kind Kind, taskID uuid.UUID, targetUserID uuid.UUID, title, body string, payload json.RawMessage) *Notification {
	return &Notification{
		NotificationID: uuid.New(),
		Kind:           kind,
		TaskID:         taskID,
		TargetUserID:   targetUserID,
		Title:          title,
		Body:           body,
		Payload:        payload,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// IsExpired checks whether the notification has passed its expiry.
func (n *Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*n.ExpiresAt)
}

// CanTransitionTo checks if a status transition is valid.
func (n *Notification) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {StatusSent, StatusFailed, StatusExpired},
		StatusSent:    {},
		StatusFailed:  {StatusPending, StatusExpired},
		StatusExpired: {},
	}
	for _, s := range transitions[n.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// MarkSent records a successful delivery.
func (n *Notification) MarkSent() error {
	if n.IsExpired() {
		n.Status = StatusExpired
		return ErrExpired
	}
	if !n.CanTransitionTo(StatusSent) {
		return ErrInvalidTransition
	}
	n.Status = StatusSent
	now := time.Now().UTC()
	n.SentAt = &now
	return nil
}

// MarkFailed records a failed delivery attempt.
func (n *Notification) MarkFailed(errMsg string) error {
	if !n.CanTransitionTo(StatusFailed) {
		return ErrInvalidTransition
	}
	n.Status = StatusFailed
	n.LastError = &errMsg
	return nil
}

// SSEClient represents an active SSE connection.
type SSEClient struct {
	ClientID    string
	Username    string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client.
func NewSSEClient(clientID, username string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		Username:    username,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// SSEHub abstracts the in-memory hub so services can broadcast without
// depending on the infrastructure package.
type SSEHub interface {
	BroadcastToUser(username string, msg *SSEMessage)
	BroadcastToAll(msg *SSEMessage)
}
