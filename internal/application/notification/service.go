package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/agency-hub/agency-hub/internal/domain/notification"
	"github.com/agency-hub/agency-hub/internal/domain/user"
)

// Service queues notifications and pushes them over SSE.
type Service struct {
	repo     domain.Repository
	userRepo user.Repository
	hub      domain.SSEHub
	logger   zerolog.Logger
}

// NewService creates a notification service.
func NewService(repo domain.Repository, userRepo user.Repository, hub domain.SSEHub, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		hub:      hub,
		logger:   logger.With().Str("service", "notification").Logger(),
	}
}

// Notify persists a notification and attempts immediate SSE delivery. A
// failed push leaves the row PENDING so the next ProcessPending sweep can
// retry it; delivery is best effort, persistence is not.
func (s *Service) Notify(ctx context.Context, n *domain.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.deliver(ctx, n)
	return nil
}

// NotifyAsync persists and delivers in the background.
func (s *Service) NotifyAsync(ctx context.Context, n *domain.Notification) {
	go func() {
		if err := s.Notify(context.Background(), n); err != nil {
			s.logger.Error().Err(err).
				Str("kind", string(n.Kind)).
				Str("taskId", n.TaskID.String()).
				Msg("failed to queue notification")
		}
	}()
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	return s.repo.List(ctx, domain.Filter{TargetUserID: &userID}, limit, offset)
}

// ProcessPending redelivers queued notifications, expiring stale ones.
func (s *Service) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, n := range pending {
		if n.IsExpired() {
			n.Status = domain.StatusExpired
			if err := s.repo.Update(ctx, n); err != nil {
				s.logger.Warn().Err(err).Str("notificationId", n.NotificationID.String()).Msg("failed to expire notification")
			}
			continue
		}
		if s.deliver(ctx, n) {
			sent++
		}
	}
	return sent, nil
}

// HasRecentReminder reports whether a reminder for the step was queued since
// the cutoff.
func (s *Service) HasRecentReminder(ctx context.Context, stepID uuid.UUID, since time.Time) (bool, error) {
	return s.repo.HasRecentReminder(ctx, stepID, since)
}

func (s *Service) deliver(ctx context.Context, n *domain.Notification) bool {
	u, err := s.userRepo.GetByID(ctx, n.TargetUserID)
	if err != nil || u == nil {
		s.markFailed(ctx, n, "target user not found")
		return false
	}
	data, err := json.Marshal(n)
	if err != nil {
		s.markFailed(ctx, n, err.Error())
		return false
	}
	s.hub.BroadcastToUser(u.Username, domain.NewSSEMessage("notification", data))
	if err := n.MarkSent(); err != nil {
		if err := s.repo.Update(ctx, n); err != nil {
			s.logger.Warn().Err(err).Str("notificationId", n.NotificationID.String()).Msg("failed to persist notification status")
		}
		return false
	}
	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("notificationId", n.NotificationID.String()).Msg("failed to mark notification sent")
	}
	return true
}

func (s *Service) markFailed(ctx context.Context, n *domain.Notification, reason string) {
	if err := n.MarkFailed(reason); err != nil {
		return
	}
	if err := s.repo.Update(ctx, n); err != nil {
		s.logger.Warn().Err(err).Str("notificationId", n.NotificationID.String()).Msg("failed to mark notification failed")
	}
}
