package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agency-hub/agency-hub/internal/domain/notification"
)

// NotificationRepository implements notification.Repository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, notification_id, kind, task_id, step_id, target_user_id,
	title, body, payload, status, expires_at, created_at, sent_at, last_error`

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO notifications
		(notification_id, kind, task_id, step_id, target_user_id,
		 title, body, payload, status, expires_at, created_at, sent_at, last_error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`, n.NotificationID, n.Kind, n.TaskID, n.StepID, n.TargetUserID,
		n.Title, n.Body, n.Payload, n.Status, n.ExpiresAt, n.CreatedAt, n.SentAt, n.LastError).Scan(&n.ID)
}

func (r *NotificationRepository) GetByID(ctx context.Context, notificationID uuid.UUID) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE notification_id=$1`, notificationID)
	return scanNotification(row)
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter, limit, offset int) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	args := []interface{}{}
	idx := 1
	if filter.TargetUserID != nil {
		query += addWhere(query) + " target_user_id=$" + strconv.Itoa(idx)
		args = append(args, *filter.TargetUserID)
		idx++
	}
	if filter.Kind != nil {
		query += addWhere(query) + " kind=$" + strconv.Itoa(idx)
		args = append(args, *filter.Kind)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + strconv.Itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Since != nil {
		query += addWhere(query) + " created_at >= $" + strconv.Itoa(idx)
		args = append(args, *filter.Since)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE status=$1 ORDER BY created_at LIMIT $2
	`, notification.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *NotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status=$1, sent_at=$2, last_error=$3
		WHERE notification_id=$4
	`, n.Status, n.SentAt, n.LastError, n.NotificationID)
	return err
}

func (r *NotificationRepository) HasRecentReminder(ctx context.Context, stepID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE step_id=$1 AND kind=$2 AND created_at > $3
		)
	`, stepID, notification.KindApprovalReminder, since).Scan(&exists)
	return exists, err
}

func collectNotifications(rows pgx.Rows) ([]*notification.Notification, error) {
	var ns []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, rows.Err()
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	if err := row.Scan(&n.ID, &n.NotificationID, &n.Kind, &n.TaskID, &n.StepID, &n.TargetUserID,
		&n.Title, &n.Body, &n.Payload, &n.Status, &n.ExpiresAt, &n.CreatedAt, &n.SentAt, &n.LastError); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
