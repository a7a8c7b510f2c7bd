package postgres

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agency-hub/agency-hub/internal/domain/audit"
)

// AuditRepository implements audit.Repository. The log table is
// append-only; Query paginates with a (created_at, id) keyset cursor so
// pages stay stable while new rows arrive.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditColumns = `id, audit_id, entity_type, entity_id, action, actor, actor_roles,
	old_values, new_values, reason, risk_level, tags, trace_id, signature, created_at`

func (r *AuditRepository) Create(ctx context.Context, log *audit.AuditLog) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs
		(audit_id, entity_type, entity_id, action, actor, actor_roles,
		 old_values, new_values, reason, risk_level, tags, trace_id, signature, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, log.AuditID, log.EntityType, log.EntityID, log.Action, log.Actor, log.ActorRoles,
		log.OldValues, log.NewValues, log.Reason, log.RiskLevel, log.Tags, log.TraceID,
		log.Signature, log.CreatedAt).Scan(&log.ID)
}

func (r *AuditRepository) GetByID(ctx context.Context, auditID uuid.UUID) (*audit.AuditLog, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE audit_id=$1`, auditID)
	return scanAuditLog(row)
}

func (r *AuditRepository) GetByEntityID(ctx context.Context, entityType audit.EntityType, entityID string) ([]*audit.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+` FROM audit_logs
		WHERE entity_type=$1 AND entity_id=$2
		ORDER BY created_at DESC, id DESC
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAuditLogs(rows)
}

func (r *AuditRepository) Query(ctx context.Context, filter audit.QueryFilter, cursor *audit.Cursor, limit int) ([]*audit.AuditLog, *audit.Cursor, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	args := []interface{}{}
	idx := 1

	add := func(cond string, value interface{}) {
		query += addWhere(query) + " " + cond + "$" + strconv.Itoa(idx)
		args = append(args, value)
		idx++
	}
	if filter.EntityType != nil {
		add("entity_type=", *filter.EntityType)
	}
	if filter.EntityID != nil {
		add("entity_id=", *filter.EntityID)
	}
	if filter.Action != nil {
		add("action=", *filter.Action)
	}
	if filter.Actor != nil {
		add("actor=", *filter.Actor)
	}
	if filter.RiskLevel != nil {
		add("risk_level=", *filter.RiskLevel)
	}
	if filter.StartTime != nil {
		add("created_at >= ", *filter.StartTime)
	}
	if filter.EndTime != nil {
		add("created_at <= ", *filter.EndTime)
	}
	if filter.TraceID != nil {
		add("trace_id=", *filter.TraceID)
	}
	if cursor != nil {
		query += addWhere(query) + " (created_at, id) < ($" + strconv.Itoa(idx) + ", $" + strconv.Itoa(idx+1) + ")"
		args = append(args, cursor.CreatedAt, cursor.ID)
		idx += 2
	}
	// Fetch one extra row to learn whether a next page exists.
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(idx)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	logs, err := collectAuditLogs(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *audit.Cursor
	if len(logs) > limit {
		logs = logs[:limit]
		last := logs[len(logs)-1]
		next = &audit.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return logs, next, nil
}

func collectAuditLogs(rows pgx.Rows) ([]*audit.AuditLog, error) {
	var logs []*audit.AuditLog
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanAuditLog(row pgx.Row) (*audit.AuditLog, error) {
	var l audit.AuditLog
	if err := row.Scan(&l.ID, &l.AuditID, &l.EntityType, &l.EntityID, &l.Action, &l.Actor, &l.ActorRoles,
		&l.OldValues, &l.NewValues, &l.Reason, &l.RiskLevel, &l.Tags, &l.TraceID, &l.Signature, &l.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
