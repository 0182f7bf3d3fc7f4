package repository

import (
	"context"
	"encoding/json"
	"time"

	"admin-alerts/internal/domain/notification"
	"admin-alerts/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create appends a notification. The unique index on (type, correlation_id)
// makes it idempotent: a redelivered envelope resolves to the existing row and
// the bool result reports false.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) (uuid.UUID, bool, error) {
	data, err := json.Marshal(n.Data())
	if err != nil {
		return uuid.Nil, false, infra.WrapRepoErrKind(infra.KindDBFailure, "failed to encode notification data", err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, title, message, type, data, action_ref, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (type, correlation_id) DO NOTHING`,
		n.ID(), n.Title(), n.Message(), n.Type(), data, n.ActionRef(), n.CorrelationID(), n.CreatedAt(),
	)
	if err != nil {
		return uuid.Nil, false, infra.WrapRepoErr("failed to create notification", err)
	}
	if tag.RowsAffected() == 1 {
		return n.ID(), true, nil
	}

	var existingID uuid.UUID
	err = r.pool.QueryRow(ctx,
		`SELECT id FROM notifications WHERE type = $1 AND correlation_id = $2`,
		n.Type(), n.CorrelationID(),
	).Scan(&existingID)
	if err != nil {
		return uuid.Nil, false, infra.WrapRepoErr("failed to resolve existing notification", err)
	}
	return existingID, false, nil
}

// MarkRead sets read_at once; marking an already-read notification is a no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = $2 WHERE id = $1 AND read_at IS NULL`,
		id, at,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification read", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return infra.WrapRepoErr("failed to check notification existence", err)
	}
	if !exists {
		return infra.WrapRepoErrKind(infra.KindNotFound, "notification not found", nil)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = $1 WHERE read_at IS NULL`, at,
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to mark all notifications read", err)
	}
	return tag.RowsAffected(), nil
}
