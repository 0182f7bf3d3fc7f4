package readstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admin-alerts/internal/infra"
	"admin-alerts/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationReadStore struct {
	pool *pgxpool.Pool
}

func NewNotificationReadStore(pool *pgxpool.Pool) *NotificationReadStore {
	return &NotificationReadStore{pool: pool}
}

// ListUnread pages through unread notifications newest-first using a keyset
// cursor on (created_at, id).
func (s *NotificationReadStore) ListUnread(
	ctx context.Context,
	filters queries.NotificationFilters,
	cursor *queries.Cursor,
	limit int,
) ([]*queries.NotificationView, *queries.Cursor, error) {
	sql := `
		SELECT id, title, message, type, data, action_ref, correlation_id, created_at, read_at
		FROM notifications
		WHERE read_at IS NULL`
	args := []any{}

	if filters.Type != nil {
		args = append(args, *filters.Type)
		sql += ` AND type = $1`
	}
	if cursor != nil && cursor.After != "" {
		afterTime, afterID, err := queries.DecodeAfterCursor(cursor.After)
		if err != nil {
			return nil, nil, infra.WrapRepoErrKind(infra.KindDBFailure, "invalid pagination cursor", err)
		}
		args = append(args, afterTime, afterID)
		sql += placeholders(` AND (created_at, id) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit)
	sql += placeholders(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, infra.WrapRepoErr("failed to list unread notifications", err)
	}
	defer rows.Close()

	var result []*queries.NotificationView
	for rows.Next() {
		view, err := scanNotificationView(rows)
		if err != nil {
			return nil, nil, infra.WrapRepoErr("failed to scan notification row", err)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, infra.WrapRepoErr("failed to iterate notification rows", err)
	}

	var next *queries.Cursor
	if len(result) == limit {
		last := result[len(result)-1]
		next = &queries.Cursor{After: queries.EncodeAfterCursor(last.CreatedAt, last.ID)}
	}
	return result, next, nil
}

func (s *NotificationReadStore) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE read_at IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count unread notifications", err)
	}
	return count, nil
}

func placeholders(format string, nums ...int) string {
	args := make([]any, len(nums))
	for i, n := range nums {
		args[i] = n
	}
	return fmt.Sprintf(format, args...)
}

func scanNotificationView(rows pgx.Rows) (*queries.NotificationView, error) {
	var (
		view    queries.NotificationView
		id      uuid.UUID
		rawData []byte
		created time.Time
		readAt  *time.Time
	)
	err := rows.Scan(&id, &view.Title, &view.Message, &view.Type, &rawData,
		&view.ActionRef, &view.CorrelationID, &created, &readAt)
	if err != nil {
		return nil, err
	}
	view.ID = id
	view.CreatedAt = created
	view.ReadAt = readAt
	view.Data = map[string]string{}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &view.Data); err != nil {
			return nil, err
		}
	}
	return &view, nil
}
