package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationView is the read-side shape consumed by the admin dashboard.
type NotificationView struct {
	ID            uuid.UUID
	Title         string
	Message       string
	Type          string
	Data          map[string]string
	ActionRef     string
	CorrelationID string
	CreatedAt     time.Time
	ReadAt        *time.Time
}

type NotificationFilters struct {
	Type *string
}

type NotificationReadStore interface {
	ListUnread(ctx context.Context, filters NotificationFilters, cursor *Cursor, limit int) ([]*NotificationView, *Cursor, error)
	CountUnread(ctx context.Context) (int64, error)
}

type NotificationQueries interface {
	ListUnread(ctx context.Context, filters NotificationFilters, cursor *Cursor, limit int) ([]*NotificationView, *Cursor, error)
	CountUnread(ctx context.Context) (int64, error)
}

type notificationQueriesImpl struct {
	store NotificationReadStore
}

func NewNotificationQueries(store NotificationReadStore) NotificationQueries {
	return &notificationQueriesImpl{store: store}
}

func (q *notificationQueriesImpl) ListUnread(ctx context.Context, filters NotificationFilters, cursor *Cursor, limit int) ([]*NotificationView, *Cursor, error) {
	return q.store.ListUnread(ctx, filters, cursor, ValidateLimit(limit))
}

func (q *notificationQueriesImpl) CountUnread(ctx context.Context) (int64, error) {
	return q.store.CountUnread(ctx)
}
