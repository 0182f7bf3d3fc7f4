package commands

import (
	"context"

	"admin-alerts/internal/infra"
	"admin-alerts/internal/pkg/clock"
	"admin-alerts/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errs.New("notification not found")

// NotificationCommands is the admin-facing write surface: the pipeline itself
// never marks anything read.
type NotificationCommands interface {
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type notificationCommandsImpl struct {
	repo  NotificationRepository
	clock clock.Clock
}

func NewNotificationCommands(repo NotificationRepository, clk clock.Clock) NotificationCommands {
	return &notificationCommandsImpl{repo: repo, clock: clk}
}

func (c *notificationCommandsImpl) MarkRead(ctx context.Context, id uuid.UUID) error {
	err := c.repo.MarkRead(ctx, id, c.clock.Now())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrNotificationNotFound
		}
		return errs.Wrap(err, "failed to mark notification read")
	}
	return nil
}

func (c *notificationCommandsImpl) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := c.repo.MarkAllRead(ctx, c.clock.Now())
	if err != nil {
		return 0, errs.Wrap(err, "failed to mark all notifications read")
	}
	return count, nil
}
