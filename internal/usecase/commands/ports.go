package commands

import (
	"context"
	"time"

	"admin-alerts/internal/domain/notification"
	"admin-alerts/internal/queue"

	"github.com/google/uuid"
)

// NotificationRepository is the durability anchor of the pipeline: Create is
// append-only, idempotent on (type, correlation id), and must never silently
// drop a write. The bool result reports whether a new row was created (false
// means an idempotent replay).
type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) (uuid.UUID, bool, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, at time.Time) (int64, error)
}

// DedupGate suppresses repeat alerts of the same key within a time window.
// Implementations must be safe for concurrent use; callers fail open when the
// gate errors.
type DedupGate interface {
	ShouldSuppress(ctx context.Context, key string, now time.Time) (bool, error)
	Record(ctx context.Context, key string, now time.Time) error
}

type EntityKind string

const (
	EntityProduct EntityKind = "product"
	EntityOrder   EntityKind = "order"
)

type EntityRef struct {
	Kind EntityKind
	ID   uuid.UUID
}

type TransitionResult int

const (
	TransitionApplied TransitionResult = iota
	TransitionSkipped
)

// StateUpdater applies side-effect status transitions to domain entities.
// Re-applying a transition whose entity already holds the proposed status is a
// no-op (Skipped), never an error, so retried envelopes cannot flip state twice.
type StateUpdater interface {
	ApplyTransition(ctx context.Context, ref EntityRef, proposed string, precondition []string) (TransitionResult, error)
}

// MailQueue accepts email jobs for asynchronous delivery.
type MailQueue interface {
	Enqueue(job queue.EmailJob) (*queue.JobHandle, error)
}
