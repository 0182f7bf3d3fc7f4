package queue

import (
	"sync"
	"time"

	"admin-alerts/internal/domain/alert"

	"github.com/google/uuid"
)

type Status string

// A job is pending, delivered, or permanently failed; there are no other states.
const (
	StatusPending           Status = "pending"
	StatusDelivered         Status = "delivered"
	StatusPermanentlyFailed Status = "permanently_failed"
)

// EmailJob is a scheduled outbound email. NotBefore carries the severity-based
// delay; MaxAttempts bounds retries (0 means the queue default).
type EmailJob struct {
	ID               uuid.UUID
	NotificationID   uuid.UUID
	NotificationType string
	CorrelationID    string

	Recipient     string
	Subject       string
	ContentFields map[string]string
	Actions       []string

	Severity   alert.Severity
	QueueClass alert.QueueClass
	NotBefore  time.Time

	MaxAttempts int
	// SuppressFailureAlert marks fire-and-forget jobs (the failure-notification's
	// own email) whose terminal failure must not synthesize another alert.
	SuppressFailureAlert bool
}

// JobHandle tracks a job's progress; safe for concurrent reads while workers
// update it.
type JobHandle struct {
	id uuid.UUID

	mu       sync.Mutex
	status   Status
	attempts int
	lastErr  error
}

func newJobHandle(id uuid.UUID) *JobHandle {
	return &JobHandle{id: id, status: StatusPending}
}

func (h *JobHandle) ID() uuid.UUID { return h.id }

func (h *JobHandle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *JobHandle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

func (h *JobHandle) LastErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

func (h *JobHandle) incAttempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
	return h.attempts
}

func (h *JobHandle) markDelivered() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = StatusDelivered
}

func (h *JobHandle) markFailed(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = StatusPermanentlyFailed
	h.lastErr = err
}
