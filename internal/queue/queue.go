package queue

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"admin-alerts/internal/pkg/clock"
	"admin-alerts/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

var ErrQueueStopped = errs.New("delivery queue stopped")

// Transport delivers a single email; it must report success or failure
// unambiguously.
type Transport interface {
	Send(ctx context.Context, job EmailJob) error
}

// SendGate runs immediately before the transport call, not at enqueue time, so
// opt-out or feature-flag changes made while a job waits are respected.
type SendGate func(job EmailJob) bool

// FailureFunc receives each permanently failed job exactly once.
type FailureFunc func(job EmailJob, err error)

type Options struct {
	Transport          Transport
	Clock              clock.Clock
	Gate               SendGate
	Workers            int
	AttemptTimeout     time.Duration
	DefaultMaxAttempts int
	RetryBase          time.Duration
	Logger             *slog.Logger
	Metrics            *Metrics
}

// Queue is a priority/delay email queue: a min-heap ordered by
// (notBefore, severity rank) drained by an independent worker pool, so a slow
// mail transport never blocks event dispatch.
type Queue struct {
	transport      Transport
	clock          clock.Clock
	gate           SendGate
	onFailure      FailureFunc
	workers        int
	attemptTimeout time.Duration
	maxAttempts    int
	retryBase      time.Duration
	logger         *slog.Logger
	metrics        *Metrics

	mu      sync.Mutex
	items   itemHeap
	seq     uint64
	stopped bool

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Queue {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.DefaultMaxAttempts <= 0 {
		opts.DefaultMaxAttempts = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Queue{
		transport:      opts.Transport,
		clock:          opts.Clock,
		gate:           opts.Gate,
		workers:        opts.Workers,
		attemptTimeout: opts.AttemptTimeout,
		maxAttempts:    opts.DefaultMaxAttempts,
		retryBase:      opts.RetryBase,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		wake:           make(chan struct{}, 1),
	}
}

// OnFailure registers the permanent-failure observer. Must be called before
// Start.
func (q *Queue) OnFailure(fn FailureFunc) {
	q.onFailure = fn
}

func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.worker(ctx)
		}()
	}
}

// Stop rejects further enqueues and waits for in-flight attempts to finish.
// Jobs still waiting in the heap are abandoned; the surrounding at-least-once
// transport redelivers their envelopes.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *Queue) Enqueue(job EmailJob) (*JobHandle, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.MaxAttempts <= 0 {
		job.MaxAttempts = q.maxAttempts
	}
	if job.NotBefore.IsZero() {
		job.NotBefore = q.clock.Now()
	}
	handle := newJobHandle(job.ID)

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil, ErrQueueStopped
	}
	q.seq++
	heap.Push(&q.items, &item{
		job:       job,
		handle:    handle,
		notBefore: job.NotBefore,
		seq:       q.seq,
	})
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.incEnqueued()
	q.metrics.setDepth(depth)
	q.kick()
	return handle, nil
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) kick() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) worker(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		now := q.clock.Now()
		top := q.items[0]
		if top.notBefore.After(now) {
			wait := top.notBefore.Sub(now)
			q.mu.Unlock()
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-q.wake:
			case <-ctx.Done():
				timer.Stop()
				return
			}
			timer.Stop()
			continue
		}

		it := heap.Pop(&q.items).(*item)
		depth := len(q.items)
		q.mu.Unlock()
		q.metrics.setDepth(depth)

		q.process(ctx, it)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (q *Queue) process(ctx context.Context, it *item) {
	job := it.job

	if q.gate != nil && !q.gate(job) {
		// Veto is a deliberate no-op, not a failure.
		it.handle.markDelivered()
		q.metrics.incSkipped()
		q.logger.Info("email send vetoed",
			"job_id", job.ID, "type", job.NotificationType, "recipient", job.Recipient)
		return
	}

	attemptCtx, cancel := context.WithTimeout(ctx, q.attemptTimeout)
	err := q.transport.Send(attemptCtx, job)
	cancel()

	attempts := it.handle.incAttempts()
	if err == nil {
		it.handle.markDelivered()
		q.metrics.incDelivered()
		q.logger.Info("email delivered",
			"job_id", job.ID, "type", job.NotificationType, "attempts", attempts)
		return
	}

	if attempts >= job.MaxAttempts {
		it.handle.markFailed(err)
		q.metrics.incFailed()
		q.logger.Error("email permanently failed",
			"job_id", job.ID, "type", job.NotificationType, "attempts", attempts, "error", err)
		if q.onFailure != nil && !job.SuppressFailureAlert {
			q.onFailure(job, err)
		}
		return
	}

	delay := it.nextBackoff(q.retryBase)
	it.notBefore = q.clock.Now().Add(delay)

	q.mu.Lock()
	rescheduled := !q.stopped
	if rescheduled {
		heap.Push(&q.items, it)
	}
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.setDepth(depth)
	q.metrics.incRetries()
	if rescheduled {
		q.logger.Warn("email attempt failed, rescheduled",
			"job_id", job.ID, "attempt", attempts, "next_in", delay, "error", err)
		q.kick()
	}
}

type item struct {
	job       EmailJob
	handle    *JobHandle
	notBefore time.Time
	seq       uint64
	bo        *backoff.ExponentialBackOff
}

func (it *item) nextBackoff(base time.Duration) time.Duration {
	if it.bo == nil {
		it.bo = backoff.NewExponentialBackOff()
		it.bo.InitialInterval = base
		it.bo.MaxElapsedTime = 0
	}
	return it.bo.NextBackOff()
}

type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if !h[i].notBefore.Equal(h[j].notBefore) {
		return h[i].notBefore.Before(h[j].notBefore)
	}
	if h[i].job.Severity != h[j].job.Severity {
		return h[i].job.Severity.Rank() > h[j].job.Severity.Rank()
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
