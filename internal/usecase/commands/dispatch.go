package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"admin-alerts/internal/domain/alert"
	"admin-alerts/internal/domain/event"
	"admin-alerts/internal/domain/notification"
	"admin-alerts/internal/pkg/clock"
	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/pkg/errs"
	"admin-alerts/internal/queue"

	"github.com/google/uuid"
)

var (
	// ErrUnhandledEvent marks envelopes with no registered handler; logged,
	// never retried.
	ErrUnhandledEvent = errs.New("unhandled event kind")
	// ErrRetryableStore marks transient notification-store failures; the whole
	// envelope is redelivered by the inbound transport.
	ErrRetryableStore = errs.New("notification store unavailable")
)

// IsRetryable reports whether a dispatch error should cause envelope
// redelivery.
func IsRetryable(err error) bool {
	return errs.Is(err, ErrRetryableStore)
}

const (
	productActive     = "active"
	productLowStock   = "low_stock"
	productOutOfStock = "out_of_stock"

	orderPending       = "pending"
	orderConfirmed     = "confirmed"
	orderPaymentFailed = "payment_failed"
)

type transition struct {
	ref          EntityRef
	proposed     string
	precondition []string
}

// kindHandler holds the per-kind pieces of dispatch: the dedup key and the
// entity transitions an event triggers. Rendering is shared.
type kindHandler struct {
	dedupKey    func(env *event.Envelope) string
	transitions func(env *event.Envelope) []transition
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, env *event.Envelope) error
}

type Dispatcher struct {
	notifications NotificationRepository
	dedup         DedupGate
	state         StateUpdater
	mail          MailQueue
	policy        alert.Policy
	dedupKinds    map[string]bool
	handlers      map[event.Kind]kindHandler
	clock         clock.Clock
	logger        *slog.Logger
}

func NewEventDispatcher(
	notifications NotificationRepository,
	dedup DedupGate,
	state StateUpdater,
	mail MailQueue,
	cfg config.PipelineConfig,
	clk clock.Clock,
	logger *slog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		notifications: notifications,
		dedup:         dedup,
		state:         state,
		mail:          mail,
		policy: alert.Policy{
			AdminRecipient: cfg.AdminRecipient,
			Delays: alert.Delays{
				High:   cfg.DelayHigh,
				Medium: cfg.DelayMedium,
				Low:    cfg.DelayLow,
			},
		},
		dedupKinds: cfg.DedupKinds,
		clock:      clk,
		logger:     logger,
	}
	d.handlers = map[event.Kind]kindHandler{
		event.KindNewOrder:         {},
		event.KindPaymentProcessed: {transitions: paymentTransitions},
		event.KindStockAlert:       {dedupKey: stockDedupKey, transitions: stockTransitions},
		event.KindUserActivity:     {dedupKey: activityDedupKey},
		event.KindSystemAlert:      {dedupKey: systemDedupKey},
	}
	return d
}

// Dispatch runs the fixed step order for one envelope:
// dedup check → render → store write → state update → email enqueue.
// The durable store write happens before the best-effort email, so a mail
// outage can never lose a notification.
func (d *Dispatcher) Dispatch(ctx context.Context, env *event.Envelope) error {
	h, ok := d.handlers[env.Kind()]
	if !ok {
		d.logger.Warn("no handler registered for event kind",
			"kind", env.Kind(), "correlation_id", env.CorrelationID())
		return errs.Mark(errs.Newf("no handler for kind %q", env.Kind()), ErrUnhandledEvent)
	}

	now := d.clock.Now()
	key := d.dedupKeyFor(env, h)
	if key != "" {
		suppressed, err := d.dedup.ShouldSuppress(ctx, key, now)
		if err != nil {
			// Fail open: over-notifying beats silently dropping an alert.
			d.logger.Warn("dedup gate unavailable, failing open", "key", key, "error", err)
		} else if suppressed {
			d.logger.Debug("alert suppressed within dedup window",
				"key", key, "correlation_id", env.CorrelationID())
			return nil
		}
	}

	rendered := alert.Render(env, d.policy)
	n, err := notification.New(
		rendered.Title, rendered.Message, rendered.Type,
		rendered.Data, rendered.ActionRef, env.CorrelationID(), now,
	)
	if err != nil {
		return errs.Wrap(err, "failed to build notification")
	}

	id, created, err := d.notifications.Create(ctx, n)
	if err != nil {
		return errs.Mark(err, ErrRetryableStore)
	}
	if !created {
		// Idempotent replay of a redelivered envelope; all side effects already
		// happened (or will, via the earlier delivery).
		d.logger.Info("duplicate envelope ignored",
			"correlation_id", env.CorrelationID(), "notification_id", id)
		return nil
	}

	if h.transitions != nil {
		d.applyTransitions(ctx, h.transitions(env))
	}

	if key != "" {
		if err := d.dedup.Record(ctx, key, now); err != nil {
			d.logger.Warn("failed to record dedup key", "key", key, "error", err)
		}
	}

	d.enqueueEmail(rendered, id, env.CorrelationID(), now)
	return nil
}

func (d *Dispatcher) dedupKeyFor(env *event.Envelope, h kindHandler) string {
	if h.dedupKey == nil || !d.dedupKinds[string(env.Kind())] {
		return ""
	}
	return h.dedupKey(env)
}

func (d *Dispatcher) applyTransitions(ctx context.Context, ts []transition) {
	for _, t := range ts {
		res, err := d.state.ApplyTransition(ctx, t.ref, t.proposed, t.precondition)
		if err != nil {
			// The durable notification exists; a failed side effect is logged,
			// not propagated, because redelivery would replay past it anyway.
			d.logger.Error("state transition failed",
				"entity", t.ref.Kind, "id", t.ref.ID, "proposed", t.proposed, "error", err)
			continue
		}
		if res == TransitionSkipped {
			d.logger.Debug("state transition skipped",
				"entity", t.ref.Kind, "id", t.ref.ID, "proposed", t.proposed)
		}
	}
}

func (d *Dispatcher) enqueueEmail(r alert.Rendered, notificationID uuid.UUID, correlationID string, now time.Time) {
	job := queue.EmailJob{
		NotificationID:   notificationID,
		NotificationType: r.Type,
		CorrelationID:    correlationID,
		Recipient:        r.Email.Recipient,
		Subject:          r.Email.Subject,
		ContentFields:    r.Email.ContentFields,
		Actions:          r.Email.Actions,
		Severity:         r.Email.Severity,
		QueueClass:       r.Email.QueueClass,
		NotBefore:        now.Add(r.Email.Delay),
	}
	if _, err := d.mail.Enqueue(job); err != nil {
		// Best-effort path: never fails the dispatch, the notification is
		// already stored.
		d.logger.Warn("email enqueue failed",
			"notification_id", notificationID, "correlation_id", correlationID, "error", err)
	}
}

// HandleEmailFailure is wired as the delivery queue's permanent-failure
// observer. It records the failure as its own alert; that alert's email is a
// single, fire-and-forget attempt so exhaustion can never recurse.
func (d *Dispatcher) HandleEmailFailure(job queue.EmailJob, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := d.clock.Now()
	data := map[string]string{
		"correlation_id":    job.CorrelationID,
		"failed_job_id":     job.ID.String(),
		"notification_type": job.NotificationType,
		"recipient":         job.Recipient,
		"error":             cause.Error(),
	}
	n, err := notification.New(
		"Email delivery failed",
		fmt.Sprintf("Could not deliver %q to %s after %d attempt(s)", job.Subject, job.Recipient, job.MaxAttempts),
		notification.TypeDeliveryFailed,
		data,
		"",
		"delivery-failed:"+job.ID.String(),
		now,
	)
	if err != nil {
		d.logger.Error("failed to build delivery-failure notification", "error", err)
		return
	}
	if _, _, err := d.notifications.Create(ctx, n); err != nil {
		d.logger.Error("failed to record delivery-failure notification",
			"failed_job_id", job.ID, "error", err)
		return
	}

	sev := alert.SeverityFor(notification.TypeDeliveryFailed)
	_, err = d.mail.Enqueue(queue.EmailJob{
		NotificationID:       n.ID(),
		NotificationType:     notification.TypeDeliveryFailed,
		CorrelationID:        "delivery-failed:" + job.ID.String(),
		Recipient:            d.policy.AdminRecipient,
		Subject:              "[HIGH] Email delivery failed",
		ContentFields:        data,
		Severity:             sev,
		QueueClass:           alert.ClassFor(sev),
		NotBefore:            now,
		MaxAttempts:          1,
		SuppressFailureAlert: true,
	})
	if err != nil {
		d.logger.Warn("failed to enqueue delivery-failure email", "failed_job_id", job.ID, "error", err)
	}
}

func stockDedupKey(env *event.Envelope) string {
	p, ok := env.Payload().(event.StockPayload)
	if !ok {
		return ""
	}
	return fmt.Sprintf("stock_alert:%s:%s", p.AlertType, p.ProductID)
}

func activityDedupKey(env *event.Envelope) string {
	p, ok := env.Payload().(event.ActivityPayload)
	if !ok {
		return ""
	}
	return fmt.Sprintf("user_activity:%s:%s", p.Action, p.UserID)
}

func systemDedupKey(env *event.Envelope) string {
	p, ok := env.Payload().(event.SystemPayload)
	if !ok {
		return ""
	}
	return "system_alert:" + p.Component
}

func stockTransitions(env *event.Envelope) []transition {
	p, ok := env.Payload().(event.StockPayload)
	if !ok {
		return nil
	}
	ref := EntityRef{Kind: EntityProduct, ID: p.ProductID}
	switch p.AlertType {
	case event.StockOut:
		return []transition{{ref: ref, proposed: productOutOfStock, precondition: []string{productActive, productLowStock}}}
	case event.StockLow:
		return []transition{{ref: ref, proposed: productLowStock, precondition: []string{productActive}}}
	case event.StockRestocked:
		return []transition{{ref: ref, proposed: productActive, precondition: []string{productLowStock, productOutOfStock}}}
	default:
		return nil
	}
}

func paymentTransitions(env *event.Envelope) []transition {
	p, ok := env.Payload().(event.PaymentPayload)
	if !ok {
		return nil
	}
	ref := EntityRef{Kind: EntityOrder, ID: p.OrderID}
	if p.Successful {
		return []transition{{ref: ref, proposed: orderConfirmed, precondition: []string{orderPending, orderPaymentFailed}}}
	}
	return []transition{{ref: ref, proposed: orderPaymentFailed, precondition: []string{orderPending}}}
}
