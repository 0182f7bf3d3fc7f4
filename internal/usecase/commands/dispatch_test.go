//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"admin-alerts/internal/domain/alert"
	"admin-alerts/internal/domain/event"
	"admin-alerts/internal/domain/notification"
	"admin-alerts/internal/pkg/clock"
	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/queue"
	"admin-alerts/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Create(ctx context.Context, n *notification.Notification) (uuid.UUID, bool, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	args := m.Called(ctx, at)
	return args.Get(0).(int64), args.Error(1)
}

type mockDedupGate struct{ mock.Mock }

func (m *mockDedupGate) ShouldSuppress(ctx context.Context, key string, now time.Time) (bool, error) {
	args := m.Called(ctx, key, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockDedupGate) Record(ctx context.Context, key string, now time.Time) error {
	return m.Called(ctx, key, now).Error(0)
}

type mockStateUpdater struct{ mock.Mock }

func (m *mockStateUpdater) ApplyTransition(ctx context.Context, ref commands.EntityRef, proposed string, precondition []string) (commands.TransitionResult, error) {
	args := m.Called(ctx, ref, proposed, precondition)
	return args.Get(0).(commands.TransitionResult), args.Error(1)
}

type mockMailQueue struct{ mock.Mock }

func (m *mockMailQueue) Enqueue(job queue.EmailJob) (*queue.JobHandle, error) {
	args := m.Called(job)
	handle, _ := args.Get(0).(*queue.JobHandle)
	return handle, args.Error(1)
}

type dispatchFixture struct {
	repo  *mockNotificationRepo
	dedup *mockDedupGate
	state *mockStateUpdater
	mail  *mockMailQueue
	clock *clock.MockClock
	d     *commands.Dispatcher
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	f := &dispatchFixture{
		repo:  &mockNotificationRepo{},
		dedup: &mockDedupGate{},
		state: &mockStateUpdater{},
		mail:  &mockMailQueue{},
		clock: clock.NewMockClock(fixedNow),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.d = commands.NewEventDispatcher(f.repo, f.dedup, f.state, f.mail, config.NewTestConfig().Pipeline, f.clock, logger)
	return f
}

func (f *dispatchFixture) assertAll(t *testing.T) {
	t.Helper()
	f.repo.AssertExpectations(t)
	f.dedup.AssertExpectations(t)
	f.state.AssertExpectations(t)
	f.mail.AssertExpectations(t)
}

func stockOutEnvelope(t *testing.T, productID uuid.UUID) *event.Envelope {
	t.Helper()
	env, err := event.New(event.KindStockAlert, event.StockPayload{
		ProductID:    productID,
		ProductName:  "Widget",
		AlertType:    event.StockOut,
		CurrentStock: 0,
		Threshold:    5,
	}, fixedNow.Add(-time.Second), "stock-out-42")
	require.NoError(t, err)
	return env
}

func TestDispatchStockOut(t *testing.T) {
	t.Run("full pipeline: dedup, store, transition, email", func(t *testing.T) {
		f := newDispatchFixture(t)
		productID := uuid.New()
		env := stockOutEnvelope(t, productID)
		storedID := uuid.New()

		dedupKey := "stock_alert:OUT_OF_STOCK:" + productID.String()
		f.dedup.On("ShouldSuppress", mock.Anything, dedupKey, fixedNow).Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(n *notification.Notification) bool {
			return n.Type() == notification.TypeInventoryOut && n.CorrelationID() == "stock-out-42"
		})).Return(storedID, true, nil)
		f.state.On("ApplyTransition", mock.Anything,
			commands.EntityRef{Kind: commands.EntityProduct, ID: productID},
			"out_of_stock", []string{"active", "low_stock"},
		).Return(commands.TransitionApplied, nil)
		f.dedup.On("Record", mock.Anything, dedupKey, fixedNow).Return(nil)
		f.mail.On("Enqueue", mock.MatchedBy(func(job queue.EmailJob) bool {
			return job.NotificationID == storedID &&
				job.Severity == alert.SeverityCritical &&
				job.NotBefore.Equal(fixedNow) && // critical means no delay
				!job.SuppressFailureAlert
		})).Return(nil, nil)

		err := f.d.Dispatch(context.Background(), env)
		require.NoError(t, err)
		f.assertAll(t)
	})

	t.Run("suppressed within dedup window skips everything", func(t *testing.T) {
		f := newDispatchFixture(t)
		env := stockOutEnvelope(t, uuid.New())

		f.dedup.On("ShouldSuppress", mock.Anything, mock.Anything, fixedNow).Return(true, nil)

		err := f.d.Dispatch(context.Background(), env)
		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.mail.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("dedup gate failure fails open", func(t *testing.T) {
		f := newDispatchFixture(t)
		env := stockOutEnvelope(t, uuid.New())

		f.dedup.On("ShouldSuppress", mock.Anything, mock.Anything, fixedNow).
			Return(false, assert.AnError)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), true, nil)
		f.state.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(commands.TransitionApplied, nil)
		f.dedup.On("Record", mock.Anything, mock.Anything, fixedNow).Return(nil)
		f.mail.On("Enqueue", mock.Anything).Return(nil, nil)

		err := f.d.Dispatch(context.Background(), env)
		require.NoError(t, err)
		f.repo.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure is retryable", func(t *testing.T) {
		f := newDispatchFixture(t)
		env := stockOutEnvelope(t, uuid.New())

		f.dedup.On("ShouldSuppress", mock.Anything, mock.Anything, fixedNow).Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.Nil, false, assert.AnError)

		err := f.d.Dispatch(context.Background(), env)
		require.Error(t, err)
		assert.True(t, commands.IsRetryable(err))
		f.state.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.mail.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("replayed envelope skips side effects", func(t *testing.T) {
		f := newDispatchFixture(t)
		env := stockOutEnvelope(t, uuid.New())

		f.dedup.On("ShouldSuppress", mock.Anything, mock.Anything, fixedNow).Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), false, nil)

		err := f.d.Dispatch(context.Background(), env)
		require.NoError(t, err)
		f.state.AssertNotCalled(t, "ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.dedup.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
		f.mail.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("failed transition does not fail the dispatch", func(t *testing.T) {
		f := newDispatchFixture(t)
		env := stockOutEnvelope(t, uuid.New())

		f.dedup.On("ShouldSuppress", mock.Anything, mock.Anything, fixedNow).Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), true, nil)
		f.state.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(commands.TransitionSkipped, assert.AnError)
		f.dedup.On("Record", mock.Anything, mock.Anything, fixedNow).Return(nil)
		f.mail.On("Enqueue", mock.Anything).Return(nil, nil)

		err := f.d.Dispatch(context.Background(), env)
		require.NoError(t, err)
		f.mail.AssertCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("email enqueue failure is swallowed after the durable write", func(t *testing.T) {
		f := newDispatchFixture(t)
		env := stockOutEnvelope(t, uuid.New())

		f.dedup.On("ShouldSuppress", mock.Anything, mock.Anything, fixedNow).Return(false, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), true, nil)
		f.state.On("ApplyTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(commands.TransitionApplied, nil)
		f.dedup.On("Record", mock.Anything, mock.Anything, fixedNow).Return(nil)
		f.mail.On("Enqueue", mock.Anything).Return(nil, queue.ErrQueueStopped)

		err := f.d.Dispatch(context.Background(), env)
		require.NoError(t, err)
	})
}

func TestDispatchUnhandledKind(t *testing.T) {
	f := newDispatchFixture(t)
	env, err := event.New(event.Kind("bogus"), event.SystemPayload{Component: "x"}, fixedNow, "corr-1")
	require.NoError(t, err)

	err = f.d.Dispatch(context.Background(), env)
	require.Error(t, err)
	assert.ErrorIs(t, err, commands.ErrUnhandledEvent)
	assert.False(t, commands.IsRetryable(err))
}

func TestDispatchPayment(t *testing.T) {
	newPaymentEnvelope := func(t *testing.T, orderID uuid.UUID, successful bool) *event.Envelope {
		t.Helper()
		env, err := event.New(event.KindPaymentProcessed, event.PaymentPayload{
			OrderID:       orderID,
			PaymentID:     uuid.New(),
			CustomerEmail: "buyer@example.com",
			AmountCents:   2500,
			Successful:    successful,
			FailureReason: "card declined",
		}, fixedNow.Add(-time.Second), "pay-9")
		require.NoError(t, err)
		return env
	}

	t.Run("successful payment confirms the order", func(t *testing.T) {
		f := newDispatchFixture(t)
		orderID := uuid.New()

		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), true, nil)
		f.state.On("ApplyTransition", mock.Anything,
			commands.EntityRef{Kind: commands.EntityOrder, ID: orderID},
			"confirmed", []string{"pending", "payment_failed"},
		).Return(commands.TransitionApplied, nil)
		f.mail.On("Enqueue", mock.Anything).Return(nil, nil)

		err := f.d.Dispatch(context.Background(), newPaymentEnvelope(t, orderID, true))
		require.NoError(t, err)
		// Payments are not deduplicated, so the gate is never consulted.
		f.dedup.AssertNotCalled(t, "ShouldSuppress", mock.Anything, mock.Anything, mock.Anything)
		f.assertAll(t)
	})

	t.Run("failed payment marks the order", func(t *testing.T) {
		f := newDispatchFixture(t)
		orderID := uuid.New()

		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.New(), true, nil)
		f.state.On("ApplyTransition", mock.Anything,
			commands.EntityRef{Kind: commands.EntityOrder, ID: orderID},
			"payment_failed", []string{"pending"},
		).Return(commands.TransitionApplied, nil)
		f.mail.On("Enqueue", mock.MatchedBy(func(job queue.EmailJob) bool {
			// High severity waits out the configured delay before sending.
			return job.NotBefore.Equal(fixedNow.Add(10 * time.Second))
		})).Return(nil, nil)

		err := f.d.Dispatch(context.Background(), newPaymentEnvelope(t, orderID, false))
		require.NoError(t, err)
		f.assertAll(t)
	})
}

func TestHandleEmailFailure(t *testing.T) {
	t.Run("records a delivery-failure alert with a single-shot email", func(t *testing.T) {
		f := newDispatchFixture(t)
		failedJob := queue.EmailJob{
			ID:               uuid.New(),
			NotificationType: notification.TypeInventoryOut,
			CorrelationID:    "stock-out-42",
			Recipient:        "admin@example.com",
			Subject:          "[CRITICAL] Out of stock: Widget",
			MaxAttempts:      3,
		}

		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(n *notification.Notification) bool {
			return n.Type() == notification.TypeDeliveryFailed &&
				n.CorrelationID() == "delivery-failed:"+failedJob.ID.String()
		})).Return(uuid.New(), true, nil)
		f.mail.On("Enqueue", mock.MatchedBy(func(job queue.EmailJob) bool {
			return job.MaxAttempts == 1 &&
				job.SuppressFailureAlert &&
				job.Recipient == "admin@example.com"
		})).Return(nil, nil)

		f.d.HandleEmailFailure(failedJob, assert.AnError)
		f.assertAll(t)
	})

	t.Run("store failure stops without enqueueing", func(t *testing.T) {
		f := newDispatchFixture(t)
		failedJob := queue.EmailJob{ID: uuid.New(), MaxAttempts: 3}

		f.repo.On("Create", mock.Anything, mock.Anything).Return(uuid.Nil, false, assert.AnError)

		f.d.HandleEmailFailure(failedJob, assert.AnError)
		f.mail.AssertNotCalled(t, "Enqueue", mock.Anything)
	})
}
