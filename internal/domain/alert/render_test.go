//go:build unit

package alert_test

import (
	"testing"
	"time"

	"admin-alerts/internal/domain/alert"
	"admin-alerts/internal/domain/event"
	"admin-alerts/internal/domain/notification"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() alert.Policy {
	return alert.Policy{
		AdminRecipient: "admin@example.com",
		Delays:         alert.DefaultDelays(),
	}
}

func mustEnvelope(t *testing.T, kind event.Kind, payload event.Payload, corrID string) *event.Envelope {
	t.Helper()
	env, err := event.New(kind, payload, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), corrID)
	require.NoError(t, err)
	return env
}

func TestRenderStockAlert(t *testing.T) {
	productID := uuid.New()

	t.Run("out of stock is critical with zero delay", func(t *testing.T) {
		env := mustEnvelope(t, event.KindStockAlert, event.StockPayload{
			ProductID:    productID,
			ProductName:  "Widget",
			AlertType:    event.StockOut,
			CurrentStock: 0,
			Threshold:    5,
		}, "stock-out-1")

		r := alert.Render(env, testPolicy())

		assert.Equal(t, notification.TypeInventoryOut, r.Type)
		assert.Equal(t, alert.SeverityCritical, r.Severity)
		assert.Equal(t, "/admin/products/"+productID.String(), r.ActionRef)
		assert.Equal(t, "stock-out-1", r.Data["correlation_id"])

		assert.Equal(t, "admin@example.com", r.Email.Recipient)
		assert.Equal(t, "[CRITICAL] Out of stock: Widget", r.Email.Subject)
		assert.Equal(t, alert.QueueCritical, r.Email.QueueClass)
		assert.Equal(t, time.Duration(0), r.Email.Delay)
	})

	t.Run("low stock is medium with medium delay", func(t *testing.T) {
		env := mustEnvelope(t, event.KindStockAlert, event.StockPayload{
			ProductID:    productID,
			ProductName:  "Widget",
			AlertType:    event.StockLow,
			CurrentStock: 3,
			Threshold:    5,
		}, "stock-low-1")

		r := alert.Render(env, testPolicy())

		assert.Equal(t, notification.TypeInventoryLow, r.Type)
		assert.Equal(t, alert.SeverityMedium, r.Severity)
		assert.Equal(t, 45*time.Second, r.Email.Delay)
		assert.Equal(t, "Low stock: Widget", r.Email.Subject)
	})

	t.Run("unknown alert type falls back to generic inventory alert", func(t *testing.T) {
		env := mustEnvelope(t, event.KindStockAlert, event.StockPayload{
			ProductID:   productID,
			ProductName: "Widget",
			AlertType:   event.StockAlertType("SOMETHING_NEW"),
		}, "stock-x-1")

		r := alert.Render(env, testPolicy())
		assert.Equal(t, notification.TypeInventoryAlert, r.Type)
		assert.Equal(t, alert.SeverityMedium, r.Severity)
	})
}

func TestRenderPayment(t *testing.T) {
	orderID := uuid.New()

	t.Run("failed payment is high severity", func(t *testing.T) {
		env := mustEnvelope(t, event.KindPaymentProcessed, event.PaymentPayload{
			OrderID:       orderID,
			PaymentID:     uuid.New(),
			CustomerEmail: "buyer@example.com",
			AmountCents:   2500,
			Successful:    false,
			FailureReason: "card declined",
		}, "pay-1")

		r := alert.Render(env, testPolicy())

		assert.Equal(t, notification.TypePaymentFailed, r.Type)
		assert.Equal(t, alert.SeverityHigh, r.Severity)
		assert.Equal(t, "card declined", r.Data["failure_reason"])
		assert.Equal(t, "buyer@example.com", r.Email.Recipient)
		assert.Equal(t, "[HIGH] There was a problem with your payment", r.Email.Subject)
		assert.Equal(t, 10*time.Second, r.Email.Delay)
	})

	t.Run("failure reason defaults when empty", func(t *testing.T) {
		env := mustEnvelope(t, event.KindPaymentProcessed, event.PaymentPayload{
			OrderID:    orderID,
			Successful: false,
		}, "pay-2")

		r := alert.Render(env, testPolicy())
		assert.Equal(t, "unknown reason", r.Data["failure_reason"])
	})

	t.Run("successful payment is normal severity without subject prefix", func(t *testing.T) {
		env := mustEnvelope(t, event.KindPaymentProcessed, event.PaymentPayload{
			OrderID:       orderID,
			CustomerEmail: "buyer@example.com",
			AmountCents:   2500,
			Successful:    true,
		}, "pay-3")

		r := alert.Render(env, testPolicy())
		assert.Equal(t, notification.TypePaymentReceived, r.Type)
		assert.Equal(t, alert.SeverityNormal, r.Severity)
		assert.Equal(t, "Your payment was received", r.Email.Subject)
		assert.Equal(t, alert.QueueBulk, r.Email.QueueClass)
	})
}

func TestRenderOrder(t *testing.T) {
	orderID := uuid.New()
	env := mustEnvelope(t, event.KindNewOrder, event.OrderPayload{
		OrderID:       orderID,
		OrderNumber:   "ORD-42",
		CustomerEmail: "buyer@example.com",
		TotalCents:    10050,
		Currency:      "EUR",
		ItemCount:     3,
	}, "order-1")

	r := alert.Render(env, testPolicy())

	assert.Equal(t, notification.TypeNewOrder, r.Type)
	assert.Contains(t, r.Message, "ORD-42")
	assert.Contains(t, r.Message, "100.50 EUR")
	assert.Equal(t, "buyer@example.com", r.Email.Recipient)
	assert.Equal(t, "/admin/orders/"+orderID.String(), r.ActionRef)
}

func TestRenderActivity(t *testing.T) {
	userID := uuid.New()

	t.Run("suspicious activity becomes a security alert", func(t *testing.T) {
		env := mustEnvelope(t, event.KindUserActivity, event.ActivityPayload{
			UserID: userID,
			Action: "suspicious_activity",
			IP:     "203.0.113.9",
		}, "act-1")

		r := alert.Render(env, testPolicy())
		assert.Equal(t, notification.TypeSecurityAlert, r.Type)
		assert.Equal(t, alert.SeverityCritical, r.Severity)
		assert.Equal(t, "203.0.113.9", r.Data["ip"])
	})

	t.Run("other actions stay user activity", func(t *testing.T) {
		env := mustEnvelope(t, event.KindUserActivity, event.ActivityPayload{
			UserID: userID,
			Action: "bulk_export",
		}, "act-2")

		r := alert.Render(env, testPolicy())
		assert.Equal(t, notification.TypeUserActivity, r.Type)
		assert.Equal(t, alert.SeverityMedium, r.Severity)
	})
}

func TestRenderSystem(t *testing.T) {
	env := mustEnvelope(t, event.KindSystemAlert, event.SystemPayload{
		Level:     "error",
		Component: "billing",
		Message:   "db connection lost",
	}, "sys-1")

	r := alert.Render(env, testPolicy())

	assert.Equal(t, notification.TypeSystemError, r.Type)
	assert.Equal(t, alert.SeverityCritical, r.Severity)
	assert.Equal(t, "[CRITICAL] System error in billing", r.Email.Subject)
}

func TestRenderIsDeterministic(t *testing.T) {
	env := mustEnvelope(t, event.KindStockAlert, event.StockPayload{
		ProductID:    uuid.New(),
		ProductName:  "Widget",
		AlertType:    event.StockLow,
		CurrentStock: 2,
		Threshold:    5,
	}, "det-1")

	first := alert.Render(env, testPolicy())
	second := alert.Render(env, testPolicy())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("render output differs between calls (-first +second):\n%s", diff)
	}
}
