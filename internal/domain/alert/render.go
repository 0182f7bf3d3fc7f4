package alert

import (
	"fmt"
	"strconv"
	"time"

	"admin-alerts/internal/domain/event"
	"admin-alerts/internal/domain/notification"
)

// Policy carries the configuration the renderer needs; it is built once from
// PipelineConfig so rendering stays a pure function of (envelope, policy).
type Policy struct {
	AdminRecipient string
	Delays         Delays
}

// EmailDoc describes the outbound email derived from an event. Delay is the
// severity-based offset applied to the dispatch time.
type EmailDoc struct {
	Recipient     string
	Subject       string
	ContentFields map[string]string
	Actions       []string
	Severity      Severity
	QueueClass    QueueClass
	Delay         time.Duration
}

// Rendered bundles the notification fields and the email document produced from
// one envelope.
type Rendered struct {
	Title     string
	Message   string
	Type      string
	Data      map[string]string
	ActionRef string
	Severity  Severity
	Email     EmailDoc
}

// Render maps an envelope to its notification and email form. It is total: every
// kind and sub-kind has a default branch, so it never fails on unexpected input.
func Render(env *event.Envelope, pol Policy) Rendered {
	var r Rendered
	switch p := env.Payload().(type) {
	case event.OrderPayload:
		r = renderOrder(p)
	case event.PaymentPayload:
		r = renderPayment(p)
	case event.StockPayload:
		r = renderStock(p)
	case event.ActivityPayload:
		r = renderActivity(p)
	case event.SystemPayload:
		r = renderSystem(p)
	default:
		r = Rendered{
			Title:   "System alert",
			Message: fmt.Sprintf("Unrecognized event %q received", env.Kind()),
			Type:    notification.TypeSystemError,
			Data:    map[string]string{},
		}
	}

	if r.Data == nil {
		r.Data = map[string]string{}
	}
	r.Data["correlation_id"] = env.CorrelationID()
	r.Severity = SeverityFor(r.Type)

	if r.Email.Recipient == "" {
		r.Email.Recipient = pol.AdminRecipient
	}
	r.Email.Severity = r.Severity
	r.Email.QueueClass = ClassFor(r.Severity)
	r.Email.Delay = pol.Delays.For(r.Severity)
	r.Email.Subject = subjectPrefix(r.Severity) + r.Email.Subject
	if r.Email.ContentFields == nil {
		r.Email.ContentFields = map[string]string{}
	}

	return r
}

func subjectPrefix(s Severity) string {
	switch s {
	case SeverityCritical:
		return "[CRITICAL] "
	case SeverityHigh:
		return "[HIGH] "
	default:
		return ""
	}
}

func renderOrder(p event.OrderPayload) Rendered {
	return Rendered{
		Title:     "New order received",
		Message:   fmt.Sprintf("Order %s placed: %d item(s), %s", p.OrderNumber, p.ItemCount, formatAmount(p.TotalCents, p.Currency)),
		Type:      notification.TypeNewOrder,
		ActionRef: "/admin/orders/" + p.OrderID.String(),
		Data: map[string]string{
			"order_id":     p.OrderID.String(),
			"order_number": p.OrderNumber,
			"total":        formatAmount(p.TotalCents, p.Currency),
		},
		Email: EmailDoc{
			Recipient: p.CustomerEmail,
			Subject:   fmt.Sprintf("Order %s confirmed", p.OrderNumber),
			ContentFields: map[string]string{
				"order_number": p.OrderNumber,
				"items":        strconv.Itoa(p.ItemCount),
				"total":        formatAmount(p.TotalCents, p.Currency),
			},
			Actions: []string{"Review the order in the admin panel"},
		},
	}
}

func renderPayment(p event.PaymentPayload) Rendered {
	if p.Successful {
		return Rendered{
			Title:     "Payment received",
			Message:   fmt.Sprintf("Payment of %s confirmed for order %s", formatAmount(p.AmountCents, ""), p.OrderID),
			Type:      notification.TypePaymentReceived,
			ActionRef: "/admin/orders/" + p.OrderID.String(),
			Data: map[string]string{
				"order_id":   p.OrderID.String(),
				"payment_id": p.PaymentID.String(),
				"method":     p.Method,
			},
			Email: EmailDoc{
				Recipient: p.CustomerEmail,
				Subject:   "Your payment was received",
				ContentFields: map[string]string{
					"amount": formatAmount(p.AmountCents, ""),
					"method": p.Method,
				},
			},
		}
	}

	reason := p.FailureReason
	if reason == "" {
		reason = "unknown reason"
	}
	return Rendered{
		Title:     "Payment failed",
		Message:   fmt.Sprintf("Payment for order %s failed: %s", p.OrderID, reason),
		Type:      notification.TypePaymentFailed,
		ActionRef: "/admin/orders/" + p.OrderID.String(),
		Data: map[string]string{
			"order_id":       p.OrderID.String(),
			"payment_id":     p.PaymentID.String(),
			"failure_reason": reason,
		},
		Email: EmailDoc{
			Recipient: p.CustomerEmail,
			Subject:   "There was a problem with your payment",
			ContentFields: map[string]string{
				"failure_reason": reason,
			},
			Actions: []string{"Retry the payment", "Contact support if the problem persists"},
		},
	}
}

func renderStock(p event.StockPayload) Rendered {
	data := map[string]string{
		"product_id":    p.ProductID.String(),
		"product_name":  p.ProductName,
		"current_stock": strconv.Itoa(p.CurrentStock),
		"threshold":     strconv.Itoa(p.Threshold),
	}
	actionRef := "/admin/products/" + p.ProductID.String()

	switch p.AlertType {
	case event.StockOut:
		return Rendered{
			Title:     "Product out of stock",
			Message:   fmt.Sprintf("%q is out of stock and was removed from sale", p.ProductName),
			Type:      notification.TypeInventoryOut,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: fmt.Sprintf("Out of stock: %s", p.ProductName),
				ContentFields: map[string]string{
					"product": p.ProductName,
					"stock":   strconv.Itoa(p.CurrentStock),
				},
				Actions: []string{"Restock the product", "Check pending orders for affected items"},
			},
		}
	case event.StockLow:
		return Rendered{
			Title:     "Low stock warning",
			Message:   fmt.Sprintf("%q is down to %d unit(s) (threshold %d)", p.ProductName, p.CurrentStock, p.Threshold),
			Type:      notification.TypeInventoryLow,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: fmt.Sprintf("Low stock: %s", p.ProductName),
				ContentFields: map[string]string{
					"product":   p.ProductName,
					"stock":     strconv.Itoa(p.CurrentStock),
					"threshold": strconv.Itoa(p.Threshold),
				},
				Actions: []string{"Plan a restock before the product sells out"},
			},
		}
	case event.StockRestocked:
		return Rendered{
			Title:     "Product restocked",
			Message:   fmt.Sprintf("%q is back in stock with %d unit(s)", p.ProductName, p.CurrentStock),
			Type:      notification.TypeInventoryRestock,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: fmt.Sprintf("Restocked: %s", p.ProductName),
				ContentFields: map[string]string{
					"product": p.ProductName,
					"stock":   strconv.Itoa(p.CurrentStock),
				},
			},
		}
	default:
		return Rendered{
			Title:     "Inventory alert",
			Message:   fmt.Sprintf("Inventory alert for %q (stock %d)", p.ProductName, p.CurrentStock),
			Type:      notification.TypeInventoryAlert,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: fmt.Sprintf("Inventory alert: %s", p.ProductName),
				ContentFields: map[string]string{
					"product": p.ProductName,
					"stock":   strconv.Itoa(p.CurrentStock),
				},
			},
		}
	}
}

func renderActivity(p event.ActivityPayload) Rendered {
	data := map[string]string{
		"user_id": p.UserID.String(),
		"action":  p.Action,
	}
	if p.IP != "" {
		data["ip"] = p.IP
	}
	actionRef := "/admin/users/" + p.UserID.String()

	switch p.Action {
	case "suspicious_activity":
		return Rendered{
			Title:     "Suspicious activity detected",
			Message:   fmt.Sprintf("Suspicious activity detected for user %s", p.UserID),
			Type:      notification.TypeSecurityAlert,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: "Suspicious user activity",
				ContentFields: map[string]string{
					"user_id": p.UserID.String(),
					"ip":      p.IP,
				},
				Actions: []string{"Review the user's recent sessions", "Lock the account if confirmed"},
			},
		}
	case "multiple_sessions":
		return Rendered{
			Title:     "Multiple concurrent sessions",
			Message:   fmt.Sprintf("User %s has multiple concurrent sessions", p.UserID),
			Type:      notification.TypeUserActivity,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: "Multiple concurrent sessions",
				ContentFields: map[string]string{
					"user_id": p.UserID.String(),
				},
			},
		}
	default:
		return Rendered{
			Title:     "User activity alert",
			Message:   fmt.Sprintf("Activity %q reported for user %s", p.Action, p.UserID),
			Type:      notification.TypeUserActivity,
			ActionRef: actionRef,
			Data:      data,
			Email: EmailDoc{
				Subject: "User activity alert",
				ContentFields: map[string]string{
					"user_id": p.UserID.String(),
					"action":  p.Action,
				},
			},
		}
	}
}

func renderSystem(p event.SystemPayload) Rendered {
	return Rendered{
		Title:   "System error",
		Message: fmt.Sprintf("[%s] %s: %s", p.Level, p.Component, p.Message),
		Type:    notification.TypeSystemError,
		Data: map[string]string{
			"level":     p.Level,
			"component": p.Component,
		},
		Email: EmailDoc{
			Subject: fmt.Sprintf("System error in %s", p.Component),
			ContentFields: map[string]string{
				"level":     p.Level,
				"component": p.Component,
				"message":   p.Message,
			},
			Actions: []string{"Check service logs for the failing component"},
		},
	}
}

func formatAmount(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
