package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyTitle = errors.New("notification title cannot be empty")

// Notification type strings; category and severity are folded into one value the
// admin UI filters on.
const (
	TypeNewOrder         = "new_order"
	TypePaymentReceived  = "payment_received"
	TypePaymentFailed    = "payment_failed"
	TypeInventoryLow     = "inventory_low"
	TypeInventoryOut     = "inventory_out"
	TypeInventoryRestock = "inventory_restock"
	TypeInventoryAlert   = "inventory_alert"
	TypeUserActivity     = "user_activity"
	TypeSecurityAlert    = "security_alert"
	TypeSystemError      = "system_error"
	TypeDeliveryFailed   = "email_delivery_failed"
)

// IsInventoryType reports whether a type belongs to the stock-alert family,
// which carries its own email opt-out flag.
func IsInventoryType(typ string) bool {
	switch typ {
	case TypeInventoryLow, TypeInventoryOut, TypeInventoryRestock, TypeInventoryAlert:
		return true
	}
	return false
}

// Notification is an administrator-facing alert record. It is append-only: after
// creation the pipeline never touches it again; only mark-read mutates it.
type Notification struct {
	id            uuid.UUID
	title         string
	message       string
	typ           string
	data          map[string]string
	actionRef     string
	correlationID string
	createdAt     time.Time
	readAt        *time.Time
}

func New(title, message, typ string, data map[string]string, actionRef, correlationID string, now time.Time) (*Notification, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if data == nil {
		data = map[string]string{}
	}
	return &Notification{
		id:            uuid.New(),
		title:         title,
		message:       message,
		typ:           typ,
		data:          data,
		actionRef:     actionRef,
		correlationID: correlationID,
		createdAt:     now,
	}, nil
}

func Reconstruct(
	id uuid.UUID,
	title, message, typ string,
	data map[string]string,
	actionRef, correlationID string,
	createdAt time.Time,
	readAt *time.Time,
) *Notification {
	return &Notification{
		id:            id,
		title:         title,
		message:       message,
		typ:           typ,
		data:          data,
		actionRef:     actionRef,
		correlationID: correlationID,
		createdAt:     createdAt,
		readAt:        readAt,
	}
}

func (n *Notification) IsRead() bool { return n.readAt != nil }

func (n *Notification) ID() uuid.UUID         { return n.id }
func (n *Notification) Title() string         { return n.title }
func (n *Notification) Message() string       { return n.message }
func (n *Notification) Type() string          { return n.typ }
func (n *Notification) Data() map[string]string {
	return n.data
}
func (n *Notification) ActionRef() string     { return n.actionRef }
func (n *Notification) CorrelationID() string { return n.correlationID }
func (n *Notification) CreatedAt() time.Time  { return n.createdAt }
func (n *Notification) ReadAt() *time.Time    { return n.readAt }
