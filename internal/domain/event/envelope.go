package event

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownKind          = errors.New("unknown event kind")
	ErrMissingCorrelationID = errors.New("missing correlation id")
	ErrMissingPayload       = errors.New("missing event payload")
)

// Kind identifies the domain occurrence an envelope describes.
type Kind string

const (
	KindNewOrder         Kind = "new_order"
	KindPaymentProcessed Kind = "payment_processed"
	KindStockAlert       Kind = "stock_alert"
	KindUserActivity     Kind = "user_activity"
	KindSystemAlert      Kind = "system_alert"
)

func (k Kind) Known() bool {
	switch k {
	case KindNewOrder, KindPaymentProcessed, KindStockAlert, KindUserActivity, KindSystemAlert:
		return true
	}
	return false
}

type StockAlertType string

const (
	StockLow       StockAlertType = "LOW_STOCK"
	StockOut       StockAlertType = "OUT_OF_STOCK"
	StockRestocked StockAlertType = "RESTOCKED"
)

// Payload is the kind-specific half of an envelope.
type Payload interface {
	isPayload()
}

type OrderPayload struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	ItemCount     int       `json:"item_count"`
}

type PaymentPayload struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	CustomerEmail string    `json:"customer_email"`
	AmountCents   int64     `json:"amount_cents"`
	Method        string    `json:"method"`
	Successful    bool      `json:"successful"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

type StockPayload struct {
	ProductID    uuid.UUID      `json:"product_id"`
	ProductName  string         `json:"product_name"`
	AlertType    StockAlertType `json:"alert_type"`
	CurrentStock int            `json:"current_stock"`
	Threshold    int            `json:"threshold"`
}

type ActivityPayload struct {
	UserID  uuid.UUID         `json:"user_id"`
	Action  string            `json:"action"`
	IP      string            `json:"ip,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type SystemPayload struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

func (OrderPayload) isPayload()    {}
func (PaymentPayload) isPayload()  {}
func (StockPayload) isPayload()    {}
func (ActivityPayload) isPayload() {}
func (SystemPayload) isPayload()   {}

// Envelope is the immutable record carrying a domain occurrence into the pipeline.
// The correlation id doubles as the idempotency key for notification writes, so a
// redelivered envelope never produces a second notification.
type Envelope struct {
	kind          Kind
	occurredAt    time.Time
	correlationID string
	payload       Payload
}

func New(kind Kind, payload Payload, occurredAt time.Time, correlationID string) (*Envelope, error) {
	if correlationID == "" {
		return nil, ErrMissingCorrelationID
	}
	if payload == nil {
		return nil, ErrMissingPayload
	}
	return &Envelope{
		kind:          kind,
		occurredAt:    occurredAt,
		correlationID: correlationID,
		payload:       payload,
	}, nil
}

func (e *Envelope) Kind() Kind            { return e.kind }
func (e *Envelope) OccurredAt() time.Time { return e.occurredAt }
func (e *Envelope) CorrelationID() string { return e.correlationID }
func (e *Envelope) Payload() Payload      { return e.payload }

type wireEnvelope struct {
	Kind          Kind            `json:"kind"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

func (e *Envelope) Encode() ([]byte, error) {
	raw, err := json.Marshal(e.payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{
		Kind:          e.kind,
		OccurredAt:    e.occurredAt,
		CorrelationID: e.correlationID,
		Payload:       raw,
	})
}

// Decode parses a wire envelope, selecting the payload type by kind.
func Decode(data []byte) (*Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	var payload Payload
	switch w.Kind {
	case KindNewOrder:
		p := OrderPayload{}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, err
		}
		payload = p
	case KindPaymentProcessed:
		p := PaymentPayload{}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, err
		}
		payload = p
	case KindStockAlert:
		p := StockPayload{}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, err
		}
		payload = p
	case KindUserActivity:
		p := ActivityPayload{}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, err
		}
		payload = p
	case KindSystemAlert:
		p := SystemPayload{}
		if err := json.Unmarshal(w.Payload, &p); err != nil {
			return nil, err
		}
		payload = p
	default:
		return nil, ErrUnknownKind
	}

	return New(w.Kind, payload, w.OccurredAt, w.CorrelationID)
}
