package alert

import (
	"time"

	"admin-alerts/internal/domain/notification"
)

// Severity orders alerts for queueing and delay scheduling. Higher rank means
// more urgent.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "normal"
	}
}

func (s Severity) Rank() int { return int(s) }

// QueueClass buckets email jobs so urgent alerts never wait behind bulk mail.
type QueueClass string

const (
	QueueCritical QueueClass = "critical"
	QueueHigh     QueueClass = "high"
	QueueDefault  QueueClass = "default"
	QueueBulk     QueueClass = "bulk"
)

func ClassFor(s Severity) QueueClass {
	switch s {
	case SeverityCritical:
		return QueueCritical
	case SeverityHigh:
		return QueueHigh
	case SeverityMedium:
		return QueueDefault
	default:
		return QueueBulk
	}
}

var severityByType = map[string]Severity{
	notification.TypeInventoryOut:     SeverityCritical,
	notification.TypeSecurityAlert:    SeverityCritical,
	notification.TypeSystemError:      SeverityCritical,
	notification.TypePaymentFailed:    SeverityHigh,
	notification.TypeDeliveryFailed:   SeverityHigh,
	notification.TypeInventoryLow:     SeverityMedium,
	notification.TypeInventoryAlert:   SeverityMedium,
	notification.TypeUserActivity:     SeverityMedium,
	notification.TypeInventoryRestock: SeverityLow,
	notification.TypeNewOrder:         SeverityNormal,
	notification.TypePaymentReceived:  SeverityNormal,
}

// SeverityFor maps a notification type to its severity. Unknown types fall back
// to normal so rendering stays total.
func SeverityFor(typ string) Severity {
	if s, ok := severityByType[typ]; ok {
		return s
	}
	return SeverityNormal
}

// Delays is the severity-to-dispatch-delay table. Critical alerts always go out
// immediately; the lower tiers absorb transient duplicate bursts before the dedup
// gate prunes them.
type Delays struct {
	High   time.Duration
	Medium time.Duration
	Low    time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		High:   10 * time.Second,
		Medium: 45 * time.Second,
		Low:    3 * time.Minute,
	}
}

func (d Delays) For(s Severity) time.Duration {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return d.High
	case SeverityMedium:
		return d.Medium
	default:
		return d.Low
	}
}
