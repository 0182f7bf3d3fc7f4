//go:build unit

package alert_test

import (
	"testing"
	"time"

	"admin-alerts/internal/domain/alert"
	"admin-alerts/internal/domain/notification"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		typ      string
		expected alert.Severity
	}{
		{notification.TypeInventoryOut, alert.SeverityCritical},
		{notification.TypeSecurityAlert, alert.SeverityCritical},
		{notification.TypeSystemError, alert.SeverityCritical},
		{notification.TypePaymentFailed, alert.SeverityHigh},
		{notification.TypeDeliveryFailed, alert.SeverityHigh},
		{notification.TypeInventoryLow, alert.SeverityMedium},
		{notification.TypeInventoryAlert, alert.SeverityMedium},
		{notification.TypeUserActivity, alert.SeverityMedium},
		{notification.TypeInventoryRestock, alert.SeverityLow},
		{notification.TypeNewOrder, alert.SeverityNormal},
		{notification.TypePaymentReceived, alert.SeverityNormal},
		{"something_unmapped", alert.SeverityNormal},
	}
	for _, tc := range cases {
		t.Run(tc.typ, func(t *testing.T) {
			assert.Equal(t, tc.expected, alert.SeverityFor(tc.typ))
		})
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.Greater(t, alert.SeverityCritical.Rank(), alert.SeverityHigh.Rank())
	assert.Greater(t, alert.SeverityHigh.Rank(), alert.SeverityMedium.Rank())
	assert.Greater(t, alert.SeverityMedium.Rank(), alert.SeverityLow.Rank())
	assert.Greater(t, alert.SeverityLow.Rank(), alert.SeverityNormal.Rank())
}

func TestDelaysFor(t *testing.T) {
	d := alert.Delays{High: 10 * time.Second, Medium: 45 * time.Second, Low: 3 * time.Minute}

	assert.Equal(t, time.Duration(0), d.For(alert.SeverityCritical))
	assert.Equal(t, 10*time.Second, d.For(alert.SeverityHigh))
	assert.Equal(t, 45*time.Second, d.For(alert.SeverityMedium))
	assert.Equal(t, 3*time.Minute, d.For(alert.SeverityLow))
	assert.Equal(t, 3*time.Minute, d.For(alert.SeverityNormal))
}

func TestClassFor(t *testing.T) {
	assert.Equal(t, alert.QueueCritical, alert.ClassFor(alert.SeverityCritical))
	assert.Equal(t, alert.QueueHigh, alert.ClassFor(alert.SeverityHigh))
	assert.Equal(t, alert.QueueDefault, alert.ClassFor(alert.SeverityMedium))
	assert.Equal(t, alert.QueueBulk, alert.ClassFor(alert.SeverityLow))
	assert.Equal(t, alert.QueueBulk, alert.ClassFor(alert.SeverityNormal))
}
