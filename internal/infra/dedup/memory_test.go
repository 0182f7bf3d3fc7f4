//go:build unit

package dedup_test

import (
	"context"
	"testing"
	"time"

	"admin-alerts/internal/infra/dedup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGate(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	t.Run("unknown key passes", func(t *testing.T) {
		g := dedup.NewMemoryGate(window)
		suppressed, err := g.ShouldSuppress(ctx, "stock_alert:OUT_OF_STOCK:p1", base)
		require.NoError(t, err)
		assert.False(t, suppressed)
	})

	t.Run("repeat within window is suppressed", func(t *testing.T) {
		g := dedup.NewMemoryGate(window)
		require.NoError(t, g.Record(ctx, "k", base))

		suppressed, err := g.ShouldSuppress(ctx, "k", base.Add(29*time.Minute))
		require.NoError(t, err)
		assert.True(t, suppressed)
	})

	t.Run("repeat after window passes", func(t *testing.T) {
		g := dedup.NewMemoryGate(window)
		require.NoError(t, g.Record(ctx, "k", base))

		suppressed, err := g.ShouldSuppress(ctx, "k", base.Add(window))
		require.NoError(t, err)
		assert.False(t, suppressed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		g := dedup.NewMemoryGate(window)
		require.NoError(t, g.Record(ctx, "a", base))

		suppressed, err := g.ShouldSuppress(ctx, "b", base.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, suppressed)
	})

	t.Run("re-record extends the window", func(t *testing.T) {
		g := dedup.NewMemoryGate(window)
		require.NoError(t, g.Record(ctx, "k", base))
		require.NoError(t, g.Record(ctx, "k", base.Add(20*time.Minute)))

		suppressed, err := g.ShouldSuppress(ctx, "k", base.Add(45*time.Minute))
		require.NoError(t, err)
		assert.True(t, suppressed)
	})
}
