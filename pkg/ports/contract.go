package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAdapterContract runs a suite of tests to verify that an Adapter implementation
// adheres to the defined interface contract. The adapter is disconnected at the end.
func RunAdapterContract(t *testing.T, adapter Adapter) {
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)

	t.Run("Active", func(t *testing.T) {
		assert.True(t, adapter.Active(), "fresh adapter should be active")
	})

	t.Run("Metric Track and Values", func(t *testing.T) {
		require.NoError(t, adapter.MetricTrack(ctx, "signups", day, "visitor-1", 1))
		require.NoError(t, adapter.MetricTrack(ctx, "signups", day.Add(time.Hour), "visitor-2", 2))
		require.NoError(t, adapter.MetricTrack(ctx, "signups", day.AddDate(0, 0, 2), "", 5))

		values, err := adapter.MetricValues(ctx, "signups", day.AddDate(0, 0, -1), day.AddDate(0, 0, 2))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 3, 0, 5}, values)
	})

	t.Run("Metric Values Unknown", func(t *testing.T) {
		values, err := adapter.MetricValues(ctx, "never-tracked", day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0}, values)
	})

	t.Run("Metric Last Update", func(t *testing.T) {
		last, err := adapter.MetricLastUpdateAt(ctx, "signups")
		require.NoError(t, err)
		assert.False(t, last.IsZero(), "tracked metric should record last update")

		last, err = adapter.MetricLastUpdateAt(ctx, "never-tracked")
		require.NoError(t, err)
		assert.True(t, last.IsZero())
	})

	t.Run("Experiment Created At Is Set Once", func(t *testing.T) {
		at, err := adapter.ExperimentCreatedAt(ctx, "price_options")
		require.NoError(t, err)
		assert.True(t, at.IsZero())

		require.NoError(t, adapter.SetExperimentCreatedAt(ctx, "price_options", day))
		require.NoError(t, adapter.SetExperimentCreatedAt(ctx, "price_options", day.AddDate(1, 0, 0)))

		at, err = adapter.ExperimentCreatedAt(ctx, "price_options")
		require.NoError(t, err)
		assert.Equal(t, day.Unix(), at.Unix())
	})

	t.Run("Flush", func(t *testing.T) {
		require.NoError(t, adapter.Flush(ctx))

		values, err := adapter.MetricValues(ctx, "signups", day, day)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, values)

		at, err := adapter.ExperimentCreatedAt(ctx, "price_options")
		require.NoError(t, err)
		assert.True(t, at.IsZero())
	})

	t.Run("Disconnect", func(t *testing.T) {
		require.NoError(t, adapter.Disconnect())
		assert.False(t, adapter.Active())
		assert.NoError(t, adapter.Disconnect(), "second disconnect is a no-op")
	})
}
