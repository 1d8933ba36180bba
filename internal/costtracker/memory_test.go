package costtracker

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTracker_CheckBudget_WithinLimit(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	ok, err := tr.CheckBudget(ctx, "agent1", 10.0)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tr.TrackExtraction(ctx, "agent1", 9.0))

	ok, err = tr.CheckBudget(ctx, "agent1", 10.0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryTracker_CheckBudget_ExceedsLimit(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	require.NoError(t, tr.TrackExtraction(ctx, "agent1", 10.0))

	ok, err := tr.CheckBudget(ctx, "agent1", 10.0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTracker_CheckBudget_InfiniteDisablesCheck(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()
	require.NoError(t, tr.TrackExtraction(ctx, "agent1", 1_000_000))

	ok, err := tr.CheckBudget(ctx, "agent1", math.Inf(1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryTracker_CurrentSpend_AccumulatesPerAgent(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker()

	require.NoError(t, tr.TrackExtraction(ctx, "agent1", 1.5))
	require.NoError(t, tr.TrackExtraction(ctx, "agent1", 2.5))
	require.NoError(t, tr.TrackExtraction(ctx, "agent2", 100))

	spend, err := tr.CurrentSpend(ctx, "agent1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, spend)

	other, err := tr.CurrentSpend(ctx, "agent2")
	require.NoError(t, err)
	assert.Equal(t, 100.0, other)
}
