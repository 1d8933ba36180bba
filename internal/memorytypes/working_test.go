package memorytypes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/storage/memstore"
)

func newTestEmbedService(t *testing.T) *embedding.Service {
	svc, err := embedding.NewService(embedding.NewMockEmbedder(), 100, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestWorkingMemory_Store_DefaultsImportanceAndEmbeds(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()
	wm := NewWorkingMemory(gw, newTestEmbedService(t), nil, zap.NewNop())

	m, err := wm.Store(ctx, "user1", "agent1", "remember to buy milk", StoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.MemoryTypeWorking.DefaultImportance(), m.Importance)
	assert.NotNil(t, m.Embedding)
	assert.Equal(t, "working", m.Metadata["memoryType"])

	fetched, err := wm.Get(ctx, "user1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Content, fetched.Content)
}

func TestWorkingMemory_Store_RequiresUserAndAgent(t *testing.T) {
	ctx := context.Background()
	wm := NewWorkingMemory(memstore.New(), newTestEmbedService(t), nil, zap.NewNop())

	_, err := wm.Store(ctx, "", "agent1", "content", StoreOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = wm.Store(ctx, "user1", "", "content", StoreOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidAgent)

	_, err = wm.Store(ctx, "user1", "agent1", "", StoreOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWorkingMemory_Store_HonorsExplicitImportance(t *testing.T) {
	ctx := context.Background()
	wm := NewWorkingMemory(memstore.New(), newTestEmbedService(t), nil, zap.NewNop())

	m, err := wm.Store(ctx, "user1", "agent1", "content", StoreOptions{Importance: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.3, m.Importance)
}

func TestWorkingMemory_Delete(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()
	wm := NewWorkingMemory(gw, newTestEmbedService(t), nil, zap.NewNop())

	m, err := wm.Store(ctx, "user1", "agent1", "content", StoreOptions{})
	require.NoError(t, err)

	require.NoError(t, wm.Delete(ctx, "user1", "agent1", m.ID))

	_, err = wm.Get(ctx, "user1", m.ID)
	assert.Error(t, err)
}

func TestWorkingMemory_List(t *testing.T) {
	ctx := context.Background()
	wm := NewWorkingMemory(memstore.New(), newTestEmbedService(t), nil, zap.NewNop())

	_, err := wm.Store(ctx, "user1", "agent1", "first", StoreOptions{})
	require.NoError(t, err)
	_, err = wm.Store(ctx, "user1", "agent1", "second", StoreOptions{})
	require.NoError(t, err)

	list, err := wm.List(ctx, "user1", "agent1", domain.ByTypeFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProceduralMemory_RecordOutcome(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()
	pm := NewProceduralMemory(gw, newTestEmbedService(t), nil, zap.NewNop())

	m, err := pm.Store(ctx, "user1", "agent1", "when asked for status, summarize open tasks", StoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Metadata["useCount"])

	require.NoError(t, pm.RecordOutcome(ctx, "user1", m.ID, true))
	require.NoError(t, pm.RecordOutcome(ctx, "user1", m.ID, false))

	updated, err := pm.Get(ctx, "user1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Metadata["useCount"])
	assert.Equal(t, 1, updated.Metadata["successCount"])
}
