package consolidation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/memorytypes"
	"github.com/synapsehq/synapse/internal/storage/memstore"
)

func newTestConsolidator(t *testing.T, gw domain.StorageGateway, cfg ...domain.ConsolidationConfig) *Consolidator {
	t.Helper()
	embedSvc, err := embedding.NewService(embedding.NewMockEmbedder(), 100, zap.NewNop())
	require.NoError(t, err)
	semantic := memorytypes.NewSemanticMemory(gw, embedSvc, nil, zap.NewNop())
	return NewConsolidator(gw, embedSvc, semantic, time.Hour, zap.NewNop(), cfg...)
}

func TestConsolidate_PromotesOldEpisode(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	old := domain.Memory{
		ID: "ep1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeEpisodic,
		Content: "the deploy failed at 3am", Importance: 0.6,
		CreatedAt: time.Now().Add(-48 * time.Hour).UnixMilli(),
	}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &old))

	c := newTestConsolidator(t, gw)
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.EpisodesProcessed)
	assert.Equal(t, 1, result.SemanticPromoted)

	_, err = gw.GetByID(ctx, "u1", "ep1")
	assert.ErrorIs(t, err, domain.ErrMemoryNotFound)

	semantics, err := gw.GetByType(ctx, "u1", "a1", domain.MemoryTypeSemantic, domain.ByTypeFilter{})
	require.NoError(t, err)
	require.Len(t, semantics, 1)
	assert.Equal(t, "the deploy failed at 3am", semantics[0].Content)
	assert.InDelta(t, 0.7, semantics[0].Importance, 1e-9) // min(1, 0.6+0.1)
	assert.Equal(t, "ep1", semantics[0].Metadata["convertedFrom"])
	assert.Equal(t, "episodic", semantics[0].Metadata["originalType"])
	assert.NotEmpty(t, semantics[0].Metadata["conversionDate"])
	assert.Equal(t, "verbatim", semantics[0].Metadata["extractionMethod"])
}

func TestConsolidate_PreservesOriginalsWhenConfigured(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	old := domain.Memory{
		ID: "ep1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeEpisodic,
		Content: "the deploy failed at 3am", Importance: 0.6,
		CreatedAt: time.Now().Add(-48 * time.Hour).UnixMilli(),
	}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &old))

	c := newTestConsolidator(t, gw, domain.ConsolidationConfig{PreserveOriginals: true})
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SemanticPromoted)

	_, err = gw.GetByID(ctx, "u1", "ep1")
	assert.NoError(t, err) // original kept
}

func TestConsolidate_DoesNotPromoteFreshLowAccessEpisode(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	fresh := domain.Memory{
		ID: "ep1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeEpisodic,
		Content: "just happened", Importance: 0.6, CreatedAt: time.Now().UnixMilli(), AccessCount: 0,
	}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &fresh))

	c := newTestConsolidator(t, gw)
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)

	assert.Equal(t, 0, result.SemanticPromoted)
	_, err = gw.GetByID(ctx, "u1", "ep1")
	require.NoError(t, err)
}

func TestConsolidate_DoesNotPromoteBelowImportanceFloor(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	// Old enough and accessed enough to clear the age/access gate, but
	// importance sits below the 0.5 floor the spec adds on top of those.
	old := domain.Memory{
		ID: "ep1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeEpisodic,
		Content: "trivial aside", Importance: 0.2,
		CreatedAt: time.Now().Add(-48 * time.Hour).UnixMilli(), AccessCount: PromotionAccessFloor,
	}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &old))

	c := newTestConsolidator(t, gw)
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.SemanticPromoted)
}

func TestConsolidate_PromotesFrequentlyAccessedFreshEpisode(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	fresh := domain.Memory{
		ID: "ep1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeEpisodic,
		Content: "frequently recalled", Importance: 0.6, CreatedAt: time.Now().UnixMilli(), AccessCount: PromotionAccessFloor,
	}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &fresh))

	c := newTestConsolidator(t, gw)
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SemanticPromoted)
}

func TestConsolidate_MergesNearDuplicateSemantics(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	vec := []float64{1, 0, 0, 0}
	a := domain.Memory{
		ID: "sm1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeSemantic,
		Content: "user likes coffee", Importance: 0.5, AccessCount: 2, Keywords: []string{"coffee", "preference"},
		CreatedAt: time.Now().Add(-time.Hour).UnixMilli(), LastAccessedAt: time.Now().Add(-time.Hour).UnixMilli(),
		Embedding: vec,
	}
	b := domain.Memory{
		ID: "sm2", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeSemantic,
		Content: "user enjoys coffee", Importance: 0.9, AccessCount: 1, Keywords: []string{"coffee", "morning"},
		CreatedAt: time.Now().UnixMilli(), LastAccessedAt: time.Now().UnixMilli(),
		Embedding: vec,
	}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &a))
	require.NoError(t, gw.Store(ctx, "u1", "a1", &b))

	c := newTestConsolidator(t, gw)
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SemanticMerged)

	remaining, err := gw.GetByType(ctx, "u1", "a1", domain.MemoryTypeSemantic, domain.ByTypeFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	merged := remaining[0]
	assert.NotEqual(t, "sm1", merged.ID)
	assert.NotEqual(t, "sm2", merged.ID)
	assert.InDelta(t, 0.9, merged.Importance, 1e-9)
	assert.Equal(t, 3, merged.AccessCount)
	assert.Equal(t, a.CreatedAt, merged.CreatedAt)
	assert.Equal(t, b.LastAccessedAt, merged.LastAccessedAt)
	assert.ElementsMatch(t, []string{"coffee", "preference", "morning"}, merged.Keywords)
	assert.ElementsMatch(t, []string{"sm1", "sm2"}, merged.Metadata["mergedFrom"])

	_, err = gw.GetByID(ctx, "u1", "sm1")
	assert.ErrorIs(t, err, domain.ErrMemoryNotFound)
	_, err = gw.GetByID(ctx, "u1", "sm2")
	assert.ErrorIs(t, err, domain.ErrMemoryNotFound)
}

func TestConsolidate_MergePreservesOriginalsWhenConfigured(t *testing.T) {
	ctx := context.Background()
	gw := memstore.New()

	vec := []float64{1, 0, 0, 0}
	a := domain.Memory{ID: "sm1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeSemantic, Content: "user likes coffee", Importance: 0.5, Embedding: vec}
	b := domain.Memory{ID: "sm2", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeSemantic, Content: "user enjoys coffee", Importance: 0.9, Embedding: vec}
	require.NoError(t, gw.Store(ctx, "u1", "a1", &a))
	require.NoError(t, gw.Store(ctx, "u1", "a1", &b))

	c := newTestConsolidator(t, gw, domain.ConsolidationConfig{PreserveOriginals: true})
	result, err := c.Consolidate(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SemanticMerged)

	remaining, err := gw.GetByType(ctx, "u1", "a1", domain.MemoryTypeSemantic, domain.ByTypeFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 3) // both originals plus the new merged memory
}
