package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apimw "github.com/synapsehq/synapse/internal/api/middleware"
	"github.com/synapsehq/synapse/internal/consolidation"
	"github.com/synapsehq/synapse/internal/costtracker"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/memorytypes"
	"github.com/synapsehq/synapse/internal/storage/memstore"
	"github.com/synapsehq/synapse/internal/temporal"
)

func newCognitiveTestRouter(t *testing.T) (chi.Router, domain.StorageGateway) {
	t.Helper()
	gw := memstore.New()
	embedSvc, err := embedding.NewService(embedding.NewMockEmbedder(), 100, zap.NewNop())
	require.NoError(t, err)
	semantic := memorytypes.NewSemanticMemory(gw, embedSvc, nil, zap.NewNop())
	consolidator := consolidation.NewConsolidator(gw, embedSvc, semantic, time.Hour, zap.NewNop())
	analyzer := temporal.NewAnalyzer(nil, costtracker.NewMemoryTracker(), zap.NewNop())
	h := NewCognitiveHandler(consolidator, analyzer, gw, domain.LLMEnhancementConfig{})

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Use(apimw.APIKeyAuth(func(key string) (string, bool) {
			if key == "valid-key" {
				return "u1", true
			}
			return "", false
		}))
		r.Route("/cognitive", func(r chi.Router) {
			r.Post("/consolidate", h.TriggerConsolidation)
			r.Post("/decay", h.TriggerDecay)
			r.Post("/temporal-patterns", h.TemporalPatterns)
			r.Post("/activity-clusters", h.ActivityClusters)
		})
	})
	return r, gw
}

func postJSON(r chi.Router, path string, v any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(v)
	req := authedRequest(http.MethodPost, path, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCognitiveHandler_TriggerConsolidation_RequiresAgentID(t *testing.T) {
	r, _ := newCognitiveTestRouter(t)
	rec := postJSON(r, "/v1/cognitive/consolidate", agentScopedRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCognitiveHandler_TriggerConsolidation_RunsOnePass(t *testing.T) {
	r, _ := newCognitiveTestRouter(t)
	rec := postJSON(r, "/v1/cognitive/consolidate", agentScopedRequest{AgentID: "a1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result consolidation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.EpisodesProcessed)
}

func TestCognitiveHandler_TriggerDecay_UsesDefaultRate(t *testing.T) {
	r, _ := newCognitiveTestRouter(t)
	rec := postJSON(r, "/v1/cognitive/decay", decayRequest{AgentID: "a1"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCognitiveHandler_TemporalPatterns_ReturnsEmptyForFewSamples(t *testing.T) {
	r, _ := newCognitiveTestRouter(t)
	rec := postJSON(r, "/v1/cognitive/temporal-patterns", temporalPatternsRequest{AgentID: "a1", TimestampsMillis: []int64{1, 2}})
	require.Equal(t, http.StatusOK, rec.Code)

	var patterns []temporal.Pattern
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patterns))
	assert.Empty(t, patterns)
}

func TestCognitiveHandler_ActivityClusters_GroupsDenseWindow(t *testing.T) {
	r, _ := newCognitiveTestRouter(t)
	base := time.Now().Add(-time.Hour)
	rec := postJSON(r, "/v1/cognitive/activity-clusters", activityClustersRequest{
		AgentID: "a1",
		Samples: []temporal.Sample{
			{Millis: base.UnixMilli(), Keywords: []string{"deploy"}},
			{Millis: base.Add(5 * time.Minute).UnixMilli(), Keywords: []string{"deploy", "rollback"}},
			{Millis: base.Add(10 * time.Minute).UnixMilli(), Keywords: []string{"incident"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var clusters []temporal.ActivityCluster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clusters))
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].Count)
}

func TestCognitiveHandler_Unauthenticated(t *testing.T) {
	r, _ := newCognitiveTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/cognitive/consolidate", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
