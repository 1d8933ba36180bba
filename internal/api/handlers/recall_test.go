package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apimw "github.com/synapsehq/synapse/internal/api/middleware"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/recall"
	"github.com/synapsehq/synapse/internal/storage/memstore"
)

func newRecallTestRouter(t *testing.T) (chi.Router, domain.StorageGateway) {
	t.Helper()
	gw := memstore.New()
	embedSvc, err := embedding.NewService(embedding.NewMockEmbedder(), 100, zap.NewNop())
	require.NoError(t, err)
	svc := recall.NewService(gw, embedSvc, domain.RecallConfig{DefaultLimit: 10, MinRelevanceThreshold: 0}, recall.DefaultWeights, nil, zap.NewNop())
	h := NewRecallHandler(svc)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Use(apimw.APIKeyAuth(func(key string) (string, bool) {
			if key == "valid-key" {
				return "u1", true
			}
			return "", false
		}))
		r.Get("/recall", h.Recall)
	})
	return r, gw
}

func TestRecallHandler_RequiresAgentID(t *testing.T) {
	r, _ := newRecallTestRouter(t)
	req := authedRequest(http.MethodGet, "/v1/recall?q=hello", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecallHandler_ReturnsResults(t *testing.T) {
	r, gw := newRecallTestRouter(t)

	m := domain.Memory{ID: "m1", UserID: "u1", AgentID: "a1", Type: domain.MemoryTypeSemantic, Content: "the sky is blue"}
	require.NoError(t, gw.Store(context.Background(), "u1", "a1", &m))

	req := authedRequest(http.MethodGet, "/v1/recall?agentId=a1&q=sky", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []recall.ScoredMemory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "m1", results[0].Memory.ID)
}
