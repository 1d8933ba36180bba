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

	apimw "github.com/synapsehq/synapse/internal/api/middleware"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/storage/memstore"
)

func newConnectionsTestRouter(t *testing.T) (chi.Router, domain.StorageGateway) {
	t.Helper()
	gw := memstore.New()
	h := NewConnectionHandler(gw)

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Use(apimw.APIKeyAuth(func(key string) (string, bool) {
			if key == "valid-key" {
				return "u1", true
			}
			return "", false
		}))
		r.Get("/connections", h.List)
	})
	return r, gw
}

func TestConnectionHandler_RequiresIDs(t *testing.T) {
	r, _ := newConnectionsTestRouter(t)
	req := authedRequest(http.MethodGet, "/v1/connections", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectionHandler_ListsEdgesTouchingGivenIDs(t *testing.T) {
	r, gw := newConnectionsTestRouter(t)

	require.NoError(t, gw.CreateConnections(context.Background(), "u1", []domain.MemoryConnection{
		{ID: "c1", UserID: "u1", SourceMemoryID: "m1", TargetMemoryID: "m2", ConnectionType: domain.ConnectionRelated, Strength: 0.8},
	}))

	req := authedRequest(http.MethodGet, "/v1/connections?ids=m1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var edges []domain.MemoryConnection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edges))
	require.Len(t, edges, 1)
	assert.Equal(t, "c1", edges[0].ID)
}
