package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/storage/memstore"
)

// New registers its prometheus metrics on the global DefaultRegisterer, so
// only one New() call is exercised per test binary run here — a second call
// would panic on duplicate metric registration, same as in a real process
// that only wires the router once.
func TestNew_WiresRouterAndHandlesRequests(t *testing.T) {
	gw := memstore.New()
	app, err := New(gw, func() {}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { app.Queue.Stop() })

	healthReq := httptest.NewRequest(http.MethodGet, "/health", nil)
	healthRec := httptest.NewRecorder()
	app.Router.ServeHTTP(healthRec, healthReq)
	assert.Equal(t, http.StatusOK, healthRec.Code)

	recallReq := httptest.NewRequest(http.MethodGet, "/v1/recall?agentId=a1", nil)
	recallRec := httptest.NewRecorder()
	app.Router.ServeHTTP(recallRec, recallReq)
	assert.Equal(t, http.StatusUnauthorized, recallRec.Code)
}
