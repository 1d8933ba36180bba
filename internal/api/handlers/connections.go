package handlers

import (
	"net/http"
	"strings"

	"github.com/synapsehq/synapse/internal/domain"
)

type ConnectionHandler struct {
	gw domain.StorageGateway
}

func NewConnectionHandler(gw domain.StorageGateway) *ConnectionHandler {
	return &ConnectionHandler{gw: gw}
}

// List returns the connection edges touching any of the given memory ids
// (comma-separated "ids" query parameter).
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		writeError(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}
	ids := strings.Split(idsParam, ",")

	lookup, ok := h.gw.MaybeConnectionLookup()
	if !ok {
		writeError(w, http.StatusNotImplemented, "storage gateway does not support connection lookup")
		return
	}

	edges, err := lookup.GetConnectionsForMemories(r.Context(), userID, ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}
	writeJSON(w, http.StatusOK, edges)
}
