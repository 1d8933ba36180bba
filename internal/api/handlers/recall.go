package handlers

import (
	"net/http"
	"strconv"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/recall"
)

type RecallHandler struct {
	svc *recall.Service
}

func NewRecallHandler(svc *recall.Service) *RecallHandler {
	return &RecallHandler{svc: svc}
}

func (h *RecallHandler) Recall(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	agentID := q.Get("agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agentId query parameter is required")
		return
	}

	query := recall.Query{
		UserID:  userID,
		AgentID: agentID,
		Text:    q.Get("q"),
	}
	if v := q.Get("type"); v != "" {
		t := domain.MemoryType(v)
		query.Type = &t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.Limit = n
		}
	}

	results, err := h.svc.Recall(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "recall failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
