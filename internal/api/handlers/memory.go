package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/memorytypes"
)

// memoryFacade is satisfied by all four memorytypes façades.
type memoryFacade interface {
	Store(ctx context.Context, userID, agentID, content string, opts memorytypes.StoreOptions) (*domain.Memory, error)
	Get(ctx context.Context, userID, id string) (*domain.Memory, error)
	Delete(ctx context.Context, userID, agentID, id string) error
	List(ctx context.Context, userID, agentID string, opts domain.ByTypeFilter) ([]domain.Memory, error)
}

type MemoryHandler struct {
	facades    map[domain.MemoryType]memoryFacade
	procedural *memorytypes.ProceduralMemory
	gw         domain.StorageGateway
}

func NewMemoryHandler(working *memorytypes.WorkingMemory, episodic *memorytypes.EpisodicMemory, semantic *memorytypes.SemanticMemory, procedural *memorytypes.ProceduralMemory, gw domain.StorageGateway) *MemoryHandler {
	return &MemoryHandler{
		facades: map[domain.MemoryType]memoryFacade{
			domain.MemoryTypeWorking:    working,
			domain.MemoryTypeEpisodic:   episodic,
			domain.MemoryTypeSemantic:   semantic,
			domain.MemoryTypeProcedural: procedural,
		},
		procedural: procedural,
		gw:         gw,
	}
}

func (h *MemoryHandler) facade(w http.ResponseWriter, r *http.Request) (memoryFacade, bool) {
	t := domain.MemoryType(chi.URLParam(r, "type"))
	f, ok := h.facades[t]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown memory type")
		return nil, false
	}
	return f, true
}

type createMemoryRequest struct {
	AgentID    string         `json:"agentId"`
	Content    string         `json:"content"`
	SessionID  string         `json:"sessionId,omitempty"`
	Importance float64        `json:"importance,omitempty"`
	Keywords   []string       `json:"keywords,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	facade, ok := h.facade(w, r)
	if !ok {
		return
	}

	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	m, err := facade.Store(r.Context(), userID, req.AgentID, req.Content, memorytypes.StoreOptions{
		SessionID:  req.SessionID,
		Importance: req.Importance,
		Keywords:   req.Keywords,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MemoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	facade, ok := h.facade(w, r)
	if !ok {
		return
	}

	m, err := facade.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrMemoryNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get memory")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	facade, ok := h.facade(w, r)
	if !ok {
		return
	}

	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agentId query parameter is required")
		return
	}

	if err := facade.Delete(r.Context(), userID, agentID, chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete memory")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	facade, ok := h.facade(w, r)
	if !ok {
		return
	}

	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agentId query parameter is required")
		return
	}

	var opts domain.ByTypeFilter
	if v := r.URL.Query().Get("createdBefore"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.CreatedBefore = parsed
		}
	}

	mems, err := facade.List(r.Context(), userID, agentID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list memories")
		return
	}
	writeJSON(w, http.StatusOK, mems)
}

type recordOutcomeRequest struct {
	Success bool `json:"success"`
}

func (h *MemoryHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req recordOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.procedural.RecordOutcome(r.Context(), userID, chi.URLParam(r, "id"), req.Success); err != nil {
		if errors.Is(err, domain.ErrMemoryNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record outcome")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var agentID *string
	if v := r.URL.Query().Get("agentId"); v != "" {
		agentID = &v
	}
	stats, err := h.gw.GetStats(r.Context(), userID, agentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUser), errors.Is(err, domain.ErrInvalidAgent), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBudgetExceeded):
		writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to store memory")
	}
}
