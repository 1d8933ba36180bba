package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/synapsehq/synapse/internal/consolidation"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/temporal"
)

type CognitiveHandler struct {
	consolidator *consolidation.Consolidator
	analyzer     *temporal.Analyzer
	gw           domain.StorageGateway
	llmCfg       domain.LLMEnhancementConfig
}

func NewCognitiveHandler(consolidator *consolidation.Consolidator, analyzer *temporal.Analyzer, gw domain.StorageGateway, llmCfg domain.LLMEnhancementConfig) *CognitiveHandler {
	return &CognitiveHandler{consolidator: consolidator, analyzer: analyzer, gw: gw, llmCfg: llmCfg}
}

type agentScopedRequest struct {
	AgentID string `json:"agentId"`
}

// TriggerConsolidation runs one promotion+merge pass immediately for the
// caller's (user, agent) pair, outside the background interval.
func (h *CognitiveHandler) TriggerConsolidation(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req agentScopedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	result, err := h.consolidator.Consolidate(r.Context(), userID, req.AgentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "consolidation failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type decayRequest struct {
	AgentID   string  `json:"agentId"`
	DecayRate float64 `json:"decayRate"`
}

// TriggerDecay runs one resonance-decay sweep for the caller's (user, agent)
// pair, when the storage gateway exposes the optional decay capability.
func (h *CognitiveHandler) TriggerDecay(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req decayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}
	if req.DecayRate <= 0 {
		req.DecayRate = 0.05
	}

	decay, ok := h.gw.MaybeDecay()
	if !ok {
		writeError(w, http.StatusNotImplemented, "storage gateway does not support decay")
		return
	}

	result, err := decay.ApplyDecay(r.Context(), userID, req.AgentID, req.DecayRate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "decay failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type temporalPatternsRequest struct {
	AgentID          string  `json:"agentId"`
	TimestampsMillis []int64 `json:"timestampsMillis"`
}

// TemporalPatterns runs hourly/weekly-peak and burst detection over a
// caller-supplied sample of memory-event timestamps.
func (h *CognitiveHandler) TemporalPatterns(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(r); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req temporalPatternsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	patterns, err := h.analyzer.AnalyzePatterns(r.Context(), h.llmCfg, req.AgentID, req.TimestampsMillis)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "pattern detection failed")
		return
	}
	writeJSON(w, http.StatusOK, patterns)
}

type activityClustersRequest struct {
	AgentID string            `json:"agentId"`
	Samples []temporal.Sample `json:"samples"`
}

// ActivityClusters groups a caller-supplied sample of (timestamp, keywords)
// pairs into dense 1-hour windows, annotated with intensity and topics.
func (h *CognitiveHandler) ActivityClusters(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(r); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req activityClustersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	clusters := temporal.DetectActivityClusters(req.Samples)
	writeJSON(w, http.StatusOK, clusters)
}
