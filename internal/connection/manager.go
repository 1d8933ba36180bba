// Package connection implements the progressive-enhancement connection
// discovery ladder: a fast embedding-similarity path, user-authored
// semantic rules, budgeted LLM classification, and a heuristic fallback —
// each level invoked only when the one before it didn't produce a result.
package connection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/costtracker"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/llm"
	"github.com/synapsehq/synapse/internal/logging"
)

// DecayMultiplier controls how far activation propagates across an edge of
// each type during related-memory BFS expansion in recall.
var DecayMultiplier = map[domain.ConnectionType]float64{
	domain.ConnectionSimilar:  0.85,
	domain.ConnectionRelated:  0.7,
	domain.ConnectionCauses:   0.9,
	domain.ConnectionPartOf:   0.8,
	domain.ConnectionOpposite: 0.95,
}

// fastPathThreshold is the L0 embedding-similarity bar above which a
// connection is created without consulting rules or an LLM at all.
const fastPathThreshold = 0.9

// Manager runs DiscoverConnections against a batch of candidate memories
// for one newly stored memory.
type Manager struct {
	embedder domain.Embedder
	llmFn    domain.StructuredLLM
	costs    costtracker.Tracker
	log      *zap.Logger
}

func NewManager(embedder domain.Embedder, structuredLLM domain.StructuredLLM, costs costtracker.Tracker, log *zap.Logger) *Manager {
	return &Manager{embedder: embedder, llmFn: structuredLLM, costs: costs, log: log}
}

// Candidate is a recent memory considered as a connection target.
type Candidate struct {
	Memory    domain.Memory
	Embedding []float64
}

// DiscoverConnections evaluates newMem against candidates, climbing the
// ladder per candidate: L0 fast path, then (if configured) L1 user rules,
// then (if budget allows) L2 LLM classification, then L3 heuristic
// fallback. Each candidate yields at most one edge. The returned edges are
// sorted by strength, descending, and trimmed to
// cfg.CostControl.MaxLLMCallsPerBatch when that is positive.
func (m *Manager) DiscoverConnections(ctx context.Context, cfg domain.IntelligenceConfig, userID, agentID string, newMem domain.Memory, newEmbedding []float64, candidates []Candidate) ([]domain.MemoryConnection, error) {
	var edges []domain.MemoryConnection
	llmCallsUsed := 0

	for _, cand := range candidates {
		if cand.Memory.ID == newMem.ID {
			continue
		}

		sim := embedding.Cosine(newEmbedding, cand.Embedding)

		// L0: fast path.
		if sim >= fastPathThreshold {
			edges = append(edges, m.buildEdge(userID, newMem.ID, cand.Memory.ID, domain.ConnectionSimilar, sim,
				"embedding similarity above fast-path threshold", domain.ConnectionMetadata{
					Method: "fast_path", Confidence: sim, EmbeddingSimilarity: sim,
				}))
			continue
		}

		// L1: user-authored semantic rules.
		if cfg.ConnectionDetection.Method == domain.MethodUserRules || cfg.ConnectionDetection.Method == domain.MethodHybrid {
			if cfg.ConnectionDetection.UserRules.Enabled {
				edge, matched, err := m.evaluateUserRules(ctx, cfg.ConnectionDetection.UserRules.Patterns, userID, newMem, cand, sim)
				if err != nil {
					return edges, err
				}
				if matched {
					edges = append(edges, edge)
					continue
				}
			}
		}

		// L2: budgeted LLM classification.
		wantsLLM := cfg.ConnectionDetection.Method == domain.MethodSmallLLM || cfg.ConnectionDetection.Method == domain.MethodHybrid
		if wantsLLM && cfg.ConnectionDetection.LLMEnhancement.Enabled && m.llmFn != nil {
			if llmCallsUsed >= cfg.CostControl.MaxLLMCallsPerBatch {
				goto heuristic
			}
			// Redundant-looking OR clause kept verbatim: a similarity below the
			// embedding threshold OR a configured preference for embedding still
			// routes to the embedding-only decision below instead of spending an
			// LLM call, even under "hybrid" / "small-llm" method selection.
			if sim < cfg.Embedding.SimilarityThreshold || cfg.CostControl.PreferEmbeddingWhenSimilar {
				if sim >= cfg.Embedding.SimilarityThreshold {
					edges = append(edges, m.buildEdge(userID, newMem.ID, cand.Memory.ID, domain.ConnectionSimilar, sim,
						"embedding similarity above configured threshold", domain.ConnectionMetadata{
							Method: "fast_path", Confidence: sim, EmbeddingSimilarity: sim,
						}))
				}
				continue
			}

			ok, err := m.costs.CheckBudget(ctx, agentID, cfg.CostControl.MonthlyBudget)
			if err != nil {
				return edges, err
			}
			if !ok {
				if cfg.ConnectionDetection.LLMEnhancement.FallbackToEmbedding {
					goto heuristic
				}
				continue
			}

			edge, matched, err := m.classifyWithLLM(ctx, cfg, userID, agentID, newMem, cand, sim)
			if err != nil {
				if m.log != nil {
					m.log.Warn("llm connection classification failed, falling back",
						logging.UserField(userID), logging.AgentField(agentID), zap.Error(err))
				}
				goto heuristic
			}
			llmCallsUsed++
			if matched {
				edges = append(edges, edge)
				continue
			}
			continue
		}

	heuristic:
		// L3: heuristic fallback — temporal proximity and residual similarity.
		if edge, matched := m.heuristicFallback(userID, newMem, cand, sim); matched {
			edges = append(edges, edge)
		}
	}

	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Strength > edges[j].Strength })
	if limit := cfg.CostControl.MaxLLMCallsPerBatch; limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	return edges, nil
}

func (m *Manager) buildEdge(userID, sourceID, targetID string, t domain.ConnectionType, strength float64, reason string, meta domain.ConnectionMetadata) domain.MemoryConnection {
	return domain.MemoryConnection{
		ID:             uuid.NewString(),
		UserID:         userID,
		SourceMemoryID: sourceID,
		TargetMemoryID: targetID,
		ConnectionType: t,
		Strength:       strength,
		Reason:         reason,
		CreatedAt:      time.Now().UnixMilli(),
		Metadata:       meta,
	}
}

func (m *Manager) evaluateUserRules(ctx context.Context, rules []domain.ConnectionRule, userID string, newMem domain.Memory, cand Candidate, sim float64) (domain.MemoryConnection, bool, error) {
	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}
		if rule.RequiresBothMemories && (newMem.Content == "" || cand.Memory.Content == "") {
			continue
		}
		ruleVec, ok := rule.CachedEmbedding()
		if !ok {
			var err error
			ruleVec, err = m.embedder.Embed(ctx, rule.SemanticDescription)
			if err != nil {
				return domain.MemoryConnection{}, false, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
			}
			rule.SetCachedEmbedding(ruleVec)
		}
		score := embedding.Cosine(ruleVec, cand.Embedding)
		if score >= rule.Threshold() {
			return m.buildEdge(userID, newMem.ID, cand.Memory.ID, rule.ConnectionType, rule.Confidence,
				fmt.Sprintf("matched user rule %q", rule.Name), domain.ConnectionMetadata{
					Method: "user_rule", Confidence: rule.Confidence, EmbeddingSimilarity: sim, Algorithm: rule.ID,
				}), true, nil
		}
	}
	return domain.MemoryConnection{}, false, nil
}

func (m *Manager) classifyWithLLM(ctx context.Context, cfg domain.IntelligenceConfig, userID, agentID string, newMem domain.Memory, cand Candidate, sim float64) (domain.MemoryConnection, bool, error) {
	messages := llm.ConnectionClassificationMessages(newMem.Content, cand.Memory.Content)
	obj, usage, err := m.llmFn.GenerateObject(ctx, llm.ConnectionClassificationSchema, messages, cfg.ConnectionDetection.LLMEnhancement.Temperature)
	if err != nil {
		return domain.MemoryConnection{}, false, err
	}

	if usage != nil && cfg.CostControl.TrackTokenUsage {
		cost := float64(usage.TotalTokens) * cfg.ConnectionDetection.LLMEnhancement.CostPerToken
		if cfg.ConnectionDetection.LLMEnhancement.CostPerOperation > 0 {
			cost += cfg.ConnectionDetection.LLMEnhancement.CostPerOperation
		}
		if err := m.costs.TrackExtraction(ctx, agentID, cost); err != nil && m.log != nil {
			m.log.Warn("failed to record llm spend", logging.AgentField(agentID), zap.Error(err))
		}
	}

	connType, _ := obj["connectionType"].(string)
	if !domain.ValidConnectionType(connType) {
		return domain.MemoryConnection{}, false, nil
	}
	confidence, _ := obj["confidence"].(float64)
	if confidence < cfg.ConnectionDetection.LLMEnhancement.MinConfidence {
		return domain.MemoryConnection{}, false, nil
	}
	reason, _ := obj["reason"].(string)

	return m.buildEdge(userID, newMem.ID, cand.Memory.ID, domain.ConnectionType(connType), confidence, reason,
		domain.ConnectionMetadata{Method: "llm", Confidence: confidence, EmbeddingSimilarity: sim, LLMUsed: true}), true, nil
}

// heuristicFallback never calls an external service: it fires only on
// residual embedding similarity and temporal proximity, matching the
// spec's L3 description of a pure-function last resort. h is the absolute
// gap between the two memories' createdAt, in hours.
func (m *Manager) heuristicFallback(userID string, newMem domain.Memory, cand Candidate, sim float64) (domain.MemoryConnection, bool) {
	const heuristicSimilarityFloor = 0.55

	if sim < heuristicSimilarityFloor {
		return domain.MemoryConnection{}, false
	}

	deltaMillis := newMem.CreatedAt - cand.Memory.CreatedAt
	if deltaMillis < 0 {
		deltaMillis = -deltaMillis
	}
	h := float64(deltaMillis) / float64(time.Hour/time.Millisecond)

	switch {
	case sim > 0.85 && h < 24:
		return m.buildEdge(userID, newMem.ID, cand.Memory.ID, domain.ConnectionRelated, sim*0.8,
			"High similarity + temporal proximity", domain.ConnectionMetadata{
				Method: "heuristic", Confidence: sim * 0.8, EmbeddingSimilarity: sim,
			}), true
	case sim > 0.75 && h > 0 && h < 1:
		return m.buildEdge(userID, newMem.ID, cand.Memory.ID, domain.ConnectionRelated, sim*0.7,
			"Sequential content", domain.ConnectionMetadata{
				Method: "heuristic", Confidence: sim * 0.7, EmbeddingSimilarity: sim,
			}), true
	default:
		return m.buildEdge(userID, newMem.ID, cand.Memory.ID, domain.ConnectionSimilar, sim,
			"Embedding similarity above threshold", domain.ConnectionMetadata{
				Method: "heuristic", Confidence: sim, EmbeddingSimilarity: sim,
			}), true
	}
}
