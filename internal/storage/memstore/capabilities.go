package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
)

// ApplyDecay implements domain.DecayCapability: every memory's resonance
// decays exponentially with decayRate per day since last access (a partial
// day counts as a whole one). Memories whose resonance falls below 0.01 are
// removed.
func (s *Store) ApplyDecay(ctx context.Context, userID, agentID string, decayRate float64) (domain.DecayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result domain.DecayResult
	bucket := s.memories[tenantKey{userID, agentID}]
	now := time.Now()
	for id, m := range bucket {
		result.Processed++
		days := now.Sub(time.UnixMilli(m.LastAccessedAt)).Hours() / 24
		if days <= 0 {
			continue
		}
		decayed := m.Resonance * decayExp(decayRate, days)
		if decayed < 0.01 {
			delete(bucket, id)
			result.Removed++
			continue
		}
		if decayed != m.Resonance {
			m.Resonance = decayed
			bucket[id] = m
			result.Decayed++
		}
	}
	return result, nil
}

func decayExp(rate, days float64) float64 {
	v := 1.0
	for i := 0.0; i < days; i++ {
		v *= 1 - rate
		if v <= 0 {
			return 0
		}
	}
	return v
}

// GetConnectionsForMemories implements domain.ConnectionLookupCapability.
func (s *Store) GetConnectionsForMemories(ctx context.Context, userID string, ids []string) ([]domain.MemoryConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.MemoryConnection
	for _, e := range s.connections[userID] {
		if want[e.SourceMemoryID] || want[e.TargetMemoryID] {
			out = append(out, e)
		}
	}
	return out, nil
}

// HybridSearch implements domain.HybridSearchCapability using the in-memory
// store's own content for vector/text scoring — exercised by tests that
// want a real (non-zero) vector score without a live pgvector adapter.
func (s *Store) HybridSearch(ctx context.Context, userID, agentID, query string, queryEmbedding []float64, weights domain.HybridWeights, limit int, minRelevance float64) ([]domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.memories[tenantKey{userID, agentID}]
	lowerQuery := strings.ToLower(query)

	type scored struct {
		m     domain.Memory
		score float64
	}
	var candidates []scored
	for _, m := range bucket {
		var vecScore float64
		if m.Embedding != nil && queryEmbedding != nil {
			vecScore = embedding.Cosine(queryEmbedding, m.Embedding)
		}
		var txtScore float64
		if lowerQuery != "" && strings.Contains(strings.ToLower(m.Content), lowerQuery) {
			txtScore = 1
		}
		score := weights.Vector*vecScore + weights.Text*txtScore
		if score < minRelevance {
			continue
		}
		candidates = append(candidates, scored{m, score})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]domain.Memory, len(candidates))
	for i, c := range candidates {
		out[i] = c.m
	}
	return out, nil
}
