package connection

import (
	"context"
	"fmt"

	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
)

// NewDiscoveryHandler adapts a Manager into a discovery.Handler: given a
// queued (userID, agentID, memoryID) task, it loads the new memory, pulls a
// bounded window of recent candidates across all four memory types, runs
// the ladder, and persists whatever edges it finds.
func NewDiscoveryHandler(mgr *Manager, gw domain.StorageGateway, cfg domain.IntelligenceConfig) discovery.Handler {
	return func(ctx context.Context, t discovery.Task) (int, error) {
		newMem, err := gw.GetByID(ctx, t.UserID, t.MemoryID)
		if err != nil {
			return 0, fmt.Errorf("load new memory: %w", err)
		}

		candidates, err := recentCandidates(ctx, gw, t.UserID, t.AgentID, t.MemoryID, cfg.ConnectionDetection.MaxRecentMemories)
		if err != nil {
			return 0, fmt.Errorf("load candidates: %w", err)
		}
		if len(candidates) == 0 {
			return 0, nil
		}

		edges, err := mgr.DiscoverConnections(ctx, cfg, t.UserID, t.AgentID, *newMem, newMem.Embedding, candidates)
		if err != nil {
			return 0, err
		}
		if len(edges) == 0 {
			return 0, nil
		}

		if err := CreateConnections(ctx, gw, t.UserID, edges); err != nil {
			return 0, err
		}
		return len(edges), nil
	}
}

func recentCandidates(ctx context.Context, gw domain.StorageGateway, userID, agentID, excludeID string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Candidate
	for _, t := range []domain.MemoryType{domain.MemoryTypeWorking, domain.MemoryTypeEpisodic, domain.MemoryTypeSemantic, domain.MemoryTypeProcedural} {
		mems, err := gw.GetByType(ctx, userID, agentID, t, domain.ByTypeFilter{})
		if err != nil {
			return nil, err
		}
		for _, m := range mems {
			if m.ID == excludeID || m.Embedding == nil {
				continue
			}
			out = append(out, Candidate{Memory: m, Embedding: m.Embedding})
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}
