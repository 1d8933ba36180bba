package recall

import (
	"context"

	"github.com/synapsehq/synapse/internal/connection"
	"github.com/synapsehq/synapse/internal/domain"
)

const (
	maxExpansionHops  = 2
	minActivation     = 0.1
	expansionSeedFloor = 0.5
)

// enrichWithConnections runs a BFS over the connection graph starting from
// every high-scoring seed already in byID, boosting scores of memories the
// graph reaches and pulling in ones recall itself didn't surface directly.
// Activation decays by each edge's type-specific multiplier per hop and
// traversal stops once activation drops below minActivation.
func (s *Service) enrichWithConnections(ctx context.Context, userID string, byID map[string]*ScoredMemory) error {
	lookup, ok := s.gw.MaybeConnectionLookup()
	if !ok || len(byID) == 0 {
		return nil
	}

	seedIDs := make([]string, 0, len(byID))
	activation := make(map[string]float64, len(byID))
	for id, sm := range byID {
		if sm.FinalScore >= expansionSeedFloor {
			seedIDs = append(seedIDs, id)
			activation[id] = sm.FinalScore
		}
	}
	if len(seedIDs) == 0 {
		return nil
	}

	visited := make(map[string]bool, len(seedIDs))
	frontier := seedIDs

	for hop := 0; hop < maxExpansionHops && len(frontier) > 0; hop++ {
		edges, err := lookup.GetConnectionsForMemories(ctx, userID, frontier)
		if err != nil {
			return err
		}

		var next []string
		for _, e := range edges {
			if visited[e.SourceMemoryID] && visited[e.TargetMemoryID] {
				continue
			}
			from, to := e.SourceMemoryID, e.TargetMemoryID
			fromActivation, ok := activation[from]
			if !ok {
				fromActivation, ok = activation[to]
				from, to = to, from
				if !ok {
					continue
				}
			}

			decay := connection.DecayMultiplier[e.ConnectionType]
			if decay == 0 {
				decay = 0.7
			}
			newActivation := fromActivation * e.Strength * decay
			if newActivation < minActivation {
				continue
			}

			if existing, ok := byID[to]; ok {
				if newActivation > existing.GraphBoost {
					existing.GraphBoost = newActivation
					existing.FinalScore += newActivation * 0.2
				}
			} else {
				mem, err := s.gw.GetByID(ctx, userID, to)
				if err == nil && mem != nil {
					sm := ScoredMemory{Memory: *mem, GraphBoost: newActivation, FinalScore: newActivation * 0.2, ExpandedFrom: from}
					byID[to] = &sm
				}
			}

			activation[to] = newActivation
			if !visited[to] {
				next = append(next, to)
			}
		}

		for _, id := range frontier {
			visited[id] = true
		}
		frontier = next
	}

	return nil
}
