// Package consolidation runs the background pipeline that promotes
// episodic memories into semantic ones and merges near-duplicate semantic
// memories, mirroring the memory-maintenance cycle every agent memory
// system needs to keep from accumulating redundant history forever.
package consolidation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/logging"
	"github.com/synapsehq/synapse/internal/memorytypes"
)

const (
	// DefaultSimilarityMergeThreshold is the cosine similarity above which
	// two semantic memories are considered duplicates and merged, used
	// whenever the caller's IntelligenceConfig leaves the threshold unset.
	DefaultSimilarityMergeThreshold = 0.92

	// PromotionAgeFloor is the minimum age an episodic memory must reach
	// before it's eligible for promotion to semantic memory.
	PromotionAgeFloor = 24 * time.Hour

	// PromotionAccessFloor is the minimum access-count alternative path to
	// promotion eligibility (frequently recalled episodes promote early).
	PromotionAccessFloor = 3

	// PromotionImportanceFloor is the minimum importance an episodic memory
	// must carry, on top of the age/access floors above, before it promotes.
	PromotionImportanceFloor = 0.5

	// PromotionImportanceBoost is added to an episode's importance (capped
	// at 1.0) when it's promoted to a semantic memory.
	PromotionImportanceBoost = 0.1

	// maxMergedKeywords caps the unioned keyword set on a merged memory.
	maxMergedKeywords = 20

	defaultConsolidationInterval = 6 * time.Hour
	episodeBatchSize             = 50
)

// Result summarizes one consolidation pass for one (user, agent) pair.
type Result struct {
	EpisodesProcessed int
	SemanticPromoted  int
	SemanticMerged    int
}

// Tenant identifies one (userId, agentId) pair to consolidate.
type Tenant struct {
	UserID  string
	AgentID string
}

// Consolidator orchestrates the episodic-to-semantic promotion and
// semantic-merge stages, and can run itself on an interval as a background
// service (Start/Stop) the way every long-running worker in this codebase
// does.
type Consolidator struct {
	gw       domain.StorageGateway
	embedder *embedding.Service
	semantic *memorytypes.SemanticMemory
	cfg      domain.ConsolidationConfig
	log      *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewConsolidator(gw domain.StorageGateway, embedder *embedding.Service, semantic *memorytypes.SemanticMemory, interval time.Duration, log *zap.Logger, cfg ...domain.ConsolidationConfig) *Consolidator {
	if interval <= 0 {
		interval = defaultConsolidationInterval
	}
	c := domain.ConsolidationConfig{SimilarityThreshold: DefaultSimilarityMergeThreshold}
	if len(cfg) > 0 {
		c = cfg[0]
		if c.SimilarityThreshold == 0 {
			c.SimilarityThreshold = DefaultSimilarityMergeThreshold
		}
	}
	return &Consolidator{gw: gw, embedder: embedder, semantic: semantic, cfg: c, interval: interval, log: log, stopCh: make(chan struct{})}
}

// TenantLister supplies the (user, agent) pairs to sweep each interval.
type TenantLister func(ctx context.Context) ([]Tenant, error)

// Start launches the background consolidation loop.
func (c *Consolidator) Start(list TenantLister) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		if c.log != nil {
			c.log.Info("consolidation worker started", zap.Duration("interval", c.interval))
		}

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				c.runAll(ctx, list)
				cancel()
			case <-c.stopCh:
				if c.log != nil {
					c.log.Info("consolidation worker stopped")
				}
				return
			}
		}
	}()
}

func (c *Consolidator) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Consolidator) runAll(ctx context.Context, list TenantLister) {
	tenants, err := list(ctx)
	if err != nil {
		if c.log != nil {
			c.log.Error("failed to list tenants for consolidation", zap.Error(err))
		}
		return
	}
	for _, t := range tenants {
		if _, err := c.Consolidate(ctx, t.UserID, t.AgentID); err != nil && c.log != nil {
			c.log.Error("consolidation failed",
				logging.UserField(t.UserID), logging.AgentField(t.AgentID), zap.Error(err))
		}
	}
}

// Consolidate runs one pass for (userID, agentID): promote eligible
// episodic memories to semantic, then merge near-duplicate semantic
// memories found via the shared embedding+cosine similarity path.
func (c *Consolidator) Consolidate(ctx context.Context, userID, agentID string) (Result, error) {
	var result Result

	episodes, err := c.gw.GetByType(ctx, userID, agentID, domain.MemoryTypeEpisodic, domain.ByTypeFilter{})
	if err != nil {
		return result, err
	}
	if len(episodes) > episodeBatchSize {
		episodes = episodes[:episodeBatchSize]
	}

	now := time.Now()
	for _, ep := range episodes {
		result.EpisodesProcessed++
		age := now.Sub(time.UnixMilli(ep.CreatedAt))
		if age < PromotionAgeFloor && ep.AccessCount < PromotionAccessFloor {
			continue
		}
		if ep.Importance < PromotionImportanceFloor {
			continue
		}

		promotedAt := time.Now()
		if _, err := c.semantic.Store(ctx, userID, agentID, ep.Content, memorytypes.StoreOptions{
			Importance: math.Min(1, ep.Importance+PromotionImportanceBoost),
			Keywords:   ep.Keywords,
			Metadata: map[string]any{
				"convertedFrom":    ep.ID,
				"originalType":     string(domain.MemoryTypeEpisodic),
				"conversionDate":   promotedAt.UTC().Format(time.RFC3339),
				"extractionMethod": "verbatim",
			},
		}); err != nil {
			if c.log != nil {
				c.log.Warn("failed to promote episode", logging.UserField(userID), logging.AgentField(agentID), zap.Error(err))
			}
			continue
		}
		result.SemanticPromoted++
		if !c.cfg.PreserveOriginals {
			if err := c.gw.Delete(ctx, userID, agentID, ep.ID); err != nil && c.log != nil {
				c.log.Warn("failed to remove promoted episode", logging.UserField(userID), logging.AgentField(agentID), zap.Error(err))
			}
		}
	}

	merged, err := c.mergeSimilarSemantics(ctx, userID, agentID)
	if err != nil {
		return result, err
	}
	result.SemanticMerged = merged
	return result, nil
}

// mergeSimilarSemantics embeds every current semantic memory (through the
// cache, so repeats are cheap) and, for each not-yet-processed memory,
// gathers every other memory within its similarity set (cosine above the
// configured threshold). A set of size >= 2 is replaced by one synthesized
// memory carrying the union of the set's fields; the inputs are deleted
// unless PreserveOriginals is set.
func (c *Consolidator) mergeSimilarSemantics(ctx context.Context, userID, agentID string) (int, error) {
	mems, err := c.gw.GetByType(ctx, userID, agentID, domain.MemoryTypeSemantic, domain.ByTypeFilter{})
	if err != nil {
		return 0, err
	}

	threshold := c.cfg.SimilarityThreshold
	if threshold == 0 {
		threshold = DefaultSimilarityMergeThreshold
	}

	vecs := make([][]float64, len(mems))
	for i, m := range mems {
		if m.Embedding != nil {
			vecs[i] = m.Embedding
			continue
		}
		if c.embedder == nil {
			continue
		}
		v, err := c.embedder.Embed(ctx, m.Content)
		if err != nil {
			continue
		}
		vecs[i] = v
	}

	processed := make(map[int]bool)
	merged := 0
	for i := 0; i < len(mems); i++ {
		if processed[i] || vecs[i] == nil {
			continue
		}
		group := []int{i}
		for j := i + 1; j < len(mems); j++ {
			if processed[j] || vecs[j] == nil {
				continue
			}
			if embedding.Cosine(vecs[i], vecs[j]) >= threshold {
				group = append(group, j)
			}
		}
		if len(group) < 2 {
			continue
		}

		groupMems := make([]domain.Memory, len(group))
		for k, idx := range group {
			groupMems[k] = mems[idx]
		}
		mergedMem := buildMergedMemory(userID, agentID, groupMems)

		if err := c.gw.Store(ctx, userID, agentID, mergedMem); err != nil {
			if c.log != nil {
				c.log.Warn("failed to store merged memory", logging.UserField(userID), zap.Error(err))
			}
			continue
		}

		if !c.cfg.PreserveOriginals {
			for _, idx := range group {
				if err := c.gw.Delete(ctx, userID, agentID, mems[idx].ID); err != nil && c.log != nil {
					c.log.Warn("failed to delete merged duplicate", logging.UserField(userID), zap.Error(err))
				}
			}
		}
		for _, idx := range group {
			processed[idx] = true
		}
		merged++
	}
	return merged, nil
}

// buildMergedMemory synthesizes one semantic memory from a similarity
// group: importance is the max, accessCount the sum, createdAt the
// earliest, lastAccessedAt the latest, keywords the union (capped), and
// content the concatenation of each unique input's content (no LLM
// synthesis is wired here — see DESIGN.md).
func buildMergedMemory(userID, agentID string, group []domain.Memory) *domain.Memory {
	sort.Slice(group, func(i, j int) bool {
		if group[i].Importance != group[j].Importance {
			return group[i].Importance > group[j].Importance
		}
		return group[i].CreatedAt > group[j].CreatedAt
	})
	primary := group[0]

	now := time.Now().UnixMilli()
	merged := &domain.Memory{
		ID:             fmt.Sprintf("%s_%d_%s", domain.MemoryTypeSemantic.TypePrefix(), now, uuid.NewString()[:9]),
		UserID:         userID,
		AgentID:        agentID,
		Type:           domain.MemoryTypeSemantic,
		Resonance:      1.0,
		CreatedAt:      primary.CreatedAt,
		UpdatedAt:      now,
		LastAccessedAt: primary.LastAccessedAt,
	}

	ids := make([]string, 0, len(group))
	seenContent := make(map[string]bool, len(group))
	var contents []string
	keywordSeen := make(map[string]bool)
	var sumImportance float64

	for _, m := range group {
		ids = append(ids, m.ID)
		sumImportance += m.Importance

		if merged.Importance < m.Importance {
			merged.Importance = m.Importance
		}
		merged.AccessCount += m.AccessCount
		if m.CreatedAt < merged.CreatedAt {
			merged.CreatedAt = m.CreatedAt
		}
		if m.LastAccessedAt > merged.LastAccessedAt {
			merged.LastAccessedAt = m.LastAccessedAt
		}
		if !seenContent[m.Content] {
			seenContent[m.Content] = true
			contents = append(contents, m.Content)
		}
		for _, kw := range m.Keywords {
			if len(merged.Keywords) >= maxMergedKeywords {
				break
			}
			if kw == "" || keywordSeen[kw] {
				continue
			}
			keywordSeen[kw] = true
			merged.Keywords = append(merged.Keywords, kw)
		}
	}

	merged.Content = joinUnique(contents)
	merged.TokenCount = memorytypes.TokenCount(merged.Content)

	avgImportance := sumImportance / float64(len(group))
	mergeConfidence := math.Min(0.95, 0.7*avgImportance+0.3*math.Min(1, float64(len(group))/5))

	merged.Metadata = map[string]any{
		"mergedFrom":      ids,
		"mergeConfidence": mergeConfidence,
	}
	return merged
}

func joinUnique(contents []string) string {
	out := contents[0]
	for _, c := range contents[1:] {
		out += " " + c
	}
	return out
}
