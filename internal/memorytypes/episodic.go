package memorytypes

import (
	"context"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
)

// EpisodicMemory holds time-stamped experiences — the source material the
// consolidator later folds into semantic memory once they decay enough or
// accumulate enough corroboration.
type EpisodicMemory struct {
	base baseMemoryType
}

func NewEpisodicMemory(gw domain.StorageGateway, embedder *embedding.Service, queue *discovery.Queue, log *zap.Logger) *EpisodicMemory {
	return &EpisodicMemory{base: baseMemoryType{memType: domain.MemoryTypeEpisodic, gw: gw, embedder: embedder, queue: queue, log: log}}
}

func (e *EpisodicMemory) Store(ctx context.Context, userID, agentID, content string, opts StoreOptions) (*domain.Memory, error) {
	return e.base.store(ctx, userID, agentID, content, opts)
}

func (e *EpisodicMemory) Get(ctx context.Context, userID, id string) (*domain.Memory, error) {
	return e.base.get(ctx, userID, id)
}

func (e *EpisodicMemory) Delete(ctx context.Context, userID, agentID, id string) error {
	return e.base.delete(ctx, userID, agentID, id)
}

func (e *EpisodicMemory) List(ctx context.Context, userID, agentID string, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	return e.base.list(ctx, userID, agentID, opts)
}
