package memorytypes

import (
	"context"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
)

// WorkingMemory holds the agent's active working-set, with a high default
// importance. Consolidation promotes only episodic memories, so working
// memories are never converted to semantic ones.
type WorkingMemory struct {
	base baseMemoryType
}

func NewWorkingMemory(gw domain.StorageGateway, embedder *embedding.Service, queue *discovery.Queue, log *zap.Logger) *WorkingMemory {
	return &WorkingMemory{base: baseMemoryType{memType: domain.MemoryTypeWorking, gw: gw, embedder: embedder, queue: queue, log: log}}
}

func (w *WorkingMemory) Store(ctx context.Context, userID, agentID, content string, opts StoreOptions) (*domain.Memory, error) {
	return w.base.store(ctx, userID, agentID, content, opts)
}

func (w *WorkingMemory) Get(ctx context.Context, userID, id string) (*domain.Memory, error) {
	return w.base.get(ctx, userID, id)
}

func (w *WorkingMemory) Delete(ctx context.Context, userID, agentID, id string) error {
	return w.base.delete(ctx, userID, agentID, id)
}

func (w *WorkingMemory) List(ctx context.Context, userID, agentID string, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	return w.base.list(ctx, userID, agentID, opts)
}
