package memorytypes

import (
	"context"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
)

// SemanticMemory holds consolidated facts and preferences: durable,
// general, and the primary target of the connection-discovery graph.
type SemanticMemory struct {
	base baseMemoryType
}

func NewSemanticMemory(gw domain.StorageGateway, embedder *embedding.Service, queue *discovery.Queue, log *zap.Logger) *SemanticMemory {
	return &SemanticMemory{base: baseMemoryType{memType: domain.MemoryTypeSemantic, gw: gw, embedder: embedder, queue: queue, log: log}}
}

func (s *SemanticMemory) Store(ctx context.Context, userID, agentID, content string, opts StoreOptions) (*domain.Memory, error) {
	return s.base.store(ctx, userID, agentID, content, opts)
}

func (s *SemanticMemory) Get(ctx context.Context, userID, id string) (*domain.Memory, error) {
	return s.base.get(ctx, userID, id)
}

func (s *SemanticMemory) Delete(ctx context.Context, userID, agentID, id string) error {
	return s.base.delete(ctx, userID, agentID, id)
}

func (s *SemanticMemory) List(ctx context.Context, userID, agentID string, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	return s.base.list(ctx, userID, agentID, opts)
}
