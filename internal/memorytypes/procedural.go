package memorytypes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
)

// ProceduralMemory holds learned trigger-action patterns. Unlike the other
// three types it tracks an outcome history (useCount/successCount) in
// metadata, updated via RecordOutcome every time the pattern fires.
type ProceduralMemory struct {
	base baseMemoryType
}

func NewProceduralMemory(gw domain.StorageGateway, embedder *embedding.Service, queue *discovery.Queue, log *zap.Logger) *ProceduralMemory {
	return &ProceduralMemory{base: baseMemoryType{memType: domain.MemoryTypeProcedural, gw: gw, embedder: embedder, queue: queue, log: log}}
}

func (p *ProceduralMemory) Store(ctx context.Context, userID, agentID, content string, opts StoreOptions) (*domain.Memory, error) {
	if opts.Metadata == nil {
		opts.Metadata = map[string]any{}
	}
	opts.Metadata["useCount"] = 0
	opts.Metadata["successCount"] = 0
	return p.base.store(ctx, userID, agentID, content, opts)
}

func (p *ProceduralMemory) Get(ctx context.Context, userID, id string) (*domain.Memory, error) {
	return p.base.get(ctx, userID, id)
}

func (p *ProceduralMemory) Delete(ctx context.Context, userID, agentID, id string) error {
	return p.base.delete(ctx, userID, agentID, id)
}

func (p *ProceduralMemory) List(ctx context.Context, userID, agentID string, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	return p.base.list(ctx, userID, agentID, opts)
}

// RecordOutcome increments useCount (and successCount if the procedure
// worked) on an existing procedural memory.
func (p *ProceduralMemory) RecordOutcome(ctx context.Context, userID, id string, success bool) error {
	m, err := p.base.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	// Counts read back from a JSON metadata column decode as float64.
	useCount, successCount := 0, 0
	switch v := m.Metadata["useCount"].(type) {
	case int:
		useCount = v
	case float64:
		useCount = int(v)
	}
	switch v := m.Metadata["successCount"].(type) {
	case int:
		successCount = v
	case float64:
		successCount = int(v)
	}
	m.Metadata["useCount"] = useCount + 1
	if success {
		m.Metadata["successCount"] = successCount + 1
	}
	if err := p.base.gw.Store(ctx, userID, m.AgentID, m); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoragePersistence, err)
	}
	return nil
}
