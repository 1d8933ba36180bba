// Package memorytypes implements the four memory-type façades (working,
// episodic, semantic, procedural) that share one storage/embedding/
// discovery wiring but apply type-specific defaults.
package memorytypes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/logging"
)

// baseMemoryType implements the write path shared by every façade: field
// defaulting, embedding, persistence, then a non-blocking discovery
// enqueue. Each façade embeds it and fixes memType.
type baseMemoryType struct {
	memType  domain.MemoryType
	gw       domain.StorageGateway
	embedder *embedding.Service
	queue    *discovery.Queue
	log      *zap.Logger
}

// StoreOptions carries the caller-supplied fields for a new memory.
type StoreOptions struct {
	SessionID  string
	Importance float64 // 0 means "use the type default"
	Keywords   []string
	Metadata   map[string]any
}

func (b *baseMemoryType) store(ctx context.Context, userID, agentID, content string, opts StoreOptions) (*domain.Memory, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	if agentID == "" {
		return nil, domain.ErrInvalidAgent
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	now := time.Now().UnixMilli()
	importance := opts.Importance
	if importance <= 0 {
		importance = b.memType.DefaultImportance()
	}

	m := &domain.Memory{
		ID:             newID(b.memType),
		UserID:         userID,
		AgentID:        agentID,
		Type:           b.memType,
		Content:        content,
		Importance:     importance,
		Resonance:      1.0,
		AccessCount:    0,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
		SessionID:      opts.SessionID,
		TokenCount:     TokenCount(content),
		Keywords:       opts.Keywords,
		Metadata:       opts.Metadata,
	}
	m.MergeMetadata(map[string]any{
		"memoryType": string(b.memType),
	})

	if b.embedder != nil {
		vec, err := b.embedder.Embed(ctx, content)
		if err != nil {
			return nil, err
		}
		m.Embedding = vec
		m.EmbeddingID = m.ID
	}

	if err := b.gw.Store(ctx, userID, agentID, m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoragePersistence, err)
	}

	if b.queue != nil {
		b.queue.Enqueue(discovery.Task{UserID: userID, AgentID: agentID, MemoryID: m.ID})
	}

	if b.log != nil {
		b.log.Debug("memory stored",
			logging.UserField(userID), logging.AgentField(agentID),
			zap.String("memoryId", m.ID), zap.String("type", string(b.memType)))
	}

	return m, nil
}

func (b *baseMemoryType) get(ctx context.Context, userID, id string) (*domain.Memory, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	return b.gw.GetByID(ctx, userID, id)
}

func (b *baseMemoryType) delete(ctx context.Context, userID, agentID, id string) error {
	if userID == "" {
		return domain.ErrInvalidUser
	}
	return b.gw.Delete(ctx, userID, agentID, id)
}

func (b *baseMemoryType) list(ctx context.Context, userID, agentID string, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	return b.gw.GetByType(ctx, userID, agentID, b.memType, opts)
}
