package domain

import "context"

// Embedder is the external embedding-provider contract (spec.md §6).
type Embedder interface {
	// Embed returns a deterministic vector for text. Dimension is provider-fixed.
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// SchemaField constrains a StructuredLLM response field.
type SchemaField struct {
	Name     string
	Type     string // "string" | "number" | "boolean" | "enum"
	Enum     []string
	Required bool
}

// ResponseSchema is a minimal JSON-schema-style contract for
// StructuredLLM.GenerateObject — enough to validate the handful of shapes
// the engine needs (connection classification, temporal patterns) without
// pulling in a general JSON-schema library the pack never uses for this.
type ResponseSchema struct {
	Name   string
	Fields []SchemaField
}

// LLMUsage reports token accounting for cost tracking.
type LLMUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StructuredLLM is the external chat-completion-provider contract. It
// returns a value already validated against schema, or a typed error —
// never a raw string parsed ad-hoc in-core (spec.md §9 redesign flag).
type StructuredLLM interface {
	GenerateObject(ctx context.Context, schema ResponseSchema, messages []Message, temperature float64) (map[string]any, *LLMUsage, error)
}

// Message is a single chat turn.
type Message struct {
	Role    string
	Content string
}

// RecallFilter narrows StorageGateway.Recall.
type RecallFilter struct {
	Type            *MemoryType
	Limit           int
	TimeRangeStart  int64
	TimeRangeEnd    int64
	IncludeMetadata bool
}

// ByTypeFilter narrows StorageGateway.GetByType.
type ByTypeFilter struct {
	CreatedBefore int64 // 0 means unbounded
}

// Stats is the result of StorageGateway.GetStats.
type Stats struct {
	ByType        map[MemoryType]int
	AvgImportance float64
}

// DecayResult is the result of an ApplyDecay call.
type DecayResult struct {
	Processed int
	Decayed   int
	Removed   int
}

// DecayCapability is an optional StorageGateway sub-capability.
type DecayCapability interface {
	ApplyDecay(ctx context.Context, userID, agentID string, decayRate float64) (DecayResult, error)
}

// ConnectionLookupCapability is an optional StorageGateway sub-capability
// enabling RecallService's connection enrichment step.
type ConnectionLookupCapability interface {
	GetConnectionsForMemories(ctx context.Context, userID string, ids []string) ([]MemoryConnection, error)
}

// HybridWeights controls StorageGateway.HybridSearch fusion on the storage
// side (distinct from RecallService's own in-core fusion, which still
// applies afterward).
type HybridWeights struct {
	Vector   float64
	Text     float64
	Temporal float64
}

// HybridSearchCapability is an optional StorageGateway sub-capability.
// When MaybeHybridSearch reports it, RecallService adds its results to the
// candidate set; the vector score itself is computed in-core from the
// memory's stored embedding whether or not the capability is present.
type HybridSearchCapability interface {
	HybridSearch(ctx context.Context, userID, agentID, query string, embedding []float64, weights HybridWeights, limit int, minRelevance float64) ([]Memory, error)
}

// StorageGateway is the narrow interface the core consumes. It is the only
// contract the storage driver must satisfy; optional capabilities are
// obtained via the Maybe* typed down-casts rather than duck-typed method
// probes (spec.md §9's "dynamic storage shape" redesign flag).
type StorageGateway interface {
	Store(ctx context.Context, userID, agentID string, m *Memory) error
	Recall(ctx context.Context, userID, agentID, query string, opts RecallFilter) ([]Memory, error)
	GetByID(ctx context.Context, userID, id string) (*Memory, error)
	GetByType(ctx context.Context, userID, agentID string, t MemoryType, opts ByTypeFilter) ([]Memory, error)
	Delete(ctx context.Context, userID, agentID, id string) error
	GetStats(ctx context.Context, userID string, agentID *string) (Stats, error)
	CreateConnections(ctx context.Context, userID string, edges []MemoryConnection) error

	MaybeDecay() (DecayCapability, bool)
	MaybeConnectionLookup() (ConnectionLookupCapability, bool)
	MaybeHybridSearch() (HybridSearchCapability, bool)
}
