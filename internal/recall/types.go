package recall

import "github.com/synapsehq/synapse/internal/domain"

// Query is the input to RecallService.Recall.
type Query struct {
	UserID  string
	AgentID string
	Text    string
	Type    *domain.MemoryType
	Limit   int
}

// ScoredMemory is a recalled memory annotated with the per-signal scores
// that produced its FinalScore, for callers that want to explain a result.
type ScoredMemory struct {
	Memory         domain.Memory
	VectorScore    float64
	TextScore      float64
	TemporalScore  float64
	ProceduralScore float64
	GraphBoost     float64
	FinalScore     float64
	ExpandedFrom   string // non-empty if this result came from BFS expansion, not direct recall
}

// Weights controls the hybrid fusion formula. Defaults sum to 1.0 across
// the four direct signals; GraphBoost is additive on top.
type Weights struct {
	Vector     float64
	Text       float64
	Temporal   float64
	Procedural float64
}

// DefaultWeights matches the weighting described for hybrid recall fusion.
var DefaultWeights = Weights{Vector: 0.5, Text: 0.2, Temporal: 0.15, Procedural: 0.15}
