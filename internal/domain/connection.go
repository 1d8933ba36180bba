package domain

// ConnectionType classifies the semantic relationship a directed edge encodes.
type ConnectionType string

const (
	ConnectionSimilar  ConnectionType = "similar"
	ConnectionRelated  ConnectionType = "related"
	ConnectionCauses   ConnectionType = "causes"
	ConnectionPartOf   ConnectionType = "part_of"
	ConnectionOpposite ConnectionType = "opposite"
)

func ValidConnectionType(t string) bool {
	switch ConnectionType(t) {
	case ConnectionSimilar, ConnectionRelated, ConnectionCauses, ConnectionPartOf, ConnectionOpposite:
		return true
	}
	return false
}

// ConnectionMetadata records provenance of a discovered edge.
type ConnectionMetadata struct {
	Method               string  `json:"method"` // fast_path | user_rule | llm | heuristic
	Confidence           float64 `json:"confidence"`
	EmbeddingSimilarity  float64 `json:"embeddingSimilarity"`
	LLMUsed              bool    `json:"llmUsed"`
	Algorithm            string  `json:"algorithm,omitempty"`
}

// MemoryConnection is a directed, typed, weighted edge between two memories
// belonging to the same user.
type MemoryConnection struct {
	ID             string             `json:"id"`
	UserID         string             `json:"userId"`
	SourceMemoryID string             `json:"sourceMemoryId"`
	TargetMemoryID string             `json:"targetMemoryId"`
	ConnectionType ConnectionType     `json:"connectionType"`
	Strength       float64            `json:"strength"`
	Reason         string             `json:"reason"`
	CreatedAt      int64              `json:"createdAt"`
	Metadata       ConnectionMetadata `json:"metadata"`
}

// ConnectionRule is evaluated at L1 of the progressive-enhancement ladder.
// A rule without SemanticDescription is rejected at config load time
// (ErrRuleMisconfigured) — there is no implicit regex fallback.
type ConnectionRule struct {
	ID                  string
	Name                string
	SemanticDescription string
	// semanticEmbedding caches the rule's embedding after first evaluation.
	semanticEmbedding    []float64
	ConnectionType       ConnectionType
	Confidence           float64
	SemanticThreshold    float64 // default 0.75 if zero
	RequiresBothMemories bool    // default true; set via NewConnectionRule
	Enabled              bool
}

// NewConnectionRule builds a rule with RequiresBothMemories defaulted to true,
// matching spec.md §3's "requiresBothMemories default true".
func NewConnectionRule(id, name, semanticDescription string, connType ConnectionType, confidence float64) ConnectionRule {
	return ConnectionRule{
		ID:                   id,
		Name:                 name,
		SemanticDescription:  semanticDescription,
		ConnectionType:       connType,
		Confidence:           confidence,
		RequiresBothMemories: true,
		Enabled:              true,
	}
}

// Threshold returns the configured threshold, defaulting to 0.75.
func (r *ConnectionRule) Threshold() float64 {
	if r.SemanticThreshold <= 0 {
		return 0.75
	}
	return r.SemanticThreshold
}

// CachedEmbedding returns the rule's cached semantic embedding, if computed.
func (r *ConnectionRule) CachedEmbedding() ([]float64, bool) {
	if r.semanticEmbedding == nil {
		return nil, false
	}
	return r.semanticEmbedding, true
}

// SetCachedEmbedding caches the rule's embedding for reuse across evaluations.
func (r *ConnectionRule) SetCachedEmbedding(v []float64) {
	r.semanticEmbedding = v
}

// Validate enforces that a rule has a semantic description. Called at
// config-load boundary; a rule failing this is a hard failure, never a
// silent fallback.
func (r *ConnectionRule) Validate() error {
	if r.SemanticDescription == "" {
		return ErrRuleMisconfigured
	}
	return nil
}
