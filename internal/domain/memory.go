// Package domain holds the core types the memory intelligence engine
// operates on: memories, connections between them, and the capability
// interfaces the engine requires from its external collaborators.
package domain

// MemoryType is one of the four memory kinds the engine models.
type MemoryType string

const (
	MemoryTypeWorking    MemoryType = "working"
	MemoryTypeEpisodic   MemoryType = "episodic"
	MemoryTypeSemantic   MemoryType = "semantic"
	MemoryTypeProcedural MemoryType = "procedural"
)

func ValidMemoryType(t string) bool {
	switch MemoryType(t) {
	case MemoryTypeWorking, MemoryTypeEpisodic, MemoryTypeSemantic, MemoryTypeProcedural:
		return true
	}
	return false
}

// TypePrefix returns the id prefix for a memory type (wm_, ep_, sm_, pm_).
func (t MemoryType) TypePrefix() string {
	switch t {
	case MemoryTypeWorking:
		return "wm"
	case MemoryTypeEpisodic:
		return "ep"
	case MemoryTypeSemantic:
		return "sm"
	case MemoryTypeProcedural:
		return "pm"
	default:
		return "mm"
	}
}

// DefaultImportance returns the type-defaulted initial importance (spec.md §3).
func (t MemoryType) DefaultImportance() float64 {
	switch t {
	case MemoryTypeWorking:
		return 0.8
	case MemoryTypeEpisodic:
		return 0.5
	case MemoryTypeSemantic:
		return 0.7
	case MemoryTypeProcedural:
		return 0.8
	default:
		return 0.5
	}
}

// Memory is a typed text record owned by a (userId, agentId) pair.
type Memory struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	AgentID        string         `json:"agentId"`
	Type           MemoryType     `json:"type"`
	Content        string         `json:"content"`
	Importance     float64        `json:"importance"`
	Resonance      float64        `json:"resonance"`
	AccessCount    int            `json:"accessCount"`
	CreatedAt      int64          `json:"createdAt"`
	UpdatedAt      int64          `json:"updatedAt"`
	LastAccessedAt int64          `json:"lastAccessedAt"`
	SessionID      string         `json:"sessionId,omitempty"`
	TokenCount     int            `json:"tokenCount"`
	Keywords       []string       `json:"keywords,omitempty"`
	EmbeddingID    string         `json:"embeddingId,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`

	// Embedding is the vector computed at write time. It is not part of the
	// wire representation — storage adapters that support vector search
	// persist it themselves (e.g. as a pgvector column) and never echo it
	// back out over JSON.
	Embedding []float64 `json:"-"`
}

// Clone returns a deep-enough copy for callers that mutate metadata/keywords
// without affecting the stored original (storage adapters should still own
// the authoritative copy).
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Keywords != nil {
		cp.Keywords = append([]string(nil), m.Keywords...)
	}
	if m.Metadata != nil {
		cp.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// MergeMetadata writes system-owned keys into m.Metadata, overriding any
// caller-supplied value of the same key (spec.md §3 invariant).
func (m *Memory) MergeMetadata(systemOwned map[string]any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any, len(systemOwned))
	}
	for k, v := range systemOwned {
		m.Metadata[k] = v
	}
}
