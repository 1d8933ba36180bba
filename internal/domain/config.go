package domain

import "fmt"

// ConnectionDetectionMethod selects how far up the progressive-enhancement
// ladder discovery is allowed to climb.
type ConnectionDetectionMethod string

const (
	MethodEmbeddingOnly ConnectionDetectionMethod = "embedding-only"
	MethodUserRules     ConnectionDetectionMethod = "user-rules"
	MethodSmallLLM      ConnectionDetectionMethod = "small-llm"
	MethodHybrid        ConnectionDetectionMethod = "hybrid"
)

func validMethod(m ConnectionDetectionMethod) bool {
	switch m {
	case MethodEmbeddingOnly, MethodUserRules, MethodSmallLLM, MethodHybrid:
		return true
	}
	return false
}

type EmbeddingConfig struct {
	Enabled            bool
	Provider           string
	Model              string
	SimilarityThreshold float64 // default 0.7
	APIKey              string
}

type UserRulesConfig struct {
	Enabled  bool
	Patterns []ConnectionRule
}

type LLMEnhancementConfig struct {
	Enabled            bool
	Provider           string
	Model              string
	Temperature        float64 // 0.1..0.3
	MinConfidence       float64
	CostPerToken        float64
	CostPerOperation     float64
	FallbackToEmbedding bool // default true
}

type ConnectionDetectionConfig struct {
	Method            ConnectionDetectionMethod
	MaxRecentMemories int // 10..500, default 50
	UserRules         UserRulesConfig
	LLMEnhancement    LLMEnhancementConfig
}

type CostControlConfig struct {
	MaxLLMCallsPerBatch      int
	MonthlyBudget            float64 // math.Inf(1) disables the check
	PreferEmbeddingWhenSimilar bool
	TrackTokenUsage          bool
}

type RecallConfig struct {
	DefaultLimit        int
	MinRelevanceThreshold float64
	EnableCaching       bool
	CacheTTLMillis      int64
}

// ConsolidationConfig governs the background episodic→semantic promotion
// and semantic near-duplicate merge passes.
type ConsolidationConfig struct {
	SimilarityThreshold float64 // cosine bar above which semantic memories merge, default 0.92
	// PreserveOriginals keeps the source memories around after a promotion
	// or merge instead of deleting them once the derived memory is stored.
	PreserveOriginals bool
}

// IntelligenceConfig is the builder-style configuration the whole engine is
// wired from. Unknown/out-of-range fields are rejected by Validate at the
// boundary (config load / API construction), not deep inside the core.
type IntelligenceConfig struct {
	Embedding           EmbeddingConfig
	ConnectionDetection ConnectionDetectionConfig
	CostControl         CostControlConfig
	Recall              RecallConfig
	Consolidation       ConsolidationConfig
}

// DefaultIntelligenceConfig returns the documented defaults from spec.md §3.
func DefaultIntelligenceConfig() IntelligenceConfig {
	return IntelligenceConfig{
		Embedding: EmbeddingConfig{
			Enabled:             true,
			Provider:            "openai",
			Model:               "text-embedding-3-small",
			SimilarityThreshold: 0.7,
		},
		ConnectionDetection: ConnectionDetectionConfig{
			Method:            MethodHybrid,
			MaxRecentMemories: 50,
			UserRules:         UserRulesConfig{Enabled: false},
			LLMEnhancement: LLMEnhancementConfig{
				Enabled:             false,
				Temperature:         0.2,
				FallbackToEmbedding: true,
			},
		},
		CostControl: CostControlConfig{
			MaxLLMCallsPerBatch:        10,
			MonthlyBudget:              0, // 0 means "use math.Inf(1) explicitly to disable"; 0 itself means no spend allowed
			PreferEmbeddingWhenSimilar: true,
			TrackTokenUsage:            true,
		},
		Recall: RecallConfig{
			DefaultLimit:          20,
			MinRelevanceThreshold: 0.1,
			EnableCaching:         true,
			CacheTTLMillis:        5 * 60 * 1000,
		},
		Consolidation: ConsolidationConfig{
			SimilarityThreshold: 0.92,
			PreserveOriginals:   false,
		},
	}
}

// Validate enforces the recognized-options boundary from spec.md §3.
func (c *IntelligenceConfig) Validate() error {
	if c.ConnectionDetection.Method == "" {
		c.ConnectionDetection.Method = MethodHybrid
	}
	if !validMethod(c.ConnectionDetection.Method) {
		return fmt.Errorf("%w: unknown connectionDetection.method %q", ErrInvalidInput, c.ConnectionDetection.Method)
	}
	if c.ConnectionDetection.MaxRecentMemories == 0 {
		c.ConnectionDetection.MaxRecentMemories = 50
	}
	if c.ConnectionDetection.MaxRecentMemories < 10 || c.ConnectionDetection.MaxRecentMemories > 500 {
		return fmt.Errorf("%w: connectionDetection.maxRecentMemories must be in [10,500]", ErrInvalidInput)
	}
	if c.ConnectionDetection.LLMEnhancement.Enabled {
		t := c.ConnectionDetection.LLMEnhancement.Temperature
		if t < 0.1 || t > 0.3 {
			return fmt.Errorf("%w: llmEnhancement.temperature must be in [0.1,0.3]", ErrInvalidInput)
		}
	}
	if c.Embedding.SimilarityThreshold == 0 {
		c.Embedding.SimilarityThreshold = 0.7
	}
	for i := range c.ConnectionDetection.UserRules.Patterns {
		if err := c.ConnectionDetection.UserRules.Patterns[i].Validate(); err != nil {
			return err
		}
		if !ValidConnectionType(string(c.ConnectionDetection.UserRules.Patterns[i].ConnectionType)) {
			return fmt.Errorf("%w: unknown rule connectionType", ErrInvalidInput)
		}
	}
	if c.CostControl.MaxLLMCallsPerBatch <= 0 {
		c.CostControl.MaxLLMCallsPerBatch = 10
	}
	if c.Recall.DefaultLimit <= 0 {
		c.Recall.DefaultLimit = 20
	}
	if c.Recall.CacheTTLMillis <= 0 {
		c.Recall.CacheTTLMillis = 5 * 60 * 1000
	}
	if c.Consolidation.SimilarityThreshold == 0 {
		c.Consolidation.SimilarityThreshold = 0.92
	}
	return nil
}
