package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntelligenceConfig_Validate_Defaults(t *testing.T) {
	cfg := DefaultIntelligenceConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, MethodHybrid, cfg.ConnectionDetection.Method)
	assert.Equal(t, 50, cfg.ConnectionDetection.MaxRecentMemories)
}

func TestIntelligenceConfig_Validate_RejectsUnknownMethod(t *testing.T) {
	cfg := DefaultIntelligenceConfig()
	cfg.ConnectionDetection.Method = ConnectionDetectionMethod("nonsense")
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIntelligenceConfig_Validate_RejectsOutOfRangeMaxRecentMemories(t *testing.T) {
	cfg := DefaultIntelligenceConfig()
	cfg.ConnectionDetection.MaxRecentMemories = 5
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg2 := DefaultIntelligenceConfig()
	cfg2.ConnectionDetection.MaxRecentMemories = 1000
	assert.ErrorIs(t, cfg2.Validate(), ErrInvalidInput)
}

func TestIntelligenceConfig_Validate_RejectsOutOfRangeLLMTemperature(t *testing.T) {
	cfg := DefaultIntelligenceConfig()
	cfg.ConnectionDetection.LLMEnhancement.Enabled = true
	cfg.ConnectionDetection.LLMEnhancement.Temperature = 0.9
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}

func TestIntelligenceConfig_Validate_RejectsMisconfiguredRule(t *testing.T) {
	cfg := DefaultIntelligenceConfig()
	cfg.ConnectionDetection.UserRules.Patterns = []ConnectionRule{
		{ID: "r1", ConnectionType: ConnectionRelated},
	}
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrRuleMisconfigured)
}

func TestConnectionRule_Threshold_DefaultsWhenUnset(t *testing.T) {
	r := NewConnectionRule("r1", "name", "desc", ConnectionSimilar, 0.8)
	assert.Equal(t, 0.75, r.Threshold())
	assert.True(t, r.RequiresBothMemories)

	r.SemanticThreshold = 0.6
	assert.Equal(t, 0.6, r.Threshold())
}

func TestMemoryType_DefaultsAndPrefixes(t *testing.T) {
	assert.Equal(t, "wm", MemoryTypeWorking.TypePrefix())
	assert.Equal(t, 0.8, MemoryTypeWorking.DefaultImportance())
	assert.Equal(t, "ep", MemoryTypeEpisodic.TypePrefix())
	assert.True(t, ValidMemoryType("semantic"))
	assert.False(t, ValidMemoryType("bogus"))
}
