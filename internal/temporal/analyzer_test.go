package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/costtracker"
	"github.com/synapsehq/synapse/internal/domain"
)

func TestAnalyzePatterns_TooFewSamplesReturnsNil(t *testing.T) {
	a := NewAnalyzer(nil, costtracker.NewMemoryTracker(), zap.NewNop())
	patterns, err := a.AnalyzePatterns(context.Background(), domain.LLMEnhancementConfig{}, "agent1", []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestAnalyzePatterns_DetectsHourlyPeak(t *testing.T) {
	a := NewAnalyzer(nil, costtracker.NewMemoryTracker(), zap.NewNop())

	base := time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC) // a Monday
	var timestamps []int64
	// Six memories at 14:00 UTC across six distinct days...
	for i := 0; i < 6; i++ {
		timestamps = append(timestamps, base.AddDate(0, 0, i).UnixMilli())
	}
	// ...and six more spread one-per-hour across other hours, so the noise
	// doesn't concentrate into a second competing peak.
	for h := 1; h <= 6; h++ {
		timestamps = append(timestamps, base.Add(time.Duration(h)*time.Hour).UnixMilli())
	}

	patterns, err := a.AnalyzePatterns(context.Background(), domain.LLMEnhancementConfig{}, "agent1", timestamps)
	require.NoError(t, err)

	var found *Pattern
	for i := range patterns {
		if patterns[i].Kind == PatternHourlyPeak && patterns[i].Frequency == "14:00" {
			found = &patterns[i]
		}
		assert.Empty(t, patterns[i].Description) // LLM enhancement disabled
		assert.False(t, patterns[i].LLMGenerated)
	}
	require.NotNil(t, found)
	assert.Greater(t, found.Confidence, 0.0)

	// Patterns come back sorted by confidence descending.
	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].Confidence, patterns[i].Confidence)
	}
}

func TestAnalyzePatterns_DetectsWeeklyPeak(t *testing.T) {
	a := NewAnalyzer(nil, costtracker.NewMemoryTracker(), zap.NewNop())

	// Several Mondays, plus a light scattering across the rest of the week so
	// Monday's share clears the 1.3x-mean threshold without being the only
	// populated bucket (which would make the "peak" trivial).
	var timestamps []int64
	monday := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		timestamps = append(timestamps, monday.AddDate(0, 0, 7*i).UnixMilli())
	}
	for d := 1; d <= 4; d++ {
		timestamps = append(timestamps, monday.AddDate(0, 0, d).UnixMilli())
	}

	patterns, err := a.AnalyzePatterns(context.Background(), domain.LLMEnhancementConfig{}, "agent1", timestamps)
	require.NoError(t, err)

	var found *Pattern
	for i := range patterns {
		if patterns[i].Kind == PatternWeeklyPeak && patterns[i].Frequency == "Monday" {
			found = &patterns[i]
		}
	}
	require.NotNil(t, found)
	assert.Greater(t, found.Confidence, 0.0)
	assert.LessOrEqual(t, found.Confidence, weeklyConfidenceCap)
}

func TestAnalyzePatterns_DetectsExactlyOneBurstWithHighConfidence(t *testing.T) {
	a := NewAnalyzer(nil, costtracker.NewMemoryTracker(), zap.NewNop())

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	var timestamps []int64
	for i := 0; i < 7; i++ {
		timestamps = append(timestamps, base.Add(time.Duration(i)*3*time.Minute).UnixMilli())
	}

	patterns, err := a.AnalyzePatterns(context.Background(), domain.LLMEnhancementConfig{}, "agent1", timestamps)
	require.NoError(t, err)

	var bursts []Pattern
	for _, p := range patterns {
		if p.Kind == PatternBurst {
			bursts = append(bursts, p)
		}
	}
	require.Len(t, bursts, 1)
	assert.Equal(t, 7, bursts[0].Count)
	assert.GreaterOrEqual(t, bursts[0].Confidence, 0.7)
}

func TestAnalyzePatterns_BelowBurstFloorYieldsNoBurst(t *testing.T) {
	a := NewAnalyzer(nil, costtracker.NewMemoryTracker(), zap.NewNop())

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	timestamps := []int64{
		base.UnixMilli(),
		base.Add(5 * time.Minute).UnixMilli(),
		base.Add(10 * time.Minute).UnixMilli(),
		base.Add(15 * time.Minute).UnixMilli(),
		// Far enough away to keep total samples at minSamplesForDetection
		// without joining the 15-minute cluster above.
		base.Add(5 * time.Hour).UnixMilli(),
	}

	patterns, err := a.AnalyzePatterns(context.Background(), domain.LLMEnhancementConfig{}, "agent1", timestamps)
	require.NoError(t, err)
	for _, p := range patterns {
		assert.NotEqual(t, PatternBurst, p.Kind)
	}
}

func TestDetectActivityClusters_GroupsDenseWindowWithTopics(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Millis: base.UnixMilli(), Keywords: []string{"deploy", "rollback"}},
		{Millis: base.Add(10 * time.Minute).UnixMilli(), Keywords: []string{"deploy"}},
		{Millis: base.Add(20 * time.Minute).UnixMilli(), Keywords: []string{"incident"}},
		{Millis: base.Add(3 * time.Hour).UnixMilli(), Keywords: []string{"unrelated"}},
	}

	clusters := DetectActivityClusters(samples)
	require.Len(t, clusters, 1)
	assert.Equal(t, 3, clusters[0].Count)
	assert.Greater(t, clusters[0].Intensity, 0.0)
	assert.LessOrEqual(t, clusters[0].Intensity, 1.0)
	assert.ElementsMatch(t, []string{"deploy", "rollback", "incident"}, clusters[0].Topics)
}

func TestDetectActivityClusters_BelowMinSizeIsDropped(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Millis: base.UnixMilli(), Keywords: []string{"a"}},
		{Millis: base.Add(10 * time.Minute).UnixMilli(), Keywords: []string{"b"}},
	}

	assert.Empty(t, DetectActivityClusters(samples))
}
