// Package temporal detects usage-pattern signals (peak hours, weekly
// rhythms, bursts, activity clusters) over a user's memory timestamps, with
// optional LLM summarization gated by count and budget.
package temporal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/costtracker"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/llm"
	"github.com/synapsehq/synapse/internal/logging"
)

// PatternKind classifies a detected temporal pattern.
type PatternKind string

const (
	PatternHourlyPeak PatternKind = "hourly_peak"
	PatternWeeklyPeak PatternKind = "weekly_peak"
	PatternBurst      PatternKind = "burst"
)

// Pattern is one detected temporal signal.
type Pattern struct {
	Kind         PatternKind
	Frequency    string // e.g. "14:00" for an hour, "Monday" for a weekday, a time range for a burst
	Count        int
	Confidence   float64
	Description  string // filled in by LLM enhancement when enabled, empty otherwise
	LLMGenerated bool   // true once Description came from the structured LLM, not left blank
}

const (
	minSamplesForDetection = 5
	burstWindow            = 30 * time.Minute
	burstMinCount          = 5
	minClusterSize         = 3
	clusterWindow          = 1 * time.Hour
	minLLMEnhancementCount = 20

	hourlyPeakMultiplier = 1.5
	hourlyConfidenceDiv  = 3.0
	hourlyConfidenceCap  = 0.9

	weeklyPeakMultiplier = 1.3
	weeklyConfidenceDiv  = 2.5
	weeklyConfidenceCap  = 0.85

	burstConfidenceCap = 0.8
)

// Analyzer detects temporal patterns over a slice of memory timestamps.
type Analyzer struct {
	llmFn domain.StructuredLLM
	costs costtracker.Tracker
	log   *zap.Logger
}

func NewAnalyzer(structuredLLM domain.StructuredLLM, costs costtracker.Tracker, log *zap.Logger) *Analyzer {
	return &Analyzer{llmFn: structuredLLM, costs: costs, log: log}
}

// AnalyzePatterns analyzes timestamps (ms epoch) and returns deduped
// patterns by (kind, frequency), keeping the highest-confidence entry per
// key and sorting the result by confidence descending. When cfg enables LLM
// enhancement and there's enough data and budget, each pattern gets a
// one-sentence Description from the configured StructuredLLM and is tagged
// LLMGenerated.
func (a *Analyzer) AnalyzePatterns(ctx context.Context, cfg domain.LLMEnhancementConfig, agentID string, timestampsMillis []int64) ([]Pattern, error) {
	if len(timestampsMillis) < minSamplesForDetection {
		return nil, nil
	}

	patterns := dedupe(append(append(
		detectHourlyPeaks(timestampsMillis),
		detectWeeklyPeaks(timestampsMillis)...),
		detectBursts(timestampsMillis)...))

	if !cfg.Enabled || a.llmFn == nil || len(timestampsMillis) < minLLMEnhancementCount {
		return patterns, nil
	}

	ok, err := a.costs.CheckBudget(ctx, agentID, cfg.CostPerOperation*float64(len(patterns)))
	if err != nil || !ok {
		if a.log != nil {
			a.log.Debug("skipping LLM temporal enhancement", logging.AgentField(agentID), zap.Error(err))
		}
		return patterns, nil
	}

	for i := range patterns {
		messages := llm.TemporalPatternMessages(string(patterns[i].Kind), patterns[i].Frequency)
		obj, usage, err := a.llmFn.GenerateObject(ctx, llm.TemporalPatternSchema, messages, cfg.Temperature)
		if err != nil {
			if a.log != nil {
				a.log.Warn("temporal pattern LLM enhancement failed", logging.AgentField(agentID), zap.Error(err))
			}
			continue
		}
		if desc, ok := obj["description"].(string); ok {
			patterns[i].Description = desc
			patterns[i].LLMGenerated = true
		}
		if usage != nil {
			cost := float64(usage.TotalTokens) * cfg.CostPerToken
			_ = a.costs.TrackExtraction(ctx, agentID, cost)
		}
	}
	return patterns, nil
}

// Sample pairs a memory's creation time with its keyword set; it is the
// input DetectActivityClusters uses to extract cluster topics.
type Sample struct {
	Millis   int64
	Keywords []string
}

// ActivityCluster is a contiguous run of memory activity within a 1-hour
// window, annotated with how dense it was and what it was about.
type ActivityCluster struct {
	StartMillis int64
	EndMillis   int64
	Count       int
	Intensity   float64
	Topics      []string
}

// DetectActivityClusters sorts samples by time, groups them into 1-hour
// windows, and keeps the windows with at least minClusterSize memories,
// ranked by intensity descending. Each cluster's topics are the union of up
// to 5 keywords drawn from its member samples.
func DetectActivityClusters(samples []Sample) []ActivityCluster {
	if len(samples) == 0 {
		return nil
	}
	sorted := append([]Sample(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Millis < sorted[j].Millis })

	windowMillis := clusterWindow.Milliseconds()
	var out []ActivityCluster
	start := 0
	for start < len(sorted) {
		end := start
		for end+1 < len(sorted) && sorted[end+1].Millis-sorted[start].Millis <= windowMillis {
			end++
		}
		count := end - start + 1
		if count >= minClusterSize {
			durationHours := float64(sorted[end].Millis-sorted[start].Millis) / float64(time.Hour.Milliseconds())
			if durationHours < 0.5 {
				durationHours = 0.5
			}
			out = append(out, ActivityCluster{
				StartMillis: sorted[start].Millis,
				EndMillis:   sorted[end].Millis,
				Count:       count,
				Intensity:   math.Min(1.0, float64(count)/durationHours/10),
				Topics:      clusterTopics(sorted[start : end+1]),
			})
		}
		start = end + 1
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Intensity > out[j].Intensity })
	return out
}

func clusterTopics(window []Sample) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, s := range window {
		for _, kw := range s.Keywords {
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			topics = append(topics, kw)
			if len(topics) >= 5 {
				return topics
			}
		}
	}
	return topics
}

func detectHourlyPeaks(timestamps []int64) []Pattern {
	counts := make(map[int]int)
	for _, ts := range timestamps {
		h := time.UnixMilli(ts).UTC().Hour()
		counts[h]++
	}
	return topBuckets(counts, func(h int) string { return fmt.Sprintf("%02d:00", h) }, PatternHourlyPeak,
		hourlyPeakMultiplier, hourlyConfidenceDiv, hourlyConfidenceCap)
}

func detectWeeklyPeaks(timestamps []int64) []Pattern {
	counts := make(map[int]int)
	for _, ts := range timestamps {
		d := int(time.UnixMilli(ts).UTC().Weekday())
		counts[d]++
	}
	return topBuckets(counts, func(d int) string { return time.Weekday(d).String() }, PatternWeeklyPeak,
		weeklyPeakMultiplier, weeklyConfidenceDiv, weeklyConfidenceCap)
}

// topBuckets returns buckets whose count exceeds thresholdMultiplier times
// the uniform-distribution expectation (the mean bucket count), each with
// confidence min(confidenceCap, count/mean/confidenceDivisor).
func topBuckets(counts map[int]int, label func(int) string, kind PatternKind, thresholdMultiplier, confidenceDivisor, confidenceCap float64) []Pattern {
	if len(counts) == 0 {
		return nil
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	mean := float64(total) / float64(len(counts))
	if mean == 0 {
		return nil
	}

	var out []Pattern
	for k, c := range counts {
		if float64(c) > mean*thresholdMultiplier {
			confidence := math.Min(confidenceCap, float64(c)/mean/confidenceDivisor)
			out = append(out, Pattern{Kind: kind, Frequency: label(k), Count: c, Confidence: confidence})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// detectBursts slides a 30-minute window forward through sorted timestamps.
// A window with at least burstMinCount memories emits one burst pattern;
// the scan then skips ahead by half the window's count instead of one
// position. A dense cluster can still emit a second, overlapping burst when
// its later half holds at least burstMinCount memories.
func detectBursts(timestamps []int64) []Pattern {
	sorted := append([]int64(nil), timestamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var out []Pattern
	windowMillis := burstWindow.Milliseconds()
	start := 0
	for start < len(sorted) {
		end := start
		for end+1 < len(sorted) && sorted[end+1]-sorted[start] <= windowMillis {
			end++
		}
		count := end - start + 1
		if count >= burstMinCount {
			from := time.UnixMilli(sorted[start]).UTC().Format(time.RFC3339)
			to := time.UnixMilli(sorted[end]).UTC().Format(time.RFC3339)
			out = append(out, Pattern{
				Kind:       PatternBurst,
				Frequency:  fmt.Sprintf("%s..%s", from, to),
				Count:      count,
				Confidence: math.Min(burstConfidenceCap, float64(count)/10),
			})
			skip := count / 2
			if skip < 1 {
				skip = 1
			}
			start += skip
			continue
		}
		start++
	}
	return out
}

// dedupe keeps the highest-confidence Pattern per (kind, frequency) key and
// sorts the survivors by confidence descending.
func dedupe(patterns []Pattern) []Pattern {
	best := make(map[string]Pattern, len(patterns))
	order := make([]string, 0, len(patterns))
	for _, p := range patterns {
		key := string(p.Kind) + "|" + p.Frequency
		cur, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = p
			continue
		}
		if p.Confidence > cur.Confidence {
			best[key] = p
		}
	}

	out := make([]Pattern, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}
