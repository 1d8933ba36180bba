package recall

import (
	"math"
	"strings"
	"time"

	"github.com/synapsehq/synapse/internal/domain"
)

// textScore is a cheap lexical overlap score: fraction of query terms that
// appear in the memory content, used as a non-embedding signal alongside
// the vector score so recall degrades gracefully without a hybrid-search
// storage adapter.
func textScore(query string, m domain.Memory) float64 {
	qTerms := tokenize(query)
	if len(qTerms) == 0 {
		return 0
	}
	content := strings.ToLower(m.Content)
	hits := 0
	for _, t := range qTerms {
		if strings.Contains(content, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(qTerms))
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// temporalScore favors recently created/accessed memories, halving every
// recencyHalfLife.
const recencyHalfLife = 7 * 24 * time.Hour

func temporalScore(m domain.Memory, now time.Time) float64 {
	last := time.UnixMilli(m.LastAccessedAt)
	age := now.Sub(last)
	if age < 0 {
		age = 0
	}
	halfLives := age.Seconds() / recencyHalfLife.Seconds()
	return math.Pow(0.5, halfLives)
}

// proceduralScore rewards procedural memories with a strong historical
// success rate; non-procedural memories score 0 on this signal.
func proceduralScore(m domain.Memory) float64 {
	if m.Type != domain.MemoryTypeProcedural {
		return 0
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
	if useCount == 0 {
		return 0.5 // untested procedure: neutral score
	}
	return float64(successCount) / float64(useCount)
}
