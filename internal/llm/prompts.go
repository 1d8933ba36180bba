package llm

import (
	"fmt"

	"github.com/synapsehq/synapse/internal/domain"
)

// ConnectionClassificationSchema is the StructuredLLM.GenerateObject shape
// used at the L2 step of connection discovery.
var ConnectionClassificationSchema = domain.ResponseSchema{
	Name: "connection_classification",
	Fields: []domain.SchemaField{
		{Name: "connectionType", Type: "enum", Enum: []string{"similar", "related", "causes", "part_of", "opposite"}, Required: true},
		{Name: "confidence", Type: "number", Required: true},
		{Name: "reason", Type: "string", Required: true},
	},
}

// ConnectionClassificationMessages builds the chat turns for classifying
// the relationship between two memories.
func ConnectionClassificationMessages(memoryA, memoryB string) []domain.Message {
	return []domain.Message{
		{
			Role: "system",
			Content: "You classify the semantic relationship between two memory entries belonging to " +
				"the same user. Only classify a connection if one genuinely exists.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Memory A: %s\n\nMemory B: %s\n\nWhat is the relationship, if any?",
				memoryA, memoryB),
		},
	}
}

// TemporalPatternSchema is the StructuredLLM.GenerateObject shape used for
// optional LLM enhancement of detected temporal patterns.
var TemporalPatternSchema = domain.ResponseSchema{
	Name: "temporal_pattern_summary",
	Fields: []domain.SchemaField{
		{Name: "label", Type: "string", Required: true},
		{Name: "description", Type: "string", Required: true},
	},
}

// TemporalPatternMessages builds the chat turns for summarizing a detected
// temporal pattern (a peak hour, a weekly rhythm, a burst) in plain language.
func TemporalPatternMessages(patternKind, evidence string) []domain.Message {
	return []domain.Message{
		{
			Role:    "system",
			Content: "You summarize a detected usage pattern for a memory system in one short sentence.",
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Pattern kind: %s\nEvidence: %s", patternKind, evidence),
		},
	}
}
