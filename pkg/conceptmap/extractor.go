// Package conceptmap turns persona replies into mind-map nodes and edges.
package conceptmap

import (
	"context"
	"fmt"
	"strings"

	"mindstorm-be/pkg/llm"
)

// Concept is one proposal from the extraction step.
type Concept struct {
	Label      string   `json:"label"`
	ConnectsTo []string `json:"connects_to"`
}

type Extraction struct {
	Concepts []Concept `json:"concepts"`
}

// Extractor mines concepts from a reply given the labels already on the map.
type Extractor interface {
	Extract(ctx context.Context, content string, existing []string) (*Extraction, error)
}

const extractionInstructions = `You maintain the mind map of a group brainstorming session.
From the message below, extract at most 3 new key concepts, each a label of 1 to 4 words.
Do not propose a concept that is already on the map, even with different wording.
For each concept, list in "connects_to" the labels of existing map concepts it relates to, copied exactly.
Return an empty "concepts" list when the message adds nothing new.`

// ExtractionSchema is the structured-output contract of the extraction call.
func ExtractionSchema() *llm.Schema {
	concept := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"label":       {Type: llm.TypeString, Description: "short concept label"},
			"connects_to": llm.ArrayOf(&llm.Schema{Type: llm.TypeString}, 0, 0),
		},
		Required: []string{"label"},
	}
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"concepts": llm.ArrayOf(concept, 0, 0),
		},
		Required: []string{"concepts"},
	}
}

type LLMExtractor struct {
	provider llm.LLMProvider
}

func NewLLMExtractor(provider llm.LLMProvider) *LLMExtractor {
	return &LLMExtractor{provider: provider}
}

func (e *LLMExtractor) Extract(ctx context.Context, content string, existing []string) (*Extraction, error) {
	mapState := "The map is empty."
	if len(existing) > 0 {
		mapState = "Concepts already on the map:\n- " + strings.Join(existing, "\n- ")
	}

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: extractionInstructions},
		{Role: llm.RoleUser, Content: mapState + "\n\nMessage:\n" + content},
	}

	var out Extraction
	if err := e.provider.Structured(ctx, history, ExtractionSchema(), &out, llm.WithTemperature(0.2)); err != nil {
		return nil, fmt.Errorf("concept extraction: %w", err)
	}
	return &out, nil
}
