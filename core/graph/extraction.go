package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/siherrmann/retriever/core/provider"
)

// ExtractedEntity is one entity proposed by the extraction model.
type ExtractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"entity_type"`
	Description string `json:"description"`
}

// ExtractedRelationship is one relationship proposed by the extraction
// model, referring to entities by name.
type ExtractedRelationship struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	RelationType string  `json:"relation_type"`
	Weight       float64 `json:"weight"`
}

// Extraction is the structured result of one extraction call.
type Extraction struct {
	Entities      []ExtractedEntity      `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
}

// Extractor proposes knowledge graph entities and relationships from
// document text through a single generative model call.
type Extractor struct {
	generator provider.GenerativeProvider
}

// NewExtractor creates a new extractor. A nil generator yields an
// extractor that always returns an empty extraction.
func NewExtractor(generator provider.GenerativeProvider) *Extractor {
	return &Extractor{generator: generator}
}

// Extract runs the extraction model over the text. Non-parseable model
// output is treated as an empty extraction, never as an error; only the
// model call itself can fail. Relationship weights are clamped to [0,1]
// and default to 1.0, relationships with missing endpoints are dropped.
func (e *Extractor) Extract(ctx context.Context, text string) (*Extraction, error) {
	if e.generator == nil || strings.TrimSpace(text) == "" {
		return &Extraction{}, nil
	}

	answer, err := e.generator.Generate(ctx, buildExtractionPrompt(text))
	if err != nil {
		return nil, err
	}

	extraction := &Extraction{}
	if err := provider.DecodeModelJSON(answer, extraction); err != nil {
		// Malformed model output degrades to "no extraction"
		return &Extraction{}, nil
	}

	return sanitizeExtraction(extraction), nil
}

func sanitizeExtraction(extraction *Extraction) *Extraction {
	result := &Extraction{}

	names := map[string]bool{}
	for _, entity := range extraction.Entities {
		if strings.TrimSpace(entity.Name) == "" {
			continue
		}
		if entity.Type == "" {
			entity.Type = "concept"
		}
		names[entity.Name] = true
		result.Entities = append(result.Entities, entity)
	}

	for _, relationship := range extraction.Relationships {
		if !names[relationship.Source] || !names[relationship.Target] {
			continue
		}
		if relationship.RelationType == "" {
			relationship.RelationType = "related_to"
		}
		if relationship.Weight <= 0 || relationship.Weight > 1 {
			relationship.Weight = 1.0
		}
		result.Relationships = append(result.Relationships, relationship)
	}

	return result
}

func buildExtractionPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Extract the named entities and their relationships from the following text.\n")
	sb.WriteString("Respond with a single JSON object of the form:\n")
	sb.WriteString(`{"entities": [{"name": "...", "entity_type": "...", "description": "..."}], `)
	sb.WriteString(`"relationships": [{"source": "...", "target": "...", "relation_type": "...", "weight": 0.9}]}`)
	sb.WriteString("\nWeights are confidences between 0 and 1. Respond with JSON only.\n\n")
	sb.WriteString(fmt.Sprintf("Text:\n%s", text))
	return sb.String()
}
