package narrative

import (
	"encoding/json"
	"fmt"

	"github.com/newthinker/insight/internal/core"
	"github.com/xeipuuv/gojsonschema"
)

// Schema is a versioned structural contract for generated narratives. The
// same JSON bytes are sent to the model and used to validate its reply.
type Schema struct {
	Version      string
	Name         string
	Description  string
	MinSections  int
	MaxSections  int
	MaxCitations int
	Sentiments   []core.Sentiment
	JSON         json.RawMessage

	compiled *gojsonschema.Schema
}

// SchemaV1 is the current narrative contract.
var SchemaV1 = MustSchema("v1", 2, 6, 10)

// NewSchema builds and compiles a narrative schema with the given bounds.
func NewSchema(version string, minSections, maxSections, maxCitations int) (*Schema, error) {
	if minSections < 1 || maxSections < minSections {
		return nil, fmt.Errorf("invalid section bounds %d..%d", minSections, maxSections)
	}
	if maxCitations < 0 {
		return nil, fmt.Errorf("invalid citation bound %d", maxCitations)
	}

	sentiments := make([]string, 0, len(core.Sentiments()))
	for _, s := range core.Sentiments() {
		sentiments = append(sentiments, string(s))
	}

	doc := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":        map[string]any{"type": "string"},
			"updatedLabel": map[string]any{"type": "string"},
			"sentiment":    map[string]any{"type": "string", "enum": sentiments},
			"sections": map[string]any{
				"type":     "array",
				"minItems": minSections,
				"maxItems": maxSections,
				"items":    pair("heading", "body"),
			},
			"citations": map[string]any{
				"type":     "array",
				"maxItems": maxCitations,
				"items":    pair("label", "url"),
			},
		},
		"required": []string{"title", "updatedLabel", "sentiment", "sections", "citations"},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Schema{
		Version:      version,
		Name:         "insight",
		Description:  "A short, sourced explanation of why a stock is moving today.",
		MinSections:  minSections,
		MaxSections:  maxSections,
		MaxCitations: maxCitations,
		Sentiments:   core.Sentiments(),
		JSON:         raw,
		compiled:     compiled,
	}, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(version string, minSections, maxSections, maxCitations int) *Schema {
	s, err := NewSchema(version, minSections, maxSections, maxCitations)
	if err != nil {
		panic(err)
	}
	return s
}

func pair(a, b string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			a: map[string]any{"type": "string"},
			b: map[string]any{"type": "string"},
		},
		"required": []string{a, b},
	}
}
