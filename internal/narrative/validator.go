package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/insight/internal/core"
	"github.com/xeipuuv/gojsonschema"
)

// ExcerptLimit bounds how much raw model output is echoed back for diagnosis.
const ExcerptLimit = 800

// OutputError describes model output that does not satisfy the schema.
type OutputError struct {
	Reason   string
	Problems []string
	Excerpt  string
}

func (e *OutputError) Error() string {
	if len(e.Problems) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Problems, "; "))
}

func invalid(raw, reason string, problems ...string) error {
	return core.WrapError(core.ErrGeneration, &OutputError{
		Reason:   reason,
		Problems: problems,
		Excerpt:  Excerpt(raw, ExcerptLimit),
	})
}

// Validate parses raw model output and checks it against schema. Citations
// pointing at URLs outside the bundle's news are dropped. Any structural
// violation yields core.ErrGeneration wrapping an *OutputError.
func Validate(raw string, schema *Schema, bundle *core.FactBundle) (*core.NarrativeDocument, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, invalid(raw, "model returned empty output")
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, invalid(raw, "model returned invalid JSON", err.Error())
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, invalid(raw, "model output is not a JSON object")
	}

	result, err := schema.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, invalid(raw, "schema validation failed", err.Error())
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return nil, invalid(raw, "model output does not match schema "+schema.Version, problems...)
	}

	var out core.NarrativeDocument
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, invalid(raw, "decoding narrative", err.Error())
	}

	if problems := checkContent(&out); len(problems) > 0 {
		return nil, invalid(raw, "model output has empty fields", problems...)
	}

	out.Citations = knownCitations(out.Citations, bundle)
	out.Symbol = bundle.Symbol
	out.SchemaVersion = schema.Version
	return &out, nil
}

// checkContent catches what the schema cannot express portably across
// providers: blank strings.
func checkContent(d *core.NarrativeDocument) []string {
	var problems []string
	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "title is blank")
	}
	for i, s := range d.Sections {
		if strings.TrimSpace(s.Heading) == "" || strings.TrimSpace(s.Body) == "" {
			problems = append(problems, fmt.Sprintf("sections[%d] is blank", i))
		}
	}
	return problems
}

func knownCitations(in []core.Citation, bundle *core.FactBundle) []core.Citation {
	out := make([]core.Citation, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		if seen[c.URL] || !bundle.HasURL(c.URL) {
			continue
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	return out
}

// Excerpt returns at most limit bytes of s without splitting a rune.
func Excerpt(s string, limit int) string {
	return core.TruncateUTF8(s, limit)
}
