package loom

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaViolationError reports a structured stage's response that does not
// conform to its declared schema. The pipeline fails closed on violation:
// there is no fallback to a partially-filled record beyond the schema's
// own declared field defaults.
type SchemaViolationError struct {
	Schema string
	Causes []string
}

// Error implements the error interface.
func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("response violates schema %q: %s", e.Schema, strings.Join(e.Causes, "; "))
}

// Normalizer is implemented by decode targets that apply their declared
// field defaults after decoding (e.g. replacing absent lists with empty
// slices).
type Normalizer interface {
	Normalize()
}

// Schema is a compiled JSON Schema that a structured stage's response must
// conform to. The schema is also rendered into a prompt hint so the model
// is instructed to target it directly, pushing validation responsibility
// to the point of generation.
type Schema struct {
	name     string
	doc      []byte
	compiled *gojsonschema.Schema
}

// NewSchema compiles a JSON Schema document given as a plain map.
func NewSchema(name string, doc map[string]any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("loom: marshal schema %q: %w", name, err)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("loom: compile schema %q: %w", name, err)
	}

	return &Schema{name: name, doc: raw, compiled: compiled}, nil
}

// Name returns the schema's identifier.
func (s *Schema) Name() string {
	return s.name
}

// Hint returns the instruction appended to a structured stage's prompt.
func (s *Schema) Hint() string {
	return fmt.Sprintf(
		"Respond with a single JSON object conforming to this JSON Schema, and nothing else:\n%s",
		string(s.doc))
}

// Coerce validates a model response against the schema and decodes it into
// a fresh target (map[string]any when target is nil). Any shape mismatch
// is a *SchemaViolationError; a best-effort partial record is never
// returned silently.
func (s *Schema) Coerce(response string, target func() any) (any, error) {
	raw := ExtractJSON(response)
	if raw == "" {
		return nil, &SchemaViolationError{
			Schema: s.name,
			Causes: []string{"no JSON object found in response"},
		}
	}

	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("loom: validate against schema %q: %w", s.name, err)
	}
	if !result.Valid() {
		causes := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			causes = append(causes, desc.String())
		}
		return nil, &SchemaViolationError{Schema: s.name, Causes: causes}
	}

	var out any
	if target != nil {
		out = target()
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			return nil, &SchemaViolationError{
				Schema: s.name,
				Causes: []string{fmt.Sprintf("decode: %v", err)},
			}
		}
	} else {
		m := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, &SchemaViolationError{
				Schema: s.name,
				Causes: []string{fmt.Sprintf("decode: %v", err)},
			}
		}
		out = m
	}

	if n, ok := out.(Normalizer); ok {
		n.Normalize()
	}
	return out, nil
}

// ExtractJSON pulls the first complete JSON object out of a model
// response, tolerating markdown code fences and surrounding prose.
// Returns "" when no balanced object is present.
func ExtractJSON(s string) string {
	// Prefer fenced blocks when present.
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		}
	} else if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		}
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// skip structural characters inside strings
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
