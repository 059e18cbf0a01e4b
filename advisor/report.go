package advisor

import "github.com/loomhq/loom"

// AnalysisReport is the advisor's terminal record: the key points of the
// business analysis, extracted into two lists of short text strings.
type AnalysisReport struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Normalize applies the schema's declared defaults: a list the model
// omitted entirely becomes an empty slice, never nil. A list present with
// the wrong shape is rejected by schema validation before decoding, so
// this only ever fills absences.
func (r *AnalysisReport) Normalize() {
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Weaknesses == nil {
		r.Weaknesses = []string{}
	}
}

// reportSchema declares the shape the report stage's response must take.
func reportSchema() (*loom.Schema, error) {
	return loom.NewSchema("analysis_report", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"default":     []any{},
				"description": "List of the idea's core advantages",
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"default":     []any{},
				"description": "List of the idea's main risks/challenges",
			},
		},
	})
}
