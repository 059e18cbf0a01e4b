// Package advisor wires the multi-step business advisor pipeline: generate
// a business idea for an industry, critique it, then extract the critique
// into a structured AnalysisReport. The two free-text stages are teed into
// the invocation's audit log; the report stage is schema-validated.
package advisor

import (
	"context"
	"fmt"

	"github.com/loomhq/loom"
)

// Stage prompt templates. Each stage's bridge renames the generic output
// key to the placeholder the next template expects.
const (
	ideaTemplate = "You are a startup expert and consultant. " +
		"Give an innovative business idea for the sector: {{.industry}}. " +
		"Give a name and a short concept."

	analysisTemplate = "Analyze this business idea. " +
		"Give 3 strengths and 3 weaknesses: {{.idea_text}}"

	reportTemplate = "Based on the following analysis: {{.analysed_output}}, " +
		"generate a formal structured report extracting only the key points."
)

// Advisor runs the business advisor pipeline for an industry.
type Advisor struct {
	pipeline *loom.Pipeline
}

// New builds the three-stage advisor pipeline over the given client.
func New(client loom.Client, opts ...loom.Option) (*Advisor, error) {
	schema, err := reportSchema()
	if err != nil {
		return nil, err
	}

	stages := []loom.Stage{
		{
			Name:     "idea",
			Template: ideaTemplate,
			Bridge:   loom.Rename(loom.OutputKey, "idea_text"),
		},
		{
			Name:     "analysis",
			Template: analysisTemplate,
			Bridge:   loom.Rename(loom.OutputKey, "analysed_output"),
		},
		{
			Name:     "report",
			Template: reportTemplate,
			Schema:   schema,
			Target:   func() any { return new(AnalysisReport) },
		},
	}

	pipeline, err := loom.New("business-advisor", client, stages, opts...)
	if err != nil {
		return nil, err
	}
	return &Advisor{pipeline: pipeline}, nil
}

// Pipeline exposes the underlying pipeline, e.g. for batch runs.
func (a *Advisor) Pipeline() *loom.Pipeline {
	return a.pipeline
}

// Run invokes the pipeline for one industry and returns the validated
// report alongside the invocation's audit log. On failure the report is
// nil but the audit log still holds the stages that completed.
func (a *Advisor) Run(ctx context.Context, industry string) (*AnalysisReport, *loom.AuditLog, error) {
	result, err := a.pipeline.Run(ctx, map[string]any{"industry": industry})
	if err != nil {
		return nil, result.Audit, err
	}

	report, ok := result.Output.(*AnalysisReport)
	if !ok {
		return nil, nil, fmt.Errorf("advisor: unexpected terminal output %T", result.Output)
	}
	return report, result.Audit, nil
}
