package loom

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderError reports a prompt template that could not be rendered,
// typically because the state is missing a placeholder key. This is a
// configuration bug in the pipeline wiring, not bad user input, and is
// never retried.
type RenderError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("loom: stage %q: template render failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying template error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// parsePrompt parses a stage's prompt template. Missing keys error at
// render time rather than producing "<no value>".
func parsePrompt(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	return tmpl, nil
}

// renderPrompt executes a parsed template against a state snapshot.
func renderPrompt(tmpl *template.Template, stage string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &RenderError{Stage: stage, Err: err}
	}
	return buf.String(), nil
}
