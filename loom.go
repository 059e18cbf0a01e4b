// Package loom orchestrates multi-stage LLM pipelines: each stage renders a
// prompt template against a shared state, invokes a model endpoint, tees the
// raw response into an audit log, and bridges the state into the shape the
// next stage expects. The final stage may declare a JSON Schema, in which
// case its response is validated and decoded into a structured record
// instead of being returned as text.
//
// The pipeline is an explicit ordered list of Stage descriptors consumed by
// a single driver loop. Execution is strictly sequential and fail-fast: the
// first error aborts the remaining stages. Every invocation gets its own
// State and AuditLog, so independent invocations of the same Pipeline are
// safe to issue concurrently (see RunEach).
package loom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
)

// Common errors.
var (
	// ErrNoStages is returned when a pipeline is constructed without stages.
	ErrNoStages = errors.New("loom: pipeline has no stages")

	// ErrNoClient is returned when a pipeline is constructed without a client.
	ErrNoClient = errors.New("loom: client is required")
)

// OutputKey is the state key under which a free-text stage's response is
// stored before the stage's bridge runs.
const OutputKey = "output"

// Client is the model endpoint dependency: prompt text in, response text
// out. Implementations must not retry; transport and rate-limit failures
// propagate unchanged to the pipeline caller.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// Stage describes one model invocation: a prompt template, an optional
// output schema, and an optional bridge that reshapes the state for the
// next stage.
type Stage struct {
	// Name identifies the stage in errors, logs, and audit entries.
	Name string

	// System is an optional system prompt.
	System string

	// Template is the user prompt template. Placeholders ({{.key}}) are
	// resolved from the pipeline state; a missing key is a fatal
	// configuration error, not a runtime data error.
	Template string

	// Schema, when set, makes this a structured stage: the response is
	// validated against the schema and decoded instead of returned as
	// text. Structured stage results are not teed into the audit log.
	Schema *Schema

	// Target returns a fresh decode target for a structured stage's
	// response. When nil, the response decodes into map[string]any.
	Target func() any

	// Bridge, when set, runs after the stage completes to rename or
	// reshape state keys for the next stage's template.
	Bridge Bridge
}

// Phase is a step in a stage's lifecycle within the driver loop.
type Phase string

// Driver phases, in order of occurrence for each stage.
const (
	PhaseReady   Phase = "ready"
	PhaseInvoked Phase = "invoked"
	PhaseLogged  Phase = "logged"
	PhaseBridged Phase = "bridged"
	PhaseDone    Phase = "done"
	PhaseFailed  Phase = "failed"
)

// Progress reports a driver phase transition.
type Progress struct {
	Stage string // stage name, empty for pipeline-level phases
	Index int    // stage index, -1 for pipeline-level phases
	Phase Phase
	Err   error // set only for PhaseFailed
}

// ProgressCallback is invoked at each phase transition during Run.
type ProgressCallback func(Progress)

// pipelineOptions holds configuration for a Pipeline.
type pipelineOptions struct {
	logger     *slog.Logger
	onProgress ProgressCallback
}

// Option configures a Pipeline.
type Option func(*pipelineOptions)

// WithLogger attaches a structured logger to the driver.
func WithLogger(logger *slog.Logger) Option {
	return func(o *pipelineOptions) {
		o.logger = logger
	}
}

// WithProgress registers a callback invoked at each phase transition.
func WithProgress(cb ProgressCallback) Option {
	return func(o *pipelineOptions) {
		o.onProgress = cb
	}
}

// Pipeline executes an ordered list of stages against a model endpoint.
type Pipeline struct {
	name    string
	client  Client
	stages  []Stage
	prompts []*template.Template // parsed stage templates, same order as stages
	opts    pipelineOptions
}

// Result is the outcome of one pipeline invocation. On failure Output is
// nil but Audit and State still carry everything captured up to the
// failing stage.
type Result struct {
	// Output is the final stage's result: a validated record for a
	// structured stage, the raw response text otherwise. Nil when the
	// run failed.
	Output any

	// Audit is the invocation's append-only log of raw free-text stage
	// responses, in invocation order.
	Audit *AuditLog

	// State is the pipeline state as it stood when the last stage
	// finished or the run aborted.
	State *State
}

// New creates a pipeline from an ordered list of stages. Stage templates
// are parsed here so that placeholder syntax errors surface at
// construction time rather than mid-run.
func New(name string, client Client, stages []Stage, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	seen := make(map[string]bool, len(stages))
	prompts := make([]*template.Template, len(stages))
	for i, st := range stages {
		if st.Name == "" {
			return nil, fmt.Errorf("loom: stage %d has no name", i)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("loom: duplicate stage name %q", st.Name)
		}
		seen[st.Name] = true

		if st.Template == "" {
			return nil, fmt.Errorf("loom: stage %q has no template", st.Name)
		}
		tmpl, err := parsePrompt(st.Name, st.Template)
		if err != nil {
			return nil, fmt.Errorf("loom: stage %q: %w", st.Name, err)
		}
		prompts[i] = tmpl
	}

	p := &Pipeline{
		name:    name,
		client:  client,
		stages:  stages,
		prompts: prompts,
	}
	for _, opt := range opts {
		opt(&p.opts)
	}

	return p, nil
}

// Name returns the pipeline's identifier.
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns the number of stages in the pipeline.
func (p *Pipeline) Stages() int {
	return len(p.stages)
}
