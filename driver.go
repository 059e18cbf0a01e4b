package loom

import (
	"context"
	"fmt"
	"time"
)

// Run executes the pipeline with the given initial parameters. Stages run
// strictly in sequence: render the prompt from the state, invoke the
// client, tee the raw response into the audit log (free-text stages), then
// bridge the state for the next stage. Any failure aborts the remaining
// stages and surfaces the causing error, tagged with the failing stage.
// The Result is returned even then, with a nil Output, so the entries
// audited before the failure stay reachable for debugging.
//
// A fresh State and AuditLog are created for every invocation, so a single
// Pipeline may be run concurrently from multiple goroutines.
func (p *Pipeline) Run(ctx context.Context, params map[string]any) (*Result, error) {
	state := NewState(params)
	audit := NewAuditLog()

	p.progress(Progress{Index: -1, Phase: PhaseReady})

	var output any
	for i, st := range p.stages {
		out, err := p.runStage(ctx, i, st, state, audit)
		if err != nil {
			p.progress(Progress{Stage: st.Name, Index: i, Phase: PhaseFailed, Err: err})
			return &Result{Audit: audit, State: state}, err
		}
		output = out
	}

	p.progress(Progress{Index: -1, Phase: PhaseDone})
	return &Result{Output: output, Audit: audit, State: state}, nil
}

// runStage executes one stage's invoke/log/bridge sequence.
func (p *Pipeline) runStage(ctx context.Context, i int, st Stage, state *State, audit *AuditLog) (any, error) {
	prompt, err := renderPrompt(p.prompts[i], st.Name, state.Snapshot())
	if err != nil {
		return nil, err
	}
	if st.Schema != nil {
		prompt = prompt + "\n\n" + st.Schema.Hint()
	}

	if p.opts.logger != nil {
		p.opts.logger.Debug("invoking stage", "pipeline", p.name, "stage", st.Name, "promptLen", len(prompt))
	}

	start := time.Now()
	response, err := p.client.Complete(ctx, st.System, prompt)
	if err != nil {
		// Endpoint errors propagate unchanged underneath the stage tag;
		// no local recovery or retry.
		return nil, fmt.Errorf("loom: stage %q: %w", st.Name, err)
	}
	p.progress(Progress{Stage: st.Name, Index: i, Phase: PhaseInvoked})

	if p.opts.logger != nil {
		p.opts.logger.Debug("stage completed", "pipeline", p.name, "stage", st.Name,
			"duration", time.Since(start), "responseLen", len(response))
	}

	var output any
	if st.Schema != nil {
		record, err := st.Schema.Coerce(response, st.Target)
		if err != nil {
			return nil, fmt.Errorf("loom: stage %q: %w", st.Name, err)
		}
		output = record
		state.Set(OutputKey, record)
	} else {
		// Tee: the same immutable response goes to both the audit log
		// and the pipeline state. The append completes before the next
		// stage can be invoked.
		audit.Append(Entry{Stage: st.Name, Raw: response, At: time.Now()})
		p.progress(Progress{Stage: st.Name, Index: i, Phase: PhaseLogged})
		output = response
		state.Set(OutputKey, response)
	}

	if st.Bridge != nil {
		if err := st.Bridge(ctx, state); err != nil {
			return nil, fmt.Errorf("loom: stage %q: %w", st.Name, err)
		}
		p.progress(Progress{Stage: st.Name, Index: i, Phase: PhaseBridged})
	}

	return output, nil
}

func (p *Pipeline) progress(pr Progress) {
	if p.opts.onProgress != nil {
		p.opts.onProgress(pr)
	}
}
