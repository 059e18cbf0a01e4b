// Package yaml provides YAML-based pipeline definition support for loom.
// A definition lists the stages in order, each with its prompt template,
// an optional JSON Schema for the terminal record, and an optional bridge
// (key rename, JSONPath extraction, or Lua script).
package yaml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	goyaml "github.com/goccy/go-yaml"

	"github.com/loomhq/loom"
	"github.com/loomhq/loom/script"
)

// PipelineDefinition represents a complete pipeline defined in YAML.
type PipelineDefinition struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Version     string            `yaml:"version,omitempty"`
	Stages      []StageDefinition `yaml:"stages"`
}

// StageDefinition represents one stage in YAML format.
type StageDefinition struct {
	Name     string            `yaml:"name"`
	System   string            `yaml:"system,omitempty"`
	Template string            `yaml:"template"`
	Schema   map[string]any    `yaml:"schema,omitempty"`
	Bridge   *BridgeDefinition `yaml:"bridge,omitempty"`
}

// BridgeDefinition configures the bridge applied after a stage. Exactly
// one of the three forms may be used.
type BridgeDefinition struct {
	// Rename maps source keys to target keys.
	Rename map[string]string `yaml:"rename,omitempty"`

	// Path extracts a JSONPath expression into the key To.
	Path string `yaml:"path,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Script is inline Lua defining transform(state).
	Script string `yaml:"script,omitempty"`
}

// Parse reads and parses a pipeline definition.
func Parse(r io.Reader) (*PipelineDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}

	var def PipelineDefinition
	if err := goyaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseFile reads and parses a pipeline definition from a file.
func ParseFile(filename string) (*PipelineDefinition, error) {
	// #nosec G304 - definitions are user-provided files
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Validate checks the definition's structural invariants. Template syntax,
// schema compilation, and script validity are checked in Build.
func (pd *PipelineDefinition) Validate() error {
	if pd.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(pd.Stages) == 0 {
		return fmt.Errorf("at least one stage is required")
	}

	seen := make(map[string]bool, len(pd.Stages))
	for i, st := range pd.Stages {
		if st.Name == "" {
			return fmt.Errorf("stage %d: name is required", i)
		}
		if seen[st.Name] {
			return fmt.Errorf("duplicate stage name %q", st.Name)
		}
		seen[st.Name] = true

		if st.Template == "" {
			return fmt.Errorf("stage %q: template is required", st.Name)
		}
		if st.Bridge != nil {
			if err := st.Bridge.validate(); err != nil {
				return fmt.Errorf("stage %q: %w", st.Name, err)
			}
		}
	}
	return nil
}

func (bd *BridgeDefinition) validate() error {
	forms := 0
	if len(bd.Rename) > 0 {
		forms++
	}
	if bd.Path != "" {
		forms++
	}
	if bd.Script != "" {
		forms++
	}
	switch forms {
	case 0:
		return fmt.Errorf("bridge requires one of rename, path, or script")
	case 1:
		// ok
	default:
		return fmt.Errorf("bridge forms are mutually exclusive")
	}
	if bd.Path != "" && bd.To == "" {
		return fmt.Errorf("bridge path requires 'to'")
	}

	// A rename map has no inherent order, so a target that is also a
	// source would make the outcome depend on application order. Chained
	// renames need a script bridge instead.
	if len(bd.Rename) > 1 {
		sources := make(map[string]bool, len(bd.Rename))
		for from := range bd.Rename {
			sources[from] = true
		}
		for from, to := range bd.Rename {
			if from != to && sources[to] {
				return fmt.Errorf("rename target %q is also a rename source", to)
			}
		}
	}
	return nil
}

// Build compiles the definition into an executable pipeline over the
// given client. Structured stages decode into map[string]any.
func (pd *PipelineDefinition) Build(client loom.Client, opts ...loom.Option) (*loom.Pipeline, error) {
	stages := make([]loom.Stage, len(pd.Stages))
	for i, sd := range pd.Stages {
		stage := loom.Stage{
			Name:     sd.Name,
			System:   sd.System,
			Template: sd.Template,
		}

		if sd.Schema != nil {
			schema, err := loom.NewSchema(sd.Name, sd.Schema)
			if err != nil {
				return nil, fmt.Errorf("stage %q: %w", sd.Name, err)
			}
			stage.Schema = schema
		}

		if sd.Bridge != nil {
			bridge, err := sd.Bridge.build()
			if err != nil {
				return nil, fmt.Errorf("stage %q: %w", sd.Name, err)
			}
			stage.Bridge = bridge
		}

		stages[i] = stage
	}

	return loom.New(pd.Name, client, stages, opts...)
}

func (bd *BridgeDefinition) build() (loom.Bridge, error) {
	switch {
	case len(bd.Rename) > 0:
		froms := make([]string, 0, len(bd.Rename))
		for from := range bd.Rename {
			froms = append(froms, from)
		}
		sort.Strings(froms)

		bridges := make([]loom.Bridge, 0, len(froms))
		for _, from := range froms {
			bridges = append(bridges, loom.Rename(from, bd.Rename[from]))
		}
		if len(bridges) == 1 {
			return bridges[0], nil
		}
		return loom.Chain(bridges...), nil
	case bd.Path != "":
		return loom.Path(bd.Path, bd.To)
	case bd.Script != "":
		return script.Bridge(bd.Script)
	default:
		return nil, fmt.Errorf("bridge requires one of rename, path, or script")
	}
}
