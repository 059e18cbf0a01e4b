// Package script lets pipeline bridges be written in sandboxed Lua. A
// bridge script defines transform(state) taking the current state as a
// table and returning the table of keys the next stage should see. Only
// safe Lua libraries plus a few json/string helpers are available.
package script

import (
	"context"
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/loomhq/loom"
)

// Bridge compiles a Lua source into a loom.Bridge. The script must define
// transform(state); its returned table replaces the state's keys wholesale.
// The source is validated here so broken scripts fail at pipeline
// construction rather than mid-run.
func Bridge(source string) (loom.Bridge, error) {
	if err := validate(source); err != nil {
		return nil, err
	}

	return func(ctx context.Context, state *loom.State) error {
		replacement, err := run(source, state.Snapshot())
		if err != nil {
			return err
		}

		for _, k := range state.Keys() {
			if _, keep := replacement[k]; !keep {
				state.Delete(k)
			}
		}
		for k, v := range replacement {
			state.Set(k, v)
		}
		return nil
	}, nil
}

// validate loads the script and checks that transform is defined.
func validate(source string) error {
	l := lua.NewState()
	newSandbox(l)

	if err := lua.DoString(l, source); err != nil {
		return fmt.Errorf("script: %w", err)
	}

	l.Global("transform")
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeFunction {
		return fmt.Errorf("script: function 'transform' not defined")
	}
	return nil
}

// run executes transform(state) in a fresh sandboxed interpreter. Each
// call gets its own lua.State, so concurrent pipeline invocations sharing
// one bridge never share interpreter state.
func run(source string, state map[string]any) (map[string]any, error) {
	l := lua.NewState()
	newSandbox(l)

	if err := lua.DoString(l, source); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}

	l.Global("transform")
	if l.TypeOf(-1) != lua.TypeFunction {
		l.Pop(1)
		return nil, fmt.Errorf("script: function 'transform' not defined")
	}

	pushValue(l, state)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return nil, fmt.Errorf("script: transform failed: %w", err)
	}

	result := pullValue(l, -1)
	l.Pop(1)

	table, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("script: transform must return a table, got %T", result)
	}
	return table, nil
}
