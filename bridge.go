package loom

import (
	"context"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Bridge reshapes the pipeline state between two stages so its keys match
// the next stage's template placeholders. Bridges are purely structural:
// they must not invoke the model or touch the audit log.
type Bridge func(ctx context.Context, state *State) error

// BridgeError reports a bridge whose required source key or path was
// absent from the state. Like RenderError, this is a configuration bug.
type BridgeError struct {
	Key string
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge: required key %q not found in state", e.Key)
}

// Rename moves the value under from to the key to. Renaming a key to
// itself is a no-op, so identity-shaped bridges are idempotent.
func Rename(from, to string) Bridge {
	return func(ctx context.Context, state *State) error {
		v, ok := state.Get(from)
		if !ok {
			return &BridgeError{Key: from}
		}
		if from == to {
			return nil
		}
		state.Set(to, v)
		state.Delete(from)
		return nil
	}
}

// Path extracts a value from the state with a JSONPath expression and
// stores it under to. The expression is parsed here so invalid paths
// surface at pipeline construction. A single match stores the value
// itself; multiple matches store the slice of values.
func Path(expr, to string) (Bridge, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("loom: invalid JSONPath %q: %w", expr, err)
	}

	return func(ctx context.Context, state *State) error {
		results := x.Get(state.Snapshot())
		if len(results) == 0 {
			return &BridgeError{Key: expr}
		}
		if len(results) == 1 {
			state.Set(to, results[0])
		} else {
			state.Set(to, results)
		}
		return nil
	}, nil
}

// Chain composes bridges left to right, stopping at the first error.
func Chain(bridges ...Bridge) Bridge {
	return func(ctx context.Context, state *State) error {
		for _, b := range bridges {
			if err := b(ctx, state); err != nil {
				return err
			}
		}
		return nil
	}
}
