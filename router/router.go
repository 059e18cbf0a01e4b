// Package router implements the text-transform routing variant: an
// explicit action tag selects one of a closed set of named transformation
// nodes. An unrecognized action is a distinct, branchable outcome
// (ErrInvalidAction), never a silent pass-through of the input.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidAction is returned (wrapped) when a route request carries an
// action outside the registered set. Callers branch on it with errors.Is.
var ErrInvalidAction = errors.New("router: invalid action")

// Action tags a registered transformation.
type Action string

// Built-in actions.
const (
	ActionReverse Action = "reverse"
	ActionUpper   Action = "upper"
)

// Transform is a single transformation node.
type Transform func(ctx context.Context, input string) (string, error)

// Router dispatches an input string to the transform registered for an
// action.
type Router struct {
	mu     sync.RWMutex
	routes map[Action]Transform
}

// New creates a router with the built-in reverse and upper transforms
// registered.
func New() *Router {
	r := &Router{
		routes: make(map[Action]Transform),
	}
	r.Register(ActionReverse, Reverse)
	r.Register(ActionUpper, Upper)
	return r
}

// Register adds or replaces the transform for an action.
func (r *Router) Register(action Action, fn Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[action] = fn
}

// Actions returns the registered actions in sorted order.
func (r *Router) Actions() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Action, 0, len(r.routes))
	for a := range r.routes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Route applies the transform registered for action to input. An unknown
// action returns an error wrapping ErrInvalidAction.
func (r *Router) Route(ctx context.Context, input string, action Action) (string, error) {
	r.mu.RLock()
	fn, ok := r.routes[action]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return fn(ctx, input)
}

// Reverse reverses the input string, rune by rune.
func Reverse(ctx context.Context, input string) (string, error) {
	runes := []rune(input)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

// Upper converts the input string to upper case.
func Upper(ctx context.Context, input string) (string, error) {
	return strings.ToUpper(input), nil
}
