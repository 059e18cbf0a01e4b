package loom_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/loomhq/loom"
)

func TestRunEach(t *testing.T) {
	// Echo the placeholder back so each run's output is identifiable.
	client := loom.ClientFunc(func(ctx context.Context, system, user string) (string, error) {
		return "echo: " + user, nil
	})

	stages := []loom.Stage{
		{Name: "echo", Template: "{{.word}}"},
	}
	p, err := loom.New("echo", client, stages)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	params := make([]map[string]any, 5)
	for i := range params {
		params[i] = map[string]any{"word": fmt.Sprintf("w%d", i)}
	}

	results, err := loom.RunEach(context.Background(), p, params)
	if err != nil {
		t.Fatalf("RunEach() error: %v", err)
	}
	if len(results) != len(params) {
		t.Fatalf("results = %d, want %d", len(results), len(params))
	}

	for i, res := range results {
		want := fmt.Sprintf("echo: w%d", i)
		if res.Output != want {
			t.Errorf("result %d = %v, want %q", i, res.Output, want)
		}
		// Each invocation carries its own audit log.
		if res.Audit.Len() != 1 {
			t.Errorf("result %d audit length = %d, want 1", i, res.Audit.Len())
		}
		if j := i + 1; j < len(results) && results[i].Audit == results[j].Audit {
			t.Error("invocations shared an audit log")
		}
	}
}

func TestRunEachPropagatesFailure(t *testing.T) {
	boom := errors.New("endpoint down")
	client := loom.ClientFunc(func(ctx context.Context, system, user string) (string, error) {
		if strings.Contains(user, "bad") {
			return "", boom
		}
		return "ok", nil
	})

	p, err := loom.New("echo", client, []loom.Stage{{Name: "echo", Template: "{{.word}}"}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = loom.RunEach(context.Background(), p, []map[string]any{
		{"word": "fine"},
		{"word": "bad"},
	})
	if !errors.Is(err, boom) {
		t.Errorf("RunEach() error = %v, want wrapped %v", err, boom)
	}
}
