package loom_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/loomhq/loom"
)

func TestRename(t *testing.T) {
	ctx := context.Background()

	t.Run("moves value", func(t *testing.T) {
		s := loom.NewState(map[string]any{"output": "idea"})

		if err := loom.Rename("output", "idea_text")(ctx, s); err != nil {
			t.Fatalf("Rename error: %v", err)
		}

		if _, ok := s.Get("output"); ok {
			t.Error("source key still present")
		}
		if v, _ := s.Get("idea_text"); v != "idea" {
			t.Errorf("target = %v", v)
		}
	})

	t.Run("identity is idempotent", func(t *testing.T) {
		s := loom.NewState(map[string]any{"output": "idea", "extra": 1})
		before := s.Snapshot()

		bridge := loom.Rename("output", "output")
		for i := 0; i < 3; i++ {
			if err := bridge(ctx, s); err != nil {
				t.Fatalf("Rename error on pass %d: %v", i, err)
			}
		}

		if !reflect.DeepEqual(s.Snapshot(), before) {
			t.Errorf("identity rename changed state: %v", s.Snapshot())
		}
	})

	t.Run("missing source is fatal", func(t *testing.T) {
		s := loom.NewState(nil)

		err := loom.Rename("absent", "anywhere")(ctx, s)
		var bridgeErr *loom.BridgeError
		if !errors.As(err, &bridgeErr) {
			t.Fatalf("error = %v, want *BridgeError", err)
		}
		if bridgeErr.Key != "absent" {
			t.Errorf("Key = %q", bridgeErr.Key)
		}
	})
}

func TestPath(t *testing.T) {
	ctx := context.Background()

	t.Run("extracts nested value", func(t *testing.T) {
		s := loom.NewState(map[string]any{
			"output": map[string]any{"inner": "value"},
		})

		bridge, err := loom.Path("$.output.inner", "flat")
		if err != nil {
			t.Fatalf("Path() error: %v", err)
		}
		if err := bridge(ctx, s); err != nil {
			t.Fatalf("bridge error: %v", err)
		}

		if v, _ := s.Get("flat"); v != "value" {
			t.Errorf("flat = %v", v)
		}
	})

	t.Run("no match is fatal", func(t *testing.T) {
		s := loom.NewState(map[string]any{"output": "text"})

		bridge, err := loom.Path("$.missing.deeper", "out")
		if err != nil {
			t.Fatalf("Path() error: %v", err)
		}

		err = bridge(ctx, s)
		var bridgeErr *loom.BridgeError
		if !errors.As(err, &bridgeErr) {
			t.Fatalf("error = %v, want *BridgeError", err)
		}
	})

	t.Run("invalid expression fails at construction", func(t *testing.T) {
		if _, err := loom.Path("$[", "out"); err == nil {
			t.Error("Path() accepted an invalid expression")
		}
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	s := loom.NewState(map[string]any{"a": 1})

	bridge := loom.Chain(
		loom.Rename("a", "b"),
		loom.Rename("b", "c"),
	)
	if err := bridge(ctx, s); err != nil {
		t.Fatalf("Chain error: %v", err)
	}
	if v, _ := s.Get("c"); v != 1 {
		t.Errorf("c = %v", v)
	}

	// First failure stops the chain.
	err := loom.Chain(
		loom.Rename("missing", "x"),
		loom.Rename("c", "d"),
	)(ctx, s)
	if err == nil {
		t.Fatal("Chain() expected error")
	}
	if _, ok := s.Get("d"); ok {
		t.Error("bridge after failure still ran")
	}
}
