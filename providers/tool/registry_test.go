package tool

import (
	"context"
	"errors"
	"testing"
)

func handlerStub(context.Context, map[string]any) (any, error) { return "", nil }

// TestRegistry_Register covers registration validation: nil tool, empty name,
// duplicate name, and a FuncTool missing its handler are all rejected with
// the corresponding sentinel error.
func TestRegistry_Register(t *testing.T) {
	t.Run("valid tool", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&FuncTool{Name: "a", Handler: handlerStub}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Len() != 1 {
			t.Errorf("Len: got %d, want 1", r.Len())
		}
	})

	t.Run("nil tool", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(nil); !errors.Is(err, ErrNilTool) {
			t.Fatalf("expected ErrNilTool, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&FuncTool{Handler: handlerStub}); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName, got %v", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&FuncTool{Name: "a", Handler: handlerStub}); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		err := r.Register(&FuncTool{Name: "a", Handler: handlerStub})
		if !errors.Is(err, ErrDuplicateName) {
			t.Fatalf("expected ErrDuplicateName, got %v", err)
		}
		if r.Len() != 1 {
			t.Errorf("registry must be unchanged after rejection, Len=%d", r.Len())
		}
	})

	t.Run("missing handler", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&FuncTool{Name: "a"}); !errors.Is(err, ErrMissingHandler) {
			t.Fatalf("expected ErrMissingHandler, got %v", err)
		}
	})
}

// TestRegistry_Lookup verifies hit and miss behavior.
func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&FuncTool{Name: "get_weather", Handler: handlerStub}); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	if _, ok := r.Lookup("get_weather"); !ok {
		t.Error("expected lookup hit for registered tool")
	}
	if _, ok := r.Lookup("unknown"); ok {
		t.Error("expected lookup miss for unregistered name")
	}
}

// TestRegistry_Descriptions verifies that descriptions come back in
// registration order, and that an empty registry yields nil.
func TestRegistry_Descriptions(t *testing.T) {
	r := NewRegistry()
	if got := r.Descriptions(); got != nil {
		t.Errorf("empty registry: expected nil, got %v", got)
	}

	names := []string{"alpha", "beta", "gamma"}
	for _, name := range names {
		if err := r.Register(&FuncTool{Name: name, Handler: handlerStub}); err != nil {
			t.Fatalf("registration of %q failed: %v", name, err)
		}
	}

	descriptions := r.Descriptions()
	if len(descriptions) != len(names) {
		t.Fatalf("expected %d descriptions, got %d", len(names), len(descriptions))
	}
	for i, name := range names {
		if descriptions[i].Name != name {
			t.Errorf("descriptions[%d]: got %q, want %q (registration order)", i, descriptions[i].Name, name)
		}
	}
}
