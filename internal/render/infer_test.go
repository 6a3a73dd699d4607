package render

import (
	"testing"

	"github.com/docforge/docforge-backend/internal/trace"
)

func TestInferBindsTopLevelSequences(t *testing.T) {
	payload := map[string]interface{}{
		"title": "Quarterly",
		"count": float64(3),
		"rows": []interface{}{
			map[string]interface{}{"name": "a"},
		},
		"tags": []interface{}{"x", "y"},
		"meta": map[string]interface{}{
			"nested": []interface{}{"should not bind"},
		},
	}

	cfg := NewConfig()
	rec := trace.NewRecorder()
	Infer(payload, cfg, rec)

	for _, field := range []string{"rows", "tags"} {
		if _, ok := cfg.Policy(field); !ok {
			t.Fatalf("expected policy bound for %q", field)
		}
	}
	for _, field := range []string{"title", "count", "meta", "nested"} {
		if _, ok := cfg.Policy(field); ok {
			t.Fatalf("unexpected policy bound for %q", field)
		}
	}
	if got := len(cfg.Fields()); got != 2 {
		t.Fatalf("expected 2 bindings, got %d: %v", got, cfg.Fields())
	}
	if len(rec.Entries()) != 2 {
		t.Fatalf("expected one trace entry per bound field, got %d", len(rec.Entries()))
	}
}

func TestInferKeepsExistingBindings(t *testing.T) {
	cfg := NewConfig().BindListExpand("manual")
	Infer(map[string]interface{}{"rows": []interface{}{}}, cfg, nil)

	if _, ok := cfg.Policy("manual"); !ok {
		t.Fatalf("pre-existing binding lost")
	}
	if _, ok := cfg.Policy("rows"); !ok {
		t.Fatalf("empty sequence should still bind")
	}
}

func TestInferNilInputs(t *testing.T) {
	// Must not panic.
	Infer(nil, NewConfig(), nil)
	Infer(map[string]interface{}{"rows": []interface{}{}}, nil, nil)
}
