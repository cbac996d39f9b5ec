package format_test

import (
	"strings"
	"testing"

	"github.com/thedatahub/arthub-core/pkg/format"
)

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Unit_BuiltinsRegistered(t *testing.T) {
	registry := format.DefaultRegistry()

	for _, name := range []string{"dc", "marc", "mods", "lido", "generic", "raw"} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("built-in handler %q not registered", name)
		}
	}
}

func TestRegistry_Unit_CreateUnknown(t *testing.T) {
	_, err := format.DefaultRegistry().Create("nope")
	if err == nil {
		t.Fatal("expected error for unknown handler name")
	}
	if !strings.Contains(err.Error(), "unknown format handler") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestRegistry_Unit_RegisterDuplicatePanics(t *testing.T) {
	registry := format.NewRegistry()
	registry.Register("custom", func() format.Handler { return &format.Raw{} })

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	registry.Register("custom", func() format.Handler { return &format.Raw{} })
}

func TestRegistry_Unit_CustomHandler(t *testing.T) {
	registry := format.NewRegistry()
	registry.Register("upper", func() format.Handler {
		return format.HandlerFunc(func(rec *format.RawRecord) (format.Record, error) {
			return format.Record{"id": strings.ToUpper(rec.Identifier)}, nil
		})
	})

	h, err := registry.Create("upper")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	out, err := h.Parse(&format.RawRecord{Identifier: "oai:x:1"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if out["id"] != "OAI:X:1" {
		t.Errorf("custom handler not applied, got %v", out["id"])
	}
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestResolve_Unit_PrefixInference(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{"oai_dc", "dc"},
		{"marcxml", "marc"},
		{"marc21", "marc"},
		{"mods", "mods"},
		{"lido", "lido"},
		{"oai_lido", "lido"},
		{"LIDO", "lido"},
		{"didl", "generic"},
		{"ese", "generic"},
		{"", "generic"},
	}
	for _, tc := range cases {
		if got := format.InferName(tc.prefix); got != tc.want {
			t.Errorf("InferName(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestResolve_Unit_ExplicitNameWins(t *testing.T) {
	h, err := format.Resolve("raw", "oai_dc")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := h.(*format.Raw); !ok {
		t.Errorf("expected raw handler, got %T", h)
	}
}

func TestResolve_Unit_UnknownNameFails(t *testing.T) {
	if _, err := format.Resolve("does-not-exist", "oai_dc"); err == nil {
		t.Fatal("expected error for unknown explicit handler name")
	}
}

func TestResolve_Unit_InferredHandlers(t *testing.T) {
	h, err := format.Resolve("", "oai_dc")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := h.(*format.DublinCore); !ok {
		t.Errorf("expected dc handler for oai_dc, got %T", h)
	}

	h, err = format.Resolve("", "mods")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := h.(*format.Mods); !ok {
		t.Errorf("expected mods handler for mods, got %T", h)
	}

	h, err = format.Resolve("", "unheard-of")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := h.(*format.Generic); !ok {
		t.Errorf("expected generic handler for unknown prefix, got %T", h)
	}
}
