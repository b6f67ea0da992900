package dedup

import (
	"strings"
	"testing"
)

func TestKeyGenerator_Deterministic(t *testing.T) {
	g := NewKeyGenerator("openfga_dedup")

	p1 := map[string]any{}
	p1["user"] = "user:anne"
	p1["relation"] = "viewer"
	p1["object"] = "document:budget"

	p2 := map[string]any{}
	p2["object"] = "document:budget"
	p2["relation"] = "viewer"
	p2["user"] = "user:anne"

	k1 := g.Generate("check", p1)
	k2 := g.Generate("check", p2)

	if k1 != k2 {
		t.Errorf("same content produced different keys: %q vs %q", k1, k2)
	}
}

func TestKeyGenerator_DistinctContent(t *testing.T) {
	g := NewKeyGenerator("openfga_dedup")

	tests := []struct {
		name   string
		op     string
		params map[string]any
	}{
		{
			name:   "different value",
			op:     "check",
			params: map[string]any{"user": "user:bob", "relation": "viewer", "object": "document:budget"},
		},
		{
			name:   "different key",
			op:     "check",
			params: map[string]any{"user": "user:anne", "rel": "viewer", "object": "document:budget"},
		},
		{
			name:   "different operation",
			op:     "list_objects",
			params: map[string]any{"user": "user:anne", "relation": "viewer", "object": "document:budget"},
		},
		{
			name:   "empty params",
			op:     "check",
			params: map[string]any{},
		},
	}

	base := g.Generate("check", map[string]any{"user": "user:anne", "relation": "viewer", "object": "document:budget"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if key := g.Generate(tt.op, tt.params); key == base {
				t.Errorf("expected distinct key for %s, got %q", tt.name, key)
			}
		})
	}
}

func TestKeyGenerator_Format(t *testing.T) {
	g := NewKeyGenerator("openfga_dedup")

	key := g.Generate("check", map[string]any{"user": "user:anne"})

	if !strings.HasPrefix(key, "openfga_dedup:check:") {
		t.Errorf("key %q missing namespace prefix", key)
	}

	hash := strings.TrimPrefix(key, "openfga_dedup:check:")
	if len(hash) != 32 {
		t.Errorf("hash %q is not a 128-bit hex string", hash)
	}
}

func TestKeyGenerator_UnserializableParams(t *testing.T) {
	g := NewKeyGenerator("openfga_dedup")

	params := map[string]any{"callback": func() {}}

	k1 := g.Generate("check", params)
	k2 := g.Generate("check", map[string]any{"signal": make(chan int)})

	// Unserializable content degrades to the empty form instead of failing,
	// so both collapse to the same key.
	if k1 != k2 {
		t.Errorf("fallback keys differ: %q vs %q", k1, k2)
	}

	if !strings.HasPrefix(k1, "openfga_dedup:check:") {
		t.Errorf("fallback key %q missing namespace prefix", k1)
	}
}
