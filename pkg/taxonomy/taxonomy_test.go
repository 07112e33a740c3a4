package taxonomy

import (
	"errors"
	"reflect"
	"testing"
)

func testSeed() []SeedNode {
	return []SeedNode{
		{
			Key:   "persona",
			Label: "Persona",
			Color: "#e74c3c",
			Children: []SeedNode{
				{Key: "parte", Label: "Parte", Recognizable: true},
				{Key: "controparte", Label: "Controparte", Recognizable: true},
			},
		},
		{Key: "luogo", Label: "Luogo", Color: "#2980b9"},
		{Key: UnknownKey, Label: "Altro", Color: "#95a5a6"},
	}
}

func mustNew(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := New(testSeed())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tax
}

func TestNewRequiresUnknown(t *testing.T) {
	_, err := New([]SeedNode{{Key: "persona", Label: "Persona", Color: "#fff"}})
	if !errors.Is(err, ErrMissingUnknown) {
		t.Errorf("New() without UNKNOWN error = %v, want ErrMissingUnknown", err)
	}
}

func TestLookupFallsBackToUnknown(t *testing.T) {
	tax := mustNew(t)

	if got := tax.Lookup("parte"); got.NodeKey() != "parte" {
		t.Errorf("Lookup(parte) = %v", got)
	}
	if got := tax.Lookup("no-such-type"); got.NodeKey() != UnknownKey {
		t.Errorf("Lookup(missing) = %v, want UNKNOWN", got)
	}
}

func TestAncestorRoot(t *testing.T) {
	tax := mustNew(t)

	root := tax.AncestorRoot("controparte")
	if root.Key != "persona" || root.Color != "#e74c3c" {
		t.Errorf("AncestorRoot(controparte) = %+v", root)
	}

	if root := tax.AncestorRoot("luogo"); root.Key != "luogo" {
		t.Errorf("AncestorRoot(luogo) = %+v", root)
	}
}

func TestResolve(t *testing.T) {
	tax := mustNew(t)

	got := tax.Resolve("parte")
	if got.Color != "#e74c3c" || got.Node.NodeKey() != "parte" {
		t.Errorf("Resolve(parte) = %+v", got)
	}

	// UNKNOWN itself keeps the flat fallback color.
	if got := tax.Resolve(UnknownKey); got.Color != "#95a5a6" {
		t.Errorf("Resolve(UNKNOWN) color = %s", got.Color)
	}
}

func TestResolveUnknownKeyGetsGeneratedColor(t *testing.T) {
	tax := mustNew(t)

	first := tax.Resolve("xyz-unmapped")
	if first.Node.NodeKey() != UnknownKey {
		t.Errorf("Resolve(unmapped) node = %v, want UNKNOWN", first.Node)
	}
	if first.Color == "#95a5a6" || first.Color == "" {
		t.Errorf("Resolve(unmapped) color = %q, want a generated color", first.Color)
	}

	// Deterministic per key, distinct across keys.
	if again := tax.Resolve("xyz-unmapped"); again.Color != first.Color {
		t.Errorf("Resolve(unmapped) not stable: %s vs %s", again.Color, first.Color)
	}
	if other := tax.Resolve("other-unmapped"); other.Color == first.Color {
		t.Errorf("distinct unknown keys share color %s", first.Color)
	}
}

func TestResolveNeverPanics(t *testing.T) {
	tax := mustNew(t)
	for _, key := range []string{"", "persona", "PERSONA", "💥", UnknownKey, "a b c"} {
		got := tax.Resolve(key)
		if got.Color == "" {
			t.Errorf("Resolve(%q) produced empty color", key)
		}
	}
}

func TestPath(t *testing.T) {
	tax := mustNew(t)

	path := tax.Path("controparte")
	keys := make([]string, len(path))
	for i, n := range path {
		keys[i] = n.NodeKey()
	}
	if !reflect.DeepEqual(keys, []string{"persona", "controparte"}) {
		t.Errorf("Path(controparte) = %v", keys)
	}
}

func TestInsertUnknown(t *testing.T) {
	tax := mustNew(t)

	tax.InsertUnknown("court-order")
	node := tax.Lookup("court-order")
	child, ok := node.(Child)
	if !ok {
		t.Fatalf("InsertUnknown did not create a child node: %T", node)
	}
	if child.Parent != UnknownKey || child.Label != "Court-Order" || child.Recognizable {
		t.Errorf("InsertUnknown child = %+v", child)
	}

	// Known keys are never shadowed.
	tax.InsertUnknown("persona")
	if _, ok := tax.Lookup("persona").(Root); !ok {
		t.Errorf("InsertUnknown overwrote an existing key")
	}
}

func TestAddType(t *testing.T) {
	tax := mustNew(t)

	if err := tax.AddType(Child{Key: "avvocato", Label: "Avvocato", Parent: "persona"}); err != nil {
		t.Fatalf("AddType() error = %v", err)
	}
	if err := tax.AddType(Child{Key: "dup", Label: "Dup", Parent: "nope"}); err == nil {
		t.Errorf("AddType() with missing parent should fail")
	}
	if err := tax.AddType(Root{Key: "persona", Label: "Persona", Color: "#000"}); err == nil {
		t.Errorf("AddType() with duplicate key should fail")
	}
}

func TestDeleteTypeCascades(t *testing.T) {
	tax := mustNew(t)
	if err := tax.AddType(Child{Key: "avvocato", Label: "Avvocato", Parent: "parte"}); err != nil {
		t.Fatalf("AddType() error = %v", err)
	}

	removed, err := tax.DeleteType("persona")
	if err != nil {
		t.Fatalf("DeleteType() error = %v", err)
	}
	want := []string{"persona", "avvocato", "controparte", "parte"}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("DeleteType() removed = %v, want %v", removed, want)
	}
	for _, key := range want {
		if tax.Has(key) {
			t.Errorf("DeleteType() left %q in the taxonomy", key)
		}
	}

	if _, err := tax.DeleteType(UnknownKey); err == nil {
		t.Errorf("DeleteType(UNKNOWN) should fail")
	}
}

func TestTreeRoundTrip(t *testing.T) {
	tax := mustNew(t)
	tree := tax.Tree()

	rebuilt, err := New(tree)
	if err != nil {
		t.Fatalf("New(Tree()) error = %v", err)
	}
	if !reflect.DeepEqual(rebuilt.Tree(), tree) {
		t.Errorf("Tree() round trip diverged")
	}
}

func TestTitlecase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"persona", "Persona"},
		{"xyz-unmapped", "Xyz-Unmapped"},
		{"creative_work", "Creative_Work"},
		{"", ""},
		{"ALREADY", "ALREADY"},
	}
	for _, tt := range tests {
		if got := Titlecase(tt.in); got != tt.want {
			t.Errorf("Titlecase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
