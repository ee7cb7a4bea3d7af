package binding

import (
	"testing"

	"loomui/internal/datactx"
	"loomui/internal/uispec"
)

func testContext() datactx.Context {
	return datactx.New(datactx.Item{"name": "ada"}).WithEntry("tasks", datactx.Entry{
		Data: []datactx.Item{
			{"id": "t1", "title": "one"},
			{"id": "t2", "title": "two"},
			{"id": "t3", "title": "three"},
			{"id": "t4", "title": "four"},
		},
	})
}

func testTree() *uispec.Node {
	return &uispec.Node{
		ID:   "page",
		Type: "Container",
		Children: []*uispec.Node{
			{ID: "tasks-list", Type: "ListView", Bindings: map[string]string{"items": "tasks"}},
			{ID: "greeting", Type: "Text", Bindings: map[string]string{"text": "Hello {{user.name}}, {{tasks.selected.title}} is open"}},
		},
	}
}

func TestResolve_PreservesShape(t *testing.T) {
	tree := testTree()
	resolved, _, err := Resolve(tree, testContext(), uispec.DefaultRegistry())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.ID != tree.ID || len(resolved.Children) != len(tree.Children) {
		t.Fatalf("shape changed: %+v", resolved)
	}
	for i, c := range tree.Children {
		if resolved.Children[i].ID != c.ID {
			t.Fatalf("child order changed at %d: %s != %s", i, resolved.Children[i].ID, c.ID)
		}
	}
}

func TestResolve_ListBindingCorrection(t *testing.T) {
	dc := testContext()
	reg := uispec.DefaultRegistry()

	bare, _, err := Resolve(testTree(), dc, reg)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	explicit := testTree()
	explicit.Children[0].Bindings["items"] = "tasks.data"
	qualified, _, err := Resolve(explicit, dc, reg)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	bareItems := bare.Children[0].Props["items"].([]datactx.Item)
	qualifiedItems := qualified.Children[0].Props["items"].([]datactx.Item)
	if len(bareItems) != 4 || len(qualifiedItems) != 4 {
		t.Fatalf("expected 4 rows, got %d and %d", len(bareItems), len(qualifiedItems))
	}
}

func TestResolve_MissingPathYieldsBlank(t *testing.T) {
	tree := &uispec.Node{ID: "n", Type: "Text", Bindings: map[string]string{"text": "ghost.data"}}
	resolved, rep, err := Resolve(tree, testContext(), uispec.DefaultRegistry())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Props["text"] != Blank {
		t.Fatalf("expected blank, got %v", resolved.Props["text"])
	}
	if len(rep.Unresolved) != 1 {
		t.Fatalf("expected one unresolved report, got %v", rep.Unresolved)
	}
}

func TestResolve_TemplatePlaceholdersResolveIndependently(t *testing.T) {
	resolved, rep, err := Resolve(testTree(), testContext(), uispec.DefaultRegistry())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	// tasks.selected is nil, so its placeholder goes blank while the
	// user placeholder still substitutes.
	got := resolved.Children[1].Props["text"]
	if got != "Hello ada,  is open" {
		t.Fatalf("unexpected template result: %q", got)
	}
	if len(rep.Unresolved) != 1 {
		t.Fatalf("expected the nil-selection placeholder reported, got %v", rep.Unresolved)
	}
}

func TestResolve_MalformedTemplateReported(t *testing.T) {
	tree := &uispec.Node{ID: "n", Type: "Text", Bindings: map[string]string{"text": "broken {{user.name"}}
	resolved, rep, err := Resolve(tree, testContext(), uispec.DefaultRegistry())
	if err != nil {
		t.Fatalf("malformed expression must not fail the pass: %v", err)
	}
	if len(rep.Malformed) != 1 {
		t.Fatalf("expected malformed report, got %v", rep.Malformed)
	}
	if resolved.Props["text"] != "broken {{user.name" {
		t.Fatalf("raw text should survive: %q", resolved.Props["text"])
	}
}

func TestCorrectListBindings_SharesUntouchedSubtrees(t *testing.T) {
	tree := testTree()
	out := CorrectListBindings(tree, testContext(), uispec.DefaultRegistry())
	if out == tree {
		t.Fatal("expected a rewritten root")
	}
	if out.Children[1] != tree.Children[1] {
		t.Fatal("non-list sibling should be shared by reference")
	}
	if out.Children[0].Bindings["items"] != "tasks.data" {
		t.Fatalf("binding not corrected: %v", out.Children[0].Bindings)
	}
	// A qualified binding is left alone entirely.
	explicit := testTree()
	explicit.Children[0].Bindings["items"] = "tasks.data"
	if got := CorrectListBindings(explicit, testContext(), uispec.DefaultRegistry()); got != explicit {
		t.Fatal("qualified binding should not trigger a rewrite")
	}
}
