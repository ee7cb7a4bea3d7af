package renderer

import (
	"context"
	"testing"
	"time"

	"loomui/internal/rendercache"
	"loomui/internal/uispec"
)

func resolvedTree() *uispec.ResolvedNode {
	return &uispec.ResolvedNode{
		ID:   "page",
		Type: "Container",
		Children: []*uispec.ResolvedNode{
			{
				ID:    "tasks-list",
				Type:  "ListView",
				Props: map[string]any{"items": []any{"a", "b"}},
				Events: map[string]*uispec.ActionDescriptor{
					"scroll": {Action: "partial_update", Target: "tasks-list"},
					"click":  {Action: "select_item", Target: "tasks-detail"},
				},
			},
			{
				ID:    "tasks-detail",
				Type:  "DetailView",
				Props: map[string]any{"visible": false},
			},
		},
	}
}

func TestJSON_RenderLowersTree(t *testing.T) {
	j := NewJSON(uispec.DefaultRegistry(), nil, nil)
	out, err := j.Render(context.Background(), resolvedTree(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := out.(*Widget)
	if doc.ID != "page" || len(doc.Children) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	list := doc.Children[0]
	if !list.Visible {
		t.Fatal("list should default to visible")
	}
	if len(list.Events) != 2 || list.Events[0] != "click" || list.Events[1] != "scroll" {
		t.Fatalf("event kinds not sorted: %v", list.Events)
	}
	if doc.Children[1].Visible {
		t.Fatal("detail must honor its visible prop")
	}
}

func TestJSON_CacheableSubtreesAreMemoized(t *testing.T) {
	cache := rendercache.New[Output](16, time.Minute)
	keys := func(n *uispec.ResolvedNode) rendercache.Key {
		return rendercache.KeyFor(n.ID, n.Visible(), "t1")
	}
	j := NewJSON(uispec.DefaultRegistry(), cache, keys)

	first, _ := j.Render(context.Background(), resolvedTree(), nil)
	second, _ := j.Render(context.Background(), resolvedTree(), nil)
	w1 := first.(*Widget)
	w2 := second.(*Widget)
	// Cacheable children come back as the same object; the container
	// root is lowered fresh each pass.
	if w1 == w2 {
		t.Fatal("root must not be cached")
	}
	if w1.Children[0] != w2.Children[0] || w1.Children[1] != w2.Children[1] {
		t.Fatal("cacheable subtrees should be served from cache")
	}

	cache.Invalidate(keys(resolvedTree().Children[0]))
	third, _ := j.Render(context.Background(), resolvedTree(), nil)
	w3 := third.(*Widget)
	if w3.Children[0] == w1.Children[0] {
		t.Fatal("invalidated subtree must be lowered fresh")
	}
	if w3.Children[1] != w1.Children[1] {
		t.Fatal("untouched subtree should stay cached")
	}
}

func TestJSON_RenderPlaceholderMarksLoading(t *testing.T) {
	j := NewJSON(uispec.DefaultRegistry(), nil, nil)
	out, err := j.RenderPlaceholder(context.Background(), &uispec.Node{
		ID:    "page",
		Type:  "Container",
		Props: map[string]any{"title": "real title"},
		Children: []*uispec.Node{
			{ID: "tasks-list", Type: "ListView", Bindings: map[string]string{"items": "tasks"}},
		},
	})
	if err != nil {
		t.Fatalf("placeholder: %v", err)
	}
	doc := out.(*Widget)
	if doc.Props["loading"] != true || doc.Props["title"] != nil {
		t.Fatalf("placeholder leaked props: %v", doc.Props)
	}
	if len(doc.Children) != 1 || doc.Children[0].ID != "tasks-list" {
		t.Fatalf("placeholder lost structure: %+v", doc)
	}
}

func TestReplaceWidget_SharesUntouchedSiblings(t *testing.T) {
	j := NewJSON(uispec.DefaultRegistry(), nil, nil)
	out, _ := j.Render(context.Background(), resolvedTree(), nil)
	doc := out.(*Widget)

	replacement := &Widget{ID: "tasks-detail", Type: "DetailView", Visible: true}
	next, ok := ReplaceWidget(doc, "tasks-detail", replacement)
	if !ok {
		t.Fatal("replace failed")
	}
	if next == doc {
		t.Fatal("touched path must be rebuilt")
	}
	if next.Children[0] != doc.Children[0] {
		t.Fatal("untouched sibling should be shared")
	}
	if next.Children[1] != replacement {
		t.Fatal("replacement not spliced")
	}
	if FindWidget(next, "tasks-detail") != replacement {
		t.Fatal("find should locate the replacement")
	}
	if _, ok := ReplaceWidget(doc, "ghost", replacement); ok {
		t.Fatal("unknown id must not replace anything")
	}
}
