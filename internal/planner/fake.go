package planner

import (
	"context"
	"fmt"

	"loomui/internal/uispec"
)

// Fake plans a deterministic master/detail layout from the request's
// data sources, for offline runs and tests. It also implements
// StreamPlanner, delivering the bare list skeleton as a provisional
// tree before the full layout.
type Fake struct{}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "FakePlanner" }

func (f *Fake) Plan(ctx context.Context, req Request) (*uispec.Node, error) {
	return f.build(req, false), nil
}

func (f *Fake) PlanStream(ctx context.Context, req Request, onProvisional func(*uispec.Node)) (*uispec.Node, error) {
	if onProvisional != nil {
		onProvisional(f.build(req, true))
	}
	return f.build(req, false), nil
}

// build produces one ListView per source, each wired to a DetailView
// through select_item. Skeleton trees omit the detail panels.
func (f *Fake) build(req Request, skeleton bool) *uispec.Node {
	root := &uispec.Node{
		ID:    "page",
		Type:  "Container",
		Props: map[string]any{"title": req.Goal},
	}
	for _, name := range req.Context.Sources() {
		detailID := name + "-detail"
		list := &uispec.Node{
			ID:   name + "-list",
			Type: "ListView",
			// Bare source name on purpose; the resolver's list-binding
			// correction qualifies it.
			Bindings: map[string]string{"items": name},
			Events: map[string]*uispec.ActionDescriptor{
				"click": {
					Action:  "select_item",
					Target:  detailID,
					Payload: map[string]any{"source": name},
				},
			},
		}
		root.Children = append(root.Children, list)
		if skeleton {
			continue
		}
		detail := &uispec.Node{
			ID:   detailID,
			Type: "DetailView",
			Bindings: map[string]string{
				"visible": fmt.Sprintf("%s.selected", name),
				"title":   fmt.Sprintf("{{%s.selected.title}}", name),
			},
			Children: []*uispec.Node{
				{
					ID:       detailID + "-body",
					Type:     "Text",
					Bindings: map[string]string{"text": fmt.Sprintf("{{%s.selected.description}}", name)},
				},
				{
					ID:   detailID + "-close",
					Type: "Button",
					Props: map[string]any{
						"label": "Close",
					},
					Events: map[string]*uispec.ActionDescriptor{
						"click": {
							Action:  "clear_selection",
							Target:  detailID,
							Payload: map[string]any{"source": name},
						},
					},
				},
			},
		}
		root.Children = append(root.Children, detail)
	}
	return root
}
