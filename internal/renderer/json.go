package renderer

import (
	"context"
	"sort"

	"loomui/internal/rendercache"
	"loomui/internal/uispec"
)

// Widget is one node of the wire document the JSON adapter produces.
type Widget struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Events   []string       `json:"events,omitempty"`
	Visible  bool           `json:"visible"`
	Children []*Widget      `json:"children,omitempty"`
}

// KeyFunc computes the render-cache key for a resolved node. The
// engine supplies it, since selection identity lives in the data
// context the adapter never sees.
type KeyFunc func(n *uispec.ResolvedNode) rendercache.Key

// JSON lowers resolved trees into Widget documents. When built with a
// cache, subtrees of cacheable node types are memoized under the keys
// the engine computes; everything else is lowered fresh each pass.
type JSON struct {
	reg   *uispec.Registry
	cache *rendercache.Cache[Output]
	keys  KeyFunc
}

// NewJSON builds the adapter. cache and keys may both be nil to
// disable memoization.
func NewJSON(reg *uispec.Registry, cache *rendercache.Cache[Output], keys KeyFunc) *JSON {
	return &JSON{reg: reg, cache: cache, keys: keys}
}

func (j *JSON) Render(ctx context.Context, root *uispec.ResolvedNode, dispatch Dispatch) (Output, error) {
	return j.lower(root), nil
}

// RenderSubtree lowers one resolved subtree; the gateway uses it to
// build partial-update frames.
func (j *JSON) RenderSubtree(ctx context.Context, n *uispec.ResolvedNode) *Widget {
	return j.lower(n)
}

func (j *JSON) lower(n *uispec.ResolvedNode) *Widget {
	if n == nil {
		return nil
	}
	var key rendercache.Key
	cacheable := false
	if j.cache != nil && j.keys != nil {
		if spec, ok := j.reg.Lookup(n.Type); ok && spec.Cacheable {
			cacheable = true
			key = j.keys(n)
			if v, ok := j.cache.Get(key); ok {
				if w, ok := v.(*Widget); ok {
					return w
				}
			}
		}
	}
	w := &Widget{
		ID:      n.ID,
		Type:    n.Type,
		Props:   n.Props,
		Events:  eventKinds(n),
		Visible: n.Visible(),
	}
	for _, c := range n.Children {
		w.Children = append(w.Children, j.lower(c))
	}
	if cacheable {
		j.cache.Put(key, Output(w))
	}
	return w
}

// RenderPlaceholder produces a skeleton document: structure and types
// only, props replaced by a loading marker.
func (j *JSON) RenderPlaceholder(ctx context.Context, root *uispec.Node) (Output, error) {
	return placeholder(root), nil
}

func placeholder(n *uispec.Node) *Widget {
	if n == nil {
		return nil
	}
	w := &Widget{
		ID:      n.ID,
		Type:    n.Type,
		Props:   map[string]any{"loading": true},
		Visible: true,
	}
	for _, c := range n.Children {
		w.Children = append(w.Children, placeholder(c))
	}
	return w
}

// FindWidget returns the widget with the given id, or nil.
func FindWidget(root *Widget, id string) *Widget {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if found := FindWidget(c, id); found != nil {
			return found
		}
	}
	return nil
}

// ReplaceWidget swaps the widget with the given id for replacement,
// rebuilding only the parent chain along the touched path.
func ReplaceWidget(root *Widget, id string, replacement *Widget) (*Widget, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID == id {
		return replacement, true
	}
	for i, c := range root.Children {
		if nc, ok := ReplaceWidget(c, id, replacement); ok {
			clone := *root
			clone.Children = make([]*Widget, len(root.Children))
			copy(clone.Children, root.Children)
			clone.Children[i] = nc
			return &clone, true
		}
	}
	return root, false
}

func eventKinds(n *uispec.ResolvedNode) []string {
	if len(n.Events) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(n.Events))
	for k := range n.Events {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
