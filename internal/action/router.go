// Package action maps UI events, together with the node that raised
// them, onto state transitions: data context mutations, full replans,
// or partial subtree updates.
package action

import (
	"context"
	"fmt"
	"strings"

	"loomui/internal/datactx"
	"loomui/internal/event"
	"loomui/internal/rendercache"
	"loomui/internal/uispec"
)

// Action kinds understood by the router. The set is closed; anything
// else is a routing error.
const (
	KindSelectItem     = "select_item"
	KindClearSelection = "clear_selection"
	KindUpdateField    = "update_field"
	KindToggleField    = "toggle_field"
	KindReplan         = "replan"
	KindPartialUpdate  = "partial_update"
)

// Invalidator is the slice of the render cache the router needs to
// retire entries whose keys depend on data it mutated.
type Invalidator interface {
	Invalidate(rendercache.Key)
	InvalidateNode(string) int
}

// Result describes the transition an event routed to.
type Result struct {
	// Context is the (possibly replaced) data context.
	Context datactx.Context
	// Mutated reports whether Context differs from the input.
	Mutated bool
	// Replan requests a full planning cycle.
	Replan bool
	// PartialTarget, when non-empty, requests regeneration of just
	// that subtree.
	PartialTarget string
	// Invalidated lists the cache keys retired by this routing, for
	// observability.
	Invalidated []rendercache.Key
}

// Router routes events against the tree that was active when the
// event occurred. It holds no per-event state, so redelivery of the
// same event object routes to the same result.
type Router struct {
	cache Invalidator
}

func New(cache Invalidator) *Router {
	return &Router{cache: cache}
}

// Route looks up the action descriptor the originating node attached
// to the event's kind and applies it to the data context. A node
// without a descriptor for the event kind routes to a no-op. origin
// must come from the tree captured at event time, not the tree current
// at processing time.
func (r *Router) Route(ctx context.Context, ev event.UIEvent, origin *uispec.ResolvedNode, dc datactx.Context) (Result, error) {
	res := Result{Context: dc}
	if origin == nil {
		return res, fmt.Errorf("route %s: node %q not found in active tree", ev.Type, ev.NodeID)
	}
	desc := origin.Events[ev.Type]
	if desc == nil {
		return res, nil
	}
	payload := mergePayload(desc.Payload, ev.Payload)

	switch strings.TrimSpace(desc.Action) {
	case KindSelectItem:
		return r.selectItem(desc, payload, dc)
	case KindClearSelection:
		return r.clearSelection(desc, payload, dc)
	case KindUpdateField:
		return r.updateField(desc, payload, dc, false)
	case KindToggleField:
		return r.updateField(desc, payload, dc, true)
	case KindReplan:
		res.Replan = true
		return res, nil
	case KindPartialUpdate:
		target := strings.TrimSpace(desc.Target)
		if target == "" {
			return res, fmt.Errorf("route %s: partial_update without target", ev.Type)
		}
		res.PartialTarget = target
		return res, nil
	default:
		return res, fmt.Errorf("route %s on %q: unknown action kind %q", ev.Type, ev.NodeID, desc.Action)
	}
}

// selectItem sets the selection of a source to the item named in the
// payload and retires the target node's cache entries under both the
// previous and the new selection identity.
func (r *Router) selectItem(desc *uispec.ActionDescriptor, payload map[string]any, dc datactx.Context) (Result, error) {
	res := Result{Context: dc}
	source := payloadString(payload, "source")
	itemID := payloadString(payload, "itemId")
	if source == "" || itemID == "" {
		return res, fmt.Errorf("select_item: source and itemId are required")
	}
	item, ok := dc.FindItem(source, itemID)
	if !ok {
		return res, fmt.Errorf("select_item: source %q has no item %q", source, itemID)
	}
	entry, _ := dc.Entry(source)
	prevID := datactx.ItemID(entry.Selected)
	next, err := dc.WithSelected(source, item)
	if err != nil {
		return res, err
	}
	res.Context = next
	res.Mutated = true
	res.Invalidated = r.invalidateSelection(desc.Target, prevID, itemID)
	return res, nil
}

func (r *Router) clearSelection(desc *uispec.ActionDescriptor, payload map[string]any, dc datactx.Context) (Result, error) {
	res := Result{Context: dc}
	source := payloadString(payload, "source")
	if source == "" {
		return res, fmt.Errorf("clear_selection: source is required")
	}
	entry, ok := dc.Entry(source)
	if !ok {
		return res, fmt.Errorf("clear_selection: unknown source %q", source)
	}
	prevID := datactx.ItemID(entry.Selected)
	next, err := dc.WithSelected(source, nil)
	if err != nil {
		return res, err
	}
	res.Context = next
	res.Mutated = prevID != ""
	res.Invalidated = r.invalidateSelection(desc.Target, prevID, "")
	return res, nil
}

// updateField patches one field of an item (the selected item when the
// payload names none). With toggle set, the field's boolean value is
// flipped instead of taken from the payload.
func (r *Router) updateField(desc *uispec.ActionDescriptor, payload map[string]any, dc datactx.Context, toggle bool) (Result, error) {
	res := Result{Context: dc}
	source := payloadString(payload, "source")
	field := payloadString(payload, "field")
	if source == "" || field == "" {
		return res, fmt.Errorf("%s: source and field are required", desc.Action)
	}
	entry, ok := dc.Entry(source)
	if !ok {
		return res, fmt.Errorf("%s: unknown source %q", desc.Action, source)
	}
	itemID := payloadString(payload, "itemId")
	if itemID == "" {
		itemID = datactx.ItemID(entry.Selected)
	}
	if itemID == "" {
		return res, fmt.Errorf("%s: no item targeted and nothing selected in %q", desc.Action, source)
	}
	var value any
	if toggle {
		item, ok := dc.FindItem(source, itemID)
		if !ok {
			return res, fmt.Errorf("%s: source %q has no item %q", desc.Action, source, itemID)
		}
		b, _ := item[field].(bool)
		value = !b
	} else {
		value = payload["value"]
	}
	next, err := dc.WithItemPatched(source, itemID, datactx.Item{field: value})
	if err != nil {
		return res, err
	}
	res.Context = next
	res.Mutated = true
	if target := strings.TrimSpace(desc.Target); target != "" && r.cache != nil {
		res.Invalidated = append(res.Invalidated,
			rendercache.KeyFor(target, true, itemID),
			rendercache.KeyFor(target, false, itemID),
		)
		for _, k := range res.Invalidated {
			r.cache.Invalidate(k)
		}
	}
	return res, nil
}

// invalidateSelection retires the target node's entries for the
// selection identities a selection change touches: the outgoing one,
// the incoming one, and the no-selection state, each under both
// visibility values.
func (r *Router) invalidateSelection(target, prevID, nextID string) []rendercache.Key {
	target = strings.TrimSpace(target)
	if target == "" || r.cache == nil {
		return nil
	}
	ids := map[string]struct{}{rendercache.NoSelection: {}}
	if prevID != "" {
		ids[prevID] = struct{}{}
	}
	if nextID != "" {
		ids[nextID] = struct{}{}
	}
	var keys []rendercache.Key
	for id := range ids {
		for _, visible := range []bool{true, false} {
			k := rendercache.KeyFor(target, visible, id)
			r.cache.Invalidate(k)
			keys = append(keys, k)
		}
	}
	return keys
}

func mergePayload(static, runtime map[string]any) map[string]any {
	out := make(map[string]any, len(static)+len(runtime))
	for k, v := range static {
		out[k] = v
	}
	for k, v := range runtime {
		out[k] = v
	}
	return out
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
