// Package uispec defines the planner-produced UI specification tree and
// the closed registry of node types it may be built from.
package uispec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionDescriptor maps a node event to a routed action.
type ActionDescriptor struct {
	Action  string         `json:"action"`
	Target  string         `json:"target,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Node is one unit of UI structure. Trees are immutable once ingested;
// transforms build new nodes instead of mutating in place.
type Node struct {
	ID       string                       `json:"id"`
	Type     string                       `json:"type"`
	Props    map[string]any               `json:"props,omitempty"`
	Bindings map[string]string            `json:"bindings,omitempty"`
	Events   map[string]*ActionDescriptor `json:"events,omitempty"`
	Children []*Node                      `json:"children,omitempty"`
}

// FindByID returns the node with the given id, or nil.
func (n *Node) FindByID(id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and every descendant in depth-first order. Returning
// false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Parse decodes a JSON document into a specification tree.
func Parse(raw []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse spec tree: %w", err)
	}
	return &root, nil
}

// Validate checks a tree at ingestion time: every node has an id, ids
// are unique across the whole tree, every node type is registered, and
// event entries carry an action kind. The render cache and event
// routing address nodes by id alone, so duplicates are rejected here.
func Validate(root *Node, reg *Registry) error {
	if root == nil {
		return fmt.Errorf("spec tree is empty")
	}
	seen := make(map[string]struct{})
	var verr error
	root.Walk(func(n *Node) bool {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			verr = fmt.Errorf("node of type %q has no id", n.Type)
			return false
		}
		if _, dup := seen[id]; dup {
			verr = fmt.Errorf("duplicate node id %q", id)
			return false
		}
		seen[id] = struct{}{}
		spec, ok := reg.Lookup(n.Type)
		if !ok {
			verr = fmt.Errorf("node %q: unregistered type %q", id, n.Type)
			return false
		}
		if len(n.Children) > 0 && !spec.Container {
			verr = fmt.Errorf("node %q: type %q does not take children", id, n.Type)
			return false
		}
		for kind, desc := range n.Events {
			if desc == nil || strings.TrimSpace(desc.Action) == "" {
				verr = fmt.Errorf("node %q: event %q has no action", id, kind)
				return false
			}
		}
		return true
	})
	return verr
}
