package uispec

// ResolvedNode mirrors Node with every binding expression replaced by
// its concrete value. Produced fresh per resolution pass and never
// mutated afterward.
type ResolvedNode struct {
	ID       string                       `json:"id"`
	Type     string                       `json:"type"`
	Props    map[string]any               `json:"props,omitempty"`
	Events   map[string]*ActionDescriptor `json:"events,omitempty"`
	Children []*ResolvedNode              `json:"children,omitempty"`
}

// FindByID returns the resolved node with the given id, or nil.
func (n *ResolvedNode) FindByID(id string) *ResolvedNode {
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

// Visible reports whether the node should be presented. Nodes are
// visible unless a resolved "visible" prop says otherwise.
func (n *ResolvedNode) Visible() bool {
	if n == nil {
		return false
	}
	if v, ok := n.Props["visible"]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
		return v != nil && v != "" && v != "false"
	}
	return true
}
