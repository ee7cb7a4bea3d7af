package uispec

// Rewrite applies fn bottom-up and returns the resulting tree. fn must
// return its argument unchanged, or a replacement node; it must not
// mutate the argument. Subtrees fn leaves alone are shared by
// reference with the input tree, so only the parent chain along edited
// paths is rebuilt.
func Rewrite(root *Node, fn func(*Node) *Node) *Node {
	if root == nil {
		return nil
	}
	var children []*Node
	changed := false
	for i, c := range root.Children {
		rc := Rewrite(c, fn)
		if rc != c && !changed {
			children = make([]*Node, len(root.Children))
			copy(children, root.Children[:i])
			changed = true
		}
		if changed {
			children[i] = rc
		}
	}
	node := root
	if changed {
		clone := *root
		clone.Children = children
		node = &clone
	}
	return fn(node)
}

// WithBinding returns a copy of n with one binding replaced. The maps
// of the original node are never touched.
func (n *Node) WithBinding(prop, expr string) *Node {
	clone := *n
	clone.Bindings = make(map[string]string, len(n.Bindings))
	for k, v := range n.Bindings {
		clone.Bindings[k] = v
	}
	clone.Bindings[prop] = expr
	return &clone
}

// ReplaceSubtree returns a tree with the node identified by id swapped
// for replacement, sharing every untouched subtree. The second return
// reports whether the id was found.
func ReplaceSubtree(root *Node, id string, replacement *Node) (*Node, bool) {
	found := false
	out := Rewrite(root, func(n *Node) *Node {
		if n.ID == id {
			found = true
			return replacement
		}
		return n
	})
	return out, found
}
