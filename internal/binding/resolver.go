// Package binding resolves a specification tree against a data
// context, producing a resolved tree ready for presentation. It is
// pure with respect to its inputs and never fails a whole pass over a
// single bad expression: unresolvable paths turn into blanks and
// malformed templates are reported in the result.
package binding

import (
	"fmt"
	"strings"

	"loomui/internal/datactx"
	"loomui/internal/uispec"
)

// Blank is the value substituted for an unresolvable path binding, so
// trees still render with gaps instead of failing.
var Blank any = nil

// Report collects what went wrong during one resolution pass without
// interrupting it.
type Report struct {
	// Unresolved lists paths that did not resolve, as "nodeID.prop=expr".
	Unresolved []string
	// Malformed lists syntactically broken expressions; the raw text is
	// kept as the resolved value so the defect is visible in the UI.
	Malformed []string
}

// Resolve walks the tree root-to-leaf, substituting every binding
// expression with its concrete value. Sibling order and node identity
// are preserved exactly; resolution never adds, removes or reorders
// nodes. List-binding correction is applied first (see CorrectListBindings).
func Resolve(root *uispec.Node, dc datactx.Context, reg *uispec.Registry) (*uispec.ResolvedNode, *Report, error) {
	if root == nil {
		return nil, nil, fmt.Errorf("resolve: spec tree is empty")
	}
	rep := &Report{}
	corrected := CorrectListBindings(root, dc, reg)
	return resolveNode(corrected, dc, rep), rep, nil
}

func resolveNode(n *uispec.Node, dc datactx.Context, rep *Report) *uispec.ResolvedNode {
	out := &uispec.ResolvedNode{
		ID:     n.ID,
		Type:   n.Type,
		Events: n.Events,
	}
	if len(n.Props) > 0 || len(n.Bindings) > 0 {
		out.Props = make(map[string]any, len(n.Props)+len(n.Bindings))
	}
	for k, v := range n.Props {
		out.Props[k] = v
	}
	for prop, expr := range n.Bindings {
		val, ok := resolveExpression(expr, dc, rep)
		if !ok {
			rep.Unresolved = append(rep.Unresolved, fmt.Sprintf("%s.%s=%s", n.ID, prop, expr))
		}
		out.Props[prop] = val
	}
	if len(n.Children) > 0 {
		out.Children = make([]*uispec.ResolvedNode, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = resolveNode(c, dc, rep)
		}
	}
	return out
}

// resolveExpression evaluates either a dotted path or a template with
// {{path}} placeholders. The boolean reports whether everything in the
// expression resolved.
func resolveExpression(expr string, dc datactx.Context, rep *Report) (any, bool) {
	if strings.Contains(expr, "{{") || strings.Contains(expr, "}}") {
		return resolveTemplate(expr, dc, rep)
	}
	v, ok := dc.Lookup(splitPath(expr))
	if !ok {
		return Blank, false
	}
	return v, true
}

// resolveTemplate substitutes each {{path}} placeholder independently
// into the surrounding literal text. Missing placeholders become empty
// strings; unbalanced braces leave the rest of the text untouched and
// are recorded as malformed.
func resolveTemplate(expr string, dc datactx.Context, rep *Report) (any, bool) {
	var sb strings.Builder
	rest := expr
	allOK := true
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			if strings.Contains(rest, "}}") {
				rep.Malformed = append(rep.Malformed, expr)
				allOK = false
			}
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:open])
		rest = rest[open+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			rep.Malformed = append(rep.Malformed, expr)
			sb.WriteString("{{")
			sb.WriteString(rest)
			allOK = false
			break
		}
		path := strings.TrimSpace(rest[:end])
		rest = rest[end+2:]
		v, ok := dc.Lookup(splitPath(path))
		if !ok {
			allOK = false
			continue
		}
		sb.WriteString(stringify(v))
	}
	return sb.String(), allOK
}

// CorrectListBindings accommodates planners that bind a list node to a
// bare source name ("tasks") where the context entry wraps its rows
// under a data field: such bindings are rewritten to the qualified
// path ("tasks.data") before resolution. Untouched subtrees are shared
// with the input tree.
func CorrectListBindings(root *uispec.Node, dc datactx.Context, reg *uispec.Registry) *uispec.Node {
	return uispec.Rewrite(root, func(n *uispec.Node) *uispec.Node {
		spec, ok := reg.Lookup(n.Type)
		if !ok || !spec.ListLike {
			return n
		}
		out := n
		for prop, expr := range n.Bindings {
			if strings.Contains(expr, ".") || strings.Contains(expr, "{{") {
				continue
			}
			if _, known := dc.Entry(strings.TrimSpace(expr)); known {
				out = out.WithBinding(prop, strings.TrimSpace(expr)+".data")
			}
		}
		return out
	})
}

func splitPath(expr string) []string {
	parts := strings.Split(strings.TrimSpace(expr), ".")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
