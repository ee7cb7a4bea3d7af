// Package datactx holds the live data context bindings resolve
// against: named sources with schema, rows and selection state, plus a
// reserved user entry. Contexts are copy-on-write values; every update
// returns a new Context and entries are replaced wholesale, so
// consumers detect change by comparison, never by observing mutation.
package datactx

import (
	"fmt"
	"sort"
	"strings"
)

// UserSource is the reserved entry name carrying caller identity.
const UserSource = "user"

// Item is one row of a data source.
type Item = map[string]any

// FieldDescriptor describes one field of a source schema.
type FieldDescriptor struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// SchemaDescriptor describes the shape of a source's rows.
type SchemaDescriptor struct {
	Fields []FieldDescriptor `json:"fields,omitempty"`
}

// Entry is the state of one data source.
type Entry struct {
	Schema   SchemaDescriptor `json:"schema"`
	Data     []Item           `json:"data"`
	Selected Item             `json:"selected,omitempty"`
}

// Context maps source names to entries. The zero value is usable.
type Context struct {
	entries map[string]Entry
	user    Item
}

// New returns an empty context with the given user identity.
func New(user Item) Context {
	return Context{user: user}
}

// Entry returns the entry for a source.
func (c Context) Entry(name string) (Entry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// User returns the reserved identity entry.
func (c Context) User() Item { return c.user }

// Sources returns the source names in sorted order, user excluded.
func (c Context) Sources() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MeaningfullyPopulated reports whether resolution is worth running:
// at least one non-user entry, or a non-empty user entry.
func (c Context) MeaningfullyPopulated() bool {
	return len(c.entries) > 0 || len(c.user) > 0
}

func (c Context) clone() Context {
	out := Context{entries: make(map[string]Entry, len(c.entries)+1), user: c.user}
	for name, e := range c.entries {
		out.entries[name] = e
	}
	return out
}

// WithEntry returns a context with the entry for name replaced.
func (c Context) WithEntry(name string, e Entry) Context {
	out := c.clone()
	out.entries[strings.TrimSpace(name)] = e
	return out
}

// WithUser returns a context with the identity entry replaced.
func (c Context) WithUser(user Item) Context {
	out := c.clone()
	out.user = user
	return out
}

// WithSelected returns a context with the selection of a source set to
// item (nil clears it). The entry is replaced, not mutated.
func (c Context) WithSelected(name string, item Item) (Context, error) {
	e, ok := c.entries[name]
	if !ok {
		return c, fmt.Errorf("unknown data source %q", name)
	}
	e.Selected = item
	return c.WithEntry(name, e), nil
}

// WithItemPatched returns a context where the row of source name whose
// "id" field equals itemID has the given fields overwritten. The row
// slice and the row itself are copied; if the row is the current
// selection the selection follows the patch.
func (c Context) WithItemPatched(name, itemID string, fields Item) (Context, error) {
	e, ok := c.entries[name]
	if !ok {
		return c, fmt.Errorf("unknown data source %q", name)
	}
	idx := -1
	for i, row := range e.Data {
		if ItemID(row) == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c, fmt.Errorf("source %q has no item %q", name, itemID)
	}
	rows := make([]Item, len(e.Data))
	copy(rows, e.Data)
	patched := make(Item, len(rows[idx])+len(fields))
	for k, v := range rows[idx] {
		patched[k] = v
	}
	for k, v := range fields {
		patched[k] = v
	}
	rows[idx] = patched
	e.Data = rows
	if ItemID(e.Selected) == itemID {
		e.Selected = patched
	}
	return c.WithEntry(name, e), nil
}

// FindItem returns the row of a source with the given id.
func (c Context) FindItem(name, itemID string) (Item, bool) {
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	for _, row := range e.Data {
		if ItemID(row) == itemID {
			return row, true
		}
	}
	return nil, false
}

// ItemID extracts the identity of a row, empty when absent.
func ItemID(item Item) string {
	if item == nil {
		return ""
	}
	if v, ok := item["id"]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// Lookup walks a dotted path: the first segment names a source (or
// "user"), later segments index into the entry ("data", "selected",
// "schema") and then into row fields. The boolean reports whether the
// full path resolved.
func (c Context) Lookup(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	head := path[0]
	if head == UserSource {
		return lookupValue(c.user, path[1:])
	}
	e, ok := c.entries[head]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return e, true
	}
	switch path[1] {
	case "data":
		return lookupValue(e.Data, path[2:])
	case "selected":
		if e.Selected == nil {
			return nil, false
		}
		return lookupValue(e.Selected, path[2:])
	case "schema":
		return lookupValue(e.Schema, path[2:])
	default:
		return nil, false
	}
}

func lookupValue(v any, rest []string) (any, bool) {
	if len(rest) == 0 {
		return v, true
	}
	switch t := v.(type) {
	case map[string]any:
		inner, ok := t[rest[0]]
		if !ok {
			return nil, false
		}
		return lookupValue(inner, rest[1:])
	default:
		return nil, false
	}
}
