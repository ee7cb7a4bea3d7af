// Package rendercache memoizes presentation output for resolved
// subtrees. Keys are structured composites compared by value: the same
// node id legitimately represents different visible states (a detail
// panel shown for item A vs. hidden with no selection), so node id
// alone can never address an entry. Invalidation is targeted and
// declared by the action router; the cache does no dependency
// tracking of its own.
package rendercache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// NoSelection is the selection-identity sentinel used when no data
// item is selected.
const NoSelection = "no-data-selected"

// Key addresses one cached subtree render.
type Key struct {
	NodeID     string
	Visible    bool
	SelectedID string
}

// KeyFor builds a key, substituting the NoSelection sentinel for an
// empty selection identity.
func KeyFor(nodeID string, visible bool, selectedID string) Key {
	if selectedID == "" {
		selectedID = NoSelection
	}
	return Key{NodeID: nodeID, Visible: visible, SelectedID: selectedID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%t:%s", k.NodeID, k.Visible, k.SelectedID)
}

// Cache is an LRU+TTL render cache. It is the only engine component
// with internal mutable shared state; the key scheme is the sole
// discipline preventing cross-talk between unrelated renders.
type Cache[V any] struct {
	lru *expirable.LRU[Key, V]
}

// New builds a cache. maxEntries <= 0 and ttl <= 0 fall back to
// defaults sized for one interactive session.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache[V]{lru: expirable.NewLRU[Key, V](maxEntries, nil, ttl)}
}

// Get returns the cached output for key, if present and fresh.
func (c *Cache[V]) Get(key Key) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	return c.lru.Get(key)
}

// Put stores output under key.
func (c *Cache[V]) Put(key Key, output V) {
	if c == nil {
		return
	}
	c.lru.Add(key, output)
}

// Invalidate drops exactly one key. Other keys, including other
// selection identities of the same node, are untouched.
func (c *Cache[V]) Invalidate(key Key) {
	if c == nil {
		return
	}
	c.lru.Remove(key)
}

// InvalidateNode drops every entry whose key names the given node id,
// across visibility and selection identities. Returns the number of
// entries dropped.
func (c *Cache[V]) InvalidateNode(nodeID string) int {
	if c == nil {
		return 0
	}
	dropped := 0
	for _, key := range c.lru.Keys() {
		if key.NodeID == nodeID {
			c.lru.Remove(key)
			dropped++
		}
	}
	return dropped
}

// Clear drops everything.
func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Len reports the number of live entries.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
