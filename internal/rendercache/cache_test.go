package rendercache

import (
	"testing"
	"time"
)

func TestCache_SelectionIdentitySeparatesEntries(t *testing.T) {
	c := New[string](16, time.Minute)
	c.Put(KeyFor("task-detail", true, "t1"), "render-a")
	c.Put(KeyFor("task-detail", true, "t2"), "render-b")

	if v, ok := c.Get(KeyFor("task-detail", true, "t1")); !ok || v != "render-a" {
		t.Fatalf("t1 entry wrong: %v %v", v, ok)
	}
	if v, ok := c.Get(KeyFor("task-detail", true, "t2")); !ok || v != "render-b" {
		t.Fatalf("t2 entry wrong: %v %v", v, ok)
	}
}

func TestCache_NoSelectionSentinel(t *testing.T) {
	k := KeyFor("task-detail", false, "")
	if k.SelectedID != NoSelection {
		t.Fatalf("sentinel not applied: %+v", k)
	}
	if k.String() != "task-detail:false:no-data-selected" {
		t.Fatalf("unexpected key string: %s", k)
	}
	shown := KeyFor("task-detail", true, "t2")
	if shown.String() != "task-detail:true:t2" {
		t.Fatalf("unexpected key string: %s", shown)
	}
	if k == shown {
		t.Fatal("hidden and shown states must not collide")
	}
}

func TestCache_InvalidateIsTargeted(t *testing.T) {
	c := New[int](16, time.Minute)
	k1 := KeyFor("a", true, "t1")
	k2 := KeyFor("a", true, "t2")
	k3 := KeyFor("b", true, "t1")
	c.Put(k1, 1)
	c.Put(k2, 2)
	c.Put(k3, 3)

	c.Invalidate(k1)
	if _, ok := c.Get(k1); ok {
		t.Fatal("k1 should be gone")
	}
	if _, ok := c.Get(k2); !ok {
		t.Fatal("k2 must survive invalidation of k1")
	}
	if _, ok := c.Get(k3); !ok {
		t.Fatal("k3 must survive invalidation of k1")
	}
}

func TestCache_InvalidateNodeDropsAllIdentities(t *testing.T) {
	c := New[int](16, time.Minute)
	c.Put(KeyFor("a", true, "t1"), 1)
	c.Put(KeyFor("a", false, ""), 2)
	c.Put(KeyFor("b", true, "t1"), 3)

	if n := c.InvalidateNode("a"); n != 2 {
		t.Fatalf("expected 2 dropped, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", c.Len())
	}
	if _, ok := c.Get(KeyFor("b", true, "t1")); !ok {
		t.Fatal("other node's entry must survive")
	}
}

func TestCache_NilReceiverIsInert(t *testing.T) {
	var c *Cache[int]
	if _, ok := c.Get(KeyFor("a", true, "")); ok {
		t.Fatal("nil cache returned a value")
	}
	c.Put(KeyFor("a", true, ""), 1)
	c.Invalidate(KeyFor("a", true, ""))
	c.Clear()
	if c.Len() != 0 || c.InvalidateNode("a") != 0 {
		t.Fatal("nil cache should be empty")
	}
}
