package snapshot

import (
	"context"
	"testing"

	"loomui/internal/uispec"
)

func TestMemoryStore_SaveLoadList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, gen := range []uint64{3, 1, 2} {
		err := s.Save(ctx, Snapshot{
			SessionID:  "sess-a",
			Generation: gen,
			Goal:       "show tasks",
			Tree:       &uispec.Node{ID: "page", Type: "Container"},
		})
		if err != nil {
			t.Fatalf("save gen %d: %v", gen, err)
		}
	}
	if err := s.Save(ctx, Snapshot{SessionID: "sess-b", Generation: 1}); err != nil {
		t.Fatalf("save other session: %v", err)
	}

	snap, err := s.Load(ctx, "sess-a", 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Generation != 2 || snap.Tree == nil {
		t.Fatalf("wrong snapshot loaded: %+v", snap)
	}

	list, err := s.List(ctx, "sess-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(list))
	}
	for i, snap := range list {
		if snap.Generation != uint64(i+1) {
			t.Fatalf("list not ordered by generation: %v", list)
		}
	}
}

func TestMemoryStore_SaveOverwritesGeneration(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Save(ctx, Snapshot{SessionID: "sess", Generation: 1, Goal: "old"})
	_ = s.Save(ctx, Snapshot{SessionID: "sess", Generation: 1, Goal: "new"})

	snap, err := s.Load(ctx, "sess", 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Goal != "new" {
		t.Fatalf("overwrite lost: %+v", snap)
	}
	list, _ := s.List(ctx, "sess")
	if len(list) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(list))
	}
}

func TestMemoryStore_MissingSnapshot(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Load(context.Background(), "ghost", 1); err == nil {
		t.Fatal("missing snapshot must error")
	}
	list, err := s.List(context.Background(), "ghost")
	if err != nil || len(list) != 0 {
		t.Fatalf("unknown session should list empty: %v %v", list, err)
	}
}
