package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[uint64]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[uint64]Snapshot)}
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gens, ok := s.sessions[snap.SessionID]
	if !ok {
		gens = make(map[uint64]Snapshot)
		s.sessions[snap.SessionID] = gens
	}
	gens[snap.Generation] = snap
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string, generation uint64) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[sessionID][generation]
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot %s/%d not found", sessionID, generation)
	}
	return snap, nil
}

func (s *MemoryStore) List(_ context.Context, sessionID string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gens := s.sessions[sessionID]
	out := make([]Snapshot, 0, len(gens))
	for _, snap := range gens {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}
