// Package snapshot archives every specification tree a session
// commits, keyed by plan generation, so sessions can be inspected and
// replayed after the fact.
package snapshot

import (
	"context"
	"time"

	"loomui/internal/uispec"
)

// Snapshot is one committed plan.
type Snapshot struct {
	SessionID  string       `json:"session_id"`
	Generation uint64       `json:"generation"`
	Goal       string       `json:"goal"`
	TakenAt    time.Time    `json:"taken_at"`
	Tree       *uispec.Node `json:"tree"`
}

// Store persists snapshots. Save overwrites silently; generations are
// monotonically increasing per session, so the latest generation is
// the current plan.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, sessionID string, generation uint64) (Snapshot, error)
	List(ctx context.Context, sessionID string) ([]Snapshot, error)
}
