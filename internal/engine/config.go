package engine

import (
	"time"

	"loomui/internal/datactx"
	"loomui/internal/planner"
	"loomui/internal/snapshot"
	"loomui/internal/uispec"
)

// Config is the configuration surface the engine consumes. Start from
// DefaultConfig and override.
type Config struct {
	// EnablePartialUpdates allows bounded subtree updates; when off,
	// partial-update actions fall back to a full resolve and render.
	EnablePartialUpdates bool
	// Planning is handed through to every planner call.
	Planning planner.Config
	// UserContext seeds the reserved user entry of the data context.
	UserContext datactx.Item
	// DebugMode logs every system-event topic except the two noisy
	// per-interaction start topics (resolve_start, render_start).
	DebugMode bool

	// Registry is the closed node-type set trees are validated against.
	Registry *uispec.Registry
	// Snapshots, when set, archives every committed plan.
	Snapshots snapshot.Store
	// SessionID names this engine instance in snapshots and logs.
	SessionID string

	CacheEntries int
	CacheTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		EnablePartialUpdates: true,
		Registry:             uispec.DefaultRegistry(),
		CacheEntries:         256,
		CacheTTL:             5 * time.Minute,
	}
}

func (c Config) normalized() Config {
	if c.Registry == nil {
		c.Registry = uispec.DefaultRegistry()
	}
	if c.CacheEntries <= 0 {
		c.CacheEntries = 256
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	return c
}
