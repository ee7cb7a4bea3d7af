package event

import (
	"context"
	"log"
	"sync"
)

// HookAll registers a hook for every event type. All-hooks run before
// type-specific hooks.
const HookAll = "all"

// HookContext exposes the original event to a hook and lets it stop
// the pipeline.
type HookContext struct {
	Event   UIEvent
	stopped bool
}

// PreventDefault halts further hook execution and suppresses
// forwarding of the event to the action router.
func (hc *HookContext) PreventDefault() { hc.stopped = true }

// Prevented reports whether a hook called PreventDefault.
func (hc *HookContext) Prevented() bool { return hc.stopped }

// Hook intercepts a UI event. Hooks run one at a time and are awaited
// in turn; an error or panic from one hook never stops the others.
type Hook func(ctx context.Context, hc *HookContext) error

// Pipeline runs caller-registered hooks over raised UI events.
type Pipeline struct {
	mu    sync.RWMutex
	hooks map[string][]Hook
}

func NewPipeline() *Pipeline {
	return &Pipeline{hooks: make(map[string][]Hook)}
}

// RegisterHook adds a hook for an event type, or for every type via
// HookAll. Hooks run in registration order.
func (p *Pipeline) RegisterHook(eventType string, h Hook) {
	if h == nil {
		return
	}
	p.mu.Lock()
	p.hooks[eventType] = append(p.hooks[eventType], h)
	p.mu.Unlock()
}

// ProcessEvent runs the all-hooks and then the type-specific hooks for
// ev. It returns true when the event should proceed to the action
// router, false when a hook prevented it.
func (p *Pipeline) ProcessEvent(ctx context.Context, ev UIEvent) bool {
	p.mu.RLock()
	chain := make([]Hook, 0, len(p.hooks[HookAll])+len(p.hooks[ev.Type]))
	chain = append(chain, p.hooks[HookAll]...)
	if ev.Type != HookAll {
		chain = append(chain, p.hooks[ev.Type]...)
	}
	p.mu.RUnlock()

	hc := &HookContext{Event: ev}
	for _, h := range chain {
		runHook(ctx, h, hc)
		if hc.stopped {
			return false
		}
	}
	return true
}

// runHook isolates a single hook: errors are logged, panics recovered,
// and the rest of the chain still runs.
func runHook(ctx context.Context, h Hook, hc *HookContext) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ui event hook panic (%s on %s): %v", hc.Event.Type, hc.Event.NodeID, r)
		}
	}()
	if err := h(ctx, hc); err != nil {
		log.Printf("ui event hook error (%s on %s): %v", hc.Event.Type, hc.Event.NodeID, err)
	}
}
