// Package engine owns the specification tree lifecycle: it feeds
// planner output and the data context through binding resolution and
// rendering, routes UI events to state transitions, and keeps one
// consistent view of what the UI currently is.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"loomui/internal/action"
	"loomui/internal/binding"
	"loomui/internal/datactx"
	"loomui/internal/event"
	"loomui/internal/planner"
	"loomui/internal/rendercache"
	"loomui/internal/renderer"
	"loomui/internal/schemadapter"
	"loomui/internal/snapshot"
	"loomui/internal/uispec"
)

// Engine orchestrates planning, resolution, rendering and event
// routing for one UI session. All operations are serialized; async
// planner completions are committed only if their generation is still
// current, so a superseding request wins and stale completions are
// discarded silently.
type Engine struct {
	cfg      Config
	planner  planner.Planner
	adapter  schemadapter.Adapter
	renderer renderer.Adapter

	pipeline *event.Pipeline
	bus      *event.Bus
	cache    *rendercache.Cache[renderer.Output]
	router   *action.Router

	sem chan struct{} // serializes all engine operations

	state    State
	errMsg   string
	goal     string
	gen      uint64
	dc       datactx.Context
	tree     *uispec.Node
	resolved *uispec.ResolvedNode
	output   renderer.Output
	// primarySource maps node id to the data source its bindings read,
	// for cache-key selection identity.
	primarySource map[string]string
}

// New builds an engine around a planner and a schema adapter. The
// component adapter is attached with SetRenderer before Initialize.
func New(p planner.Planner, sa schemadapter.Adapter, cfg Config) *Engine {
	cfg = cfg.normalized()
	if strings.TrimSpace(cfg.SessionID) == "" {
		cfg.SessionID = uuid.NewString()
	}
	e := &Engine{
		cfg:      cfg,
		planner:  p,
		adapter:  sa,
		pipeline: event.NewPipeline(),
		bus:      event.NewBus(),
		cache:    rendercache.New[renderer.Output](cfg.CacheEntries, cfg.CacheTTL),
		sem:      make(chan struct{}, 1),
		state:    StateInitializing,
	}
	e.router = action.New(e.cache)
	if cfg.DebugMode {
		e.subscribeDebugListeners()
	}
	return e
}

// subscribeDebugListeners logs every topic except resolve_start and
// render_start, which fire on every interaction.
func (e *Engine) subscribeDebugListeners() {
	for _, t := range event.SystemEventTypes {
		if t == event.SystemResolveStart || t == event.SystemRenderStart {
			continue
		}
		topic := t
		e.bus.Subscribe(topic, func(ev event.SystemEvent) {
			log.Printf("[%s] %s %v", e.cfg.SessionID, topic, ev.Fields)
		})
	}
}

// SetRenderer attaches the component adapter.
func (e *Engine) SetRenderer(ra renderer.Adapter) { e.renderer = ra }

// Bus exposes the system event bus for observability subscribers.
func (e *Engine) Bus() *event.Bus { return e.bus }

// Pipeline exposes the UI event hook pipeline for caller hooks.
func (e *Engine) Pipeline() *event.Pipeline { return e.pipeline }

// Cache exposes the render cache.
func (e *Engine) Cache() *rendercache.Cache[renderer.Output] { return e.cache }

func (e *Engine) SessionID() string { return e.cfg.SessionID }

func (e *Engine) lock()   { e.sem <- struct{}{} }
func (e *Engine) unlock() { <-e.sem }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.lock()
	defer e.unlock()
	return e.state
}

// ErrorMessage returns the retained message when the engine is in the
// error state.
func (e *Engine) ErrorMessage() string {
	e.lock()
	defer e.unlock()
	return e.errMsg
}

// Output returns the last committed presentation output.
func (e *Engine) Output() renderer.Output {
	e.lock()
	defer e.unlock()
	return e.output
}

// Context returns the current data context.
func (e *Engine) Context() datactx.Context {
	e.lock()
	defer e.unlock()
	return e.dc
}

// Tree returns the current specification tree.
func (e *Engine) Tree() *uispec.Node {
	e.lock()
	defer e.unlock()
	return e.tree
}

// Resolved returns the current resolved tree.
func (e *Engine) Resolved() *uispec.ResolvedNode {
	e.lock()
	defer e.unlock()
	return e.resolved
}

// Generation returns the current plan generation.
func (e *Engine) Generation() uint64 {
	e.lock()
	defer e.unlock()
	return e.gen
}

// Close disposes the engine; the bus drops its subscribers.
func (e *Engine) Close() {
	e.bus.Close()
	e.cache.Clear()
}

// setState moves the state machine and publishes the change. Illegal
// moves force the error state.
func (e *Engine) setState(to State, fields map[string]any) {
	from := e.state
	if !canTransition(from, to) {
		log.Printf("[%s] illegal state transition %s -> %s", e.cfg.SessionID, from, to)
		e.errMsg = fmt.Sprintf("illegal state transition %s -> %s", from, to)
		to = StateError
	}
	e.state = to
	if from == to {
		return
	}
	f := map[string]any{"from": string(from), "to": string(to)}
	for k, v := range fields {
		f[k] = v
	}
	e.bus.Publish(event.NewSystemEvent(event.SystemStateChange, f))
}

// setError transitions to the error state retaining a human-readable
// message. Recovery is only a fresh Initialize.
func (e *Engine) setError(msg string) {
	e.errMsg = msg
	e.setState(StateError, map[string]any{"message": msg})
	e.bus.Publish(event.NewSystemEvent(event.SystemError, map[string]any{"message": msg}))
}

// Initialize populates the data context from the schema adapter and
// runs the first planning cycle. It is also the recovery path out of
// the error state.
func (e *Engine) Initialize(ctx context.Context, goal string) error {
	e.lock()
	defer e.unlock()
	if e.state != StateInitializing {
		e.setState(StateInitializing, nil)
		if e.state != StateInitializing {
			return fmt.Errorf("engine cannot initialize from state %s", e.state)
		}
	}
	e.errMsg = ""
	e.goal = strings.TrimSpace(goal)

	dc, err := e.adapter.InitializeDataContext(ctx)
	if err != nil {
		e.setError(fmt.Sprintf("initialize data context: %v", err))
		return err
	}
	if len(e.cfg.UserContext) > 0 {
		dc = dc.WithUser(e.cfg.UserContext)
	}
	e.dc = dc
	e.cache.Clear()
	return e.planLocked(ctx)
}

// DispatchEvent feeds a UI event through the hook pipeline and, if it
// survives, the action router. The resolved tree is captured before
// any processing so routing acts on the tree that was active when the
// event occurred.
func (e *Engine) DispatchEvent(ctx context.Context, ev event.UIEvent) error {
	e.lock()
	defer e.unlock()
	if e.state != StateIdle {
		return &ErrNotAccepting{Op: "process events", State: e.state}
	}
	treeAtEvent := e.resolved
	dcAtEvent := e.dc
	e.setState(StateEventProcessing, map[string]any{"event": ev.Type, "node": ev.NodeID})

	if !e.pipeline.ProcessEvent(ctx, ev) {
		// A hook prevented the default; nothing reaches the router.
		e.setState(StateIdle, nil)
		return nil
	}

	res, err := e.router.Route(ctx, ev, treeAtEvent.FindByID(ev.NodeID), dcAtEvent)
	if err != nil {
		e.setError(fmt.Sprintf("route event %s on %s: %v", ev.Type, ev.NodeID, err))
		return err
	}
	if res.Mutated {
		e.dc = res.Context
	}
	switch {
	case res.Replan:
		return e.planLocked(ctx)
	case res.PartialTarget != "" && e.cfg.EnablePartialUpdates:
		return e.partialUpdateLocked(ctx, res.PartialTarget)
	case res.Mutated || res.PartialTarget != "":
		// Partial updates disabled fall back to the full pass.
		return e.resolveAndRenderLocked(ctx, nil)
	default:
		e.setState(StateIdle, nil)
		return nil
	}
}

// planLocked runs one planning cycle: request a tree for the current
// goal and context, validate it, commit it and run the resolve/render
// pass. The engine lock is released while the planner call is in
// flight; a completion whose generation was superseded in the interim
// is discarded without touching state.
func (e *Engine) planLocked(ctx context.Context) error {
	e.setState(StateInitializing, map[string]any{"goal": e.goal})
	e.gen++
	gen := e.gen
	req := planner.Request{Goal: e.goal, Context: e.dc, Config: e.cfg.Planning}
	e.bus.Publish(event.NewSystemEvent(event.SystemPlanStart, map[string]any{"generation": gen, "goal": e.goal}))

	e.unlock()
	tree, err := e.plan(ctx, req)
	e.lock()

	if gen != e.gen {
		log.Printf("[%s] discarding superseded plan generation %d (current %d)", e.cfg.SessionID, gen, e.gen)
		return nil
	}
	if err != nil {
		e.setError(fmt.Sprintf("plan: %v", err))
		return err
	}
	if err := uispec.Validate(tree, e.cfg.Registry); err != nil {
		e.setError(fmt.Sprintf("plan validation: %v", err))
		return err
	}
	e.tree = tree
	e.primarySource = primarySources(tree, e.dc)
	e.cache.Clear()
	e.bus.Publish(event.NewSystemEvent(event.SystemPlanComplete, map[string]any{"generation": gen}))
	e.saveSnapshot(ctx, gen, tree)
	return e.resolveAndRenderLocked(ctx, nil)
}

// plan invokes the planner, streaming provisional trees onto the bus
// when both sides support it. Only the returned tree is committed.
func (e *Engine) plan(ctx context.Context, req planner.Request) (*uispec.Node, error) {
	if sp, ok := e.planner.(planner.StreamPlanner); ok && req.Config.Streaming {
		return sp.PlanStream(ctx, req, func(provisional *uispec.Node) {
			fields := map[string]any{"provisional": true}
			if e.renderer != nil {
				if out, err := e.renderer.RenderPlaceholder(ctx, provisional); err == nil {
					fields["placeholder"] = out
				}
			}
			e.bus.Publish(event.NewSystemEvent(event.SystemPlanStream, fields))
		})
	}
	return e.planner.Plan(ctx, req)
}

func (e *Engine) saveSnapshot(ctx context.Context, gen uint64, tree *uispec.Node) {
	if e.cfg.Snapshots == nil {
		return
	}
	snap := snapshot.Snapshot{
		SessionID:  e.cfg.SessionID,
		Generation: gen,
		Goal:       e.goal,
		TakenAt:    time.Now(),
		Tree:       tree,
	}
	if err := e.cfg.Snapshots.Save(ctx, snap); err != nil {
		log.Printf("[%s] snapshot save failed: %v", e.cfg.SessionID, err)
	}
}

// resolveAndRenderLocked runs the resolution and render phases. With a
// non-nil partial target the resolve is scoped to that subtree and the
// result spliced into the current resolved tree.
func (e *Engine) resolveAndRenderLocked(ctx context.Context, partial *uispec.Node) error {
	if !e.dc.MeaningfullyPopulated() {
		// Nothing to resolve against yet; wait for data.
		e.setState(StateIdle, nil)
		return nil
	}
	e.setState(StateResolvingBindings, nil)
	e.bus.Publish(event.NewSystemEvent(event.SystemResolveStart, map[string]any{"generation": e.gen}))

	root := e.tree
	if partial != nil {
		root = partial
	}
	resolved, rep, err := binding.Resolve(root, e.dc, e.cfg.Registry)
	if err != nil {
		e.setError(fmt.Sprintf("resolve bindings: %v", err))
		return err
	}
	if partial != nil {
		spliced, ok := replaceResolved(e.resolved, partial.ID, resolved)
		if !ok {
			e.setError(fmt.Sprintf("partial update: node %q not in resolved tree", partial.ID))
			return fmt.Errorf("partial update: node %q not in resolved tree", partial.ID)
		}
		resolved = spliced
	}
	e.bus.Publish(event.NewSystemEvent(event.SystemResolveComplete, map[string]any{
		"generation": e.gen,
		"unresolved": len(rep.Unresolved),
		"malformed":  len(rep.Malformed),
	}))

	e.setState(StateRendering, nil)
	e.bus.Publish(event.NewSystemEvent(event.SystemRenderStart, map[string]any{"generation": e.gen}))
	if e.renderer == nil {
		e.setError("no component adapter attached")
		return fmt.Errorf("no component adapter attached")
	}
	out, err := e.renderer.Render(ctx, resolved, e.DispatchEvent)
	if err != nil {
		e.setError(fmt.Sprintf("render: %v", err))
		return err
	}
	e.resolved = resolved
	e.output = out
	e.bus.Publish(event.NewSystemEvent(event.SystemRenderComplete, map[string]any{"generation": e.gen}))
	e.setState(StateIdle, nil)
	return nil
}

// partialUpdateLocked regenerates one bounded subtree, leaving the
// rest of the tree untouched.
func (e *Engine) partialUpdateLocked(ctx context.Context, target string) error {
	sub := e.tree.FindByID(target)
	if sub == nil {
		e.setError(fmt.Sprintf("partial update: unknown target node %q", target))
		return fmt.Errorf("partial update: unknown target node %q", target)
	}
	if err := e.resolveAndRenderLocked(ctx, sub); err != nil {
		return err
	}
	e.bus.Publish(event.NewSystemEvent(event.SystemPartialUpdate, map[string]any{"target": target}))
	return nil
}

// CacheKey computes the render-cache key for a resolved node: node id,
// visibility, and the selection identity of the data source the node's
// bindings read. Called synchronously from the component adapter
// during a render pass, which already runs under the engine lock.
func (e *Engine) CacheKey(n *uispec.ResolvedNode) rendercache.Key {
	selected := ""
	if source, ok := e.primarySource[n.ID]; ok {
		if entry, ok := e.dc.Entry(source); ok {
			selected = datactx.ItemID(entry.Selected)
		}
	}
	return rendercache.KeyFor(n.ID, n.Visible(), selected)
}

// primarySources maps each node to the data source its bindings read,
// taking the first binding (by prop name) whose path starts with a
// known source.
func primarySources(tree *uispec.Node, dc datactx.Context) map[string]string {
	out := make(map[string]string)
	tree.Walk(func(n *uispec.Node) bool {
		for _, prop := range sortedKeys(n.Bindings) {
			head := bindingHead(n.Bindings[prop])
			if _, ok := dc.Entry(head); ok {
				out[n.ID] = head
				break
			}
		}
		return true
	})
	return out
}

func bindingHead(expr string) string {
	expr = strings.TrimSpace(expr)
	if i := strings.Index(expr, "{{"); i >= 0 {
		expr = expr[i+2:]
		if j := strings.Index(expr, "}}"); j >= 0 {
			expr = expr[:j]
		}
	}
	expr = strings.TrimSpace(expr)
	if i := strings.IndexByte(expr, '.'); i >= 0 {
		expr = expr[:i]
	}
	return expr
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// replaceResolved swaps the resolved subtree with the given id,
// rebuilding only the parent chain along the touched path.
func replaceResolved(root *uispec.ResolvedNode, id string, replacement *uispec.ResolvedNode) (*uispec.ResolvedNode, bool) {
	if root == nil {
		return nil, false
	}
	if root.ID == id {
		return replacement, true
	}
	for i, c := range root.Children {
		if nc, ok := replaceResolved(c, id, replacement); ok {
			clone := *root
			clone.Children = make([]*uispec.ResolvedNode, len(root.Children))
			copy(clone.Children, root.Children)
			clone.Children[i] = nc
			return &clone, true
		}
	}
	return root, false
}
