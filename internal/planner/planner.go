// Package planner produces specification trees from a data schema and
// a natural-language goal. The engine only ever sees the Planner
// interface; the Gemini implementation talks to the external model and
// Fake produces deterministic trees for offline runs and tests.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"loomui/internal/datactx"
	"loomui/internal/uispec"
)

// Config tunes one planning call.
type Config struct {
	PrefetchDepth int
	Temperature   float64
	Streaming     bool
}

// Request carries everything a planner needs for one call.
type Request struct {
	Goal    string
	Context datactx.Context
	Config  Config
}

// Planner produces a specification tree for a request.
type Planner interface {
	Plan(ctx context.Context, req Request) (*uispec.Node, error)
}

// StreamPlanner additionally delivers provisional trees while the plan
// is being produced. Only the returned final tree may be committed to
// engine state; everything passed to onProvisional is advisory.
type StreamPlanner interface {
	Planner
	PlanStream(ctx context.Context, req Request, onProvisional func(*uispec.Node)) (*uispec.Node, error)
}

// schemaDigest summarizes the data context for the model prompt:
// source names, field shapes and row counts, never row contents.
func schemaDigest(dc datactx.Context) string {
	type sourceDigest struct {
		Name   string                   `json:"name"`
		Schema datactx.SchemaDescriptor `json:"schema"`
		Rows   int                      `json:"rows"`
	}
	digest := make([]sourceDigest, 0, len(dc.Sources()))
	for _, name := range dc.Sources() {
		entry, _ := dc.Entry(name)
		digest = append(digest, sourceDigest{Name: name, Schema: entry.Schema, Rows: len(entry.Data)})
	}
	raw, _ := json.MarshalIndent(digest, "", "  ")
	return string(raw)
}

const promptPreamble = `You are a UI planner. Produce a single JSON object describing a UI
specification tree for the goal below. Node shape:
{"id": string, "type": string, "props": object, "bindings": object,
 "events": object, "children": array}
Types: Container, Text, Button, Input, ListView, DetailView, Form.
Bindings map prop names to dotted data-context paths ("tasks.data") or
template strings with {{path}} placeholders. Events map an event kind
to {"action": string, "target": string, "payload": object}; action is
one of select_item, clear_selection, update_field, toggle_field,
replan, partial_update. Node ids must be unique across the tree.
Respond with the JSON tree only.`

func buildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString("\n\n[GOAL]\n")
	sb.WriteString(strings.TrimSpace(req.Goal))
	sb.WriteString("\n\n[DATA SOURCES]\n")
	sb.WriteString(schemaDigest(req.Context))
	if req.Config.PrefetchDepth > 0 {
		fmt.Fprintf(&sb, "\n\nPlan at most %d levels of detail views ahead of the current selection.", req.Config.PrefetchDepth)
	}
	return sb.String()
}
