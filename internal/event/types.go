// Package event carries the two channels of the engine: the UI event
// hook pipeline that gates interaction events on their way to the
// action router, and the system event bus used purely for
// observability.
package event

import (
	"time"

	"github.com/google/uuid"
)

// UIEvent is raised by the presentation boundary when a rendered
// node's interaction fires.
type UIEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	NodeID    string         `json:"nodeId"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewUIEvent stamps a fresh event with an id and timestamp.
func NewUIEvent(eventType, nodeID string, payload map[string]any) UIEvent {
	return UIEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		NodeID:    nodeID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// SystemEventType identifies a lifecycle milestone topic.
type SystemEventType string

const (
	SystemPlanStart       SystemEventType = "plan_start"
	SystemPlanStream      SystemEventType = "plan_stream"
	SystemPlanComplete    SystemEventType = "plan_complete"
	SystemResolveStart    SystemEventType = "resolve_start"
	SystemResolveComplete SystemEventType = "resolve_complete"
	SystemRenderStart     SystemEventType = "render_start"
	SystemRenderComplete  SystemEventType = "render_complete"
	SystemPartialUpdate   SystemEventType = "partial_update"
	SystemStateChange     SystemEventType = "state_change"
	SystemError           SystemEventType = "error"
)

// SystemEventTypes lists every topic, in lifecycle order.
var SystemEventTypes = []SystemEventType{
	SystemPlanStart,
	SystemPlanStream,
	SystemPlanComplete,
	SystemResolveStart,
	SystemResolveComplete,
	SystemRenderStart,
	SystemRenderComplete,
	SystemPartialUpdate,
	SystemStateChange,
	SystemError,
}

// SystemEvent is a one-way observability notification. Internal logic
// never consumes these.
type SystemEvent struct {
	Type      SystemEventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Fields    map[string]any  `json:"fields,omitempty"`
}

// NewSystemEvent stamps a system event.
func NewSystemEvent(t SystemEventType, fields map[string]any) SystemEvent {
	return SystemEvent{Type: t, Timestamp: time.Now(), Fields: fields}
}
