// Package renderer is the presentation boundary: it lowers resolved
// specification trees into presentation output. The engine only knows
// the Adapter interface; the JSON adapter in this package is the one
// the gateway ships to browsers.
package renderer

import (
	"context"

	"loomui/internal/event"
	"loomui/internal/uispec"
)

// Dispatch is the callback an adapter must invoke with a UI event when
// a rendered element is interacted with.
type Dispatch func(ctx context.Context, ev event.UIEvent) error

// Output is one rendered document. Concrete adapters decide its
// dynamic type; the JSON adapter produces *Widget.
type Output any

// Adapter maps resolved trees to presentation output.
type Adapter interface {
	// Render lowers a fully resolved tree.
	Render(ctx context.Context, root *uispec.ResolvedNode, dispatch Dispatch) (Output, error)
	// RenderPlaceholder lowers an unresolved tree into a provisional
	// output (loading states for streamed plans).
	RenderPlaceholder(ctx context.Context, root *uispec.Node) (Output, error)
}
