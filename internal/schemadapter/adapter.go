// Package schemadapter translates external data definitions into the
// engine's data context and answers row queries. Persistence and
// transport live entirely behind this boundary.
package schemadapter

import (
	"context"

	"loomui/internal/datactx"
)

// Query narrows a row fetch. Zero value means everything.
type Query struct {
	// Filter matches rows whose fields equal the given values.
	Filter map[string]any
	// Limit caps the number of rows; <= 0 means no cap.
	Limit int
}

// Adapter is the caller-supplied data-access layer.
type Adapter interface {
	// InitializeDataContext builds the initial context from schema
	// defaults: every source present with its schema and starting rows.
	InitializeDataContext(ctx context.Context) (datactx.Context, error)
	// Query fetches rows of one source.
	Query(ctx context.Context, source string, q Query) ([]datactx.Item, error)
}
