package schemadapter

import (
	"context"
	"fmt"
	"sync"

	"loomui/internal/datactx"
)

// Source seeds one in-memory data source.
type Source struct {
	Schema datactx.SchemaDescriptor
	Items  []datactx.Item
}

// Memory serves sources from process memory.
type Memory struct {
	mu      sync.RWMutex
	sources map[string]Source
	user    datactx.Item
}

func NewMemory(user datactx.Item) *Memory {
	return &Memory{sources: make(map[string]Source), user: user}
}

// AddSource registers or replaces a source.
func (m *Memory) AddSource(name string, src Source) {
	m.mu.Lock()
	m.sources[name] = src
	m.mu.Unlock()
}

func (m *Memory) InitializeDataContext(ctx context.Context) (datactx.Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dc := datactx.New(m.user)
	for name, src := range m.sources {
		dc = dc.WithEntry(name, datactx.Entry{Schema: src.Schema, Data: src.Items})
	}
	return dc, nil
}

func (m *Memory) Query(ctx context.Context, source string, q Query) ([]datactx.Item, error) {
	m.mu.RLock()
	src, ok := m.sources[source]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown data source %q", source)
	}
	var out []datactx.Item
	for _, row := range src.Items {
		if !matches(row, q.Filter) {
			continue
		}
		out = append(out, row)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func matches(row datactx.Item, filter map[string]any) bool {
	for k, want := range filter {
		if fmt.Sprintf("%v", row[k]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
