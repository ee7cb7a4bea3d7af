package event

import (
	"log"
	"sync"
)

type listener struct {
	id uint64
	fn func(SystemEvent)
}

// Bus is the system-event publish/subscribe channel: one topic per
// SystemEventType, synchronous fan-out in subscription order. One bus
// per engine instance, cleared when the engine is disposed; never a
// process-wide singleton.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[SystemEventType][]listener
	closed bool
}

func NewBus() *Bus {
	return &Bus{topics: make(map[SystemEventType][]listener)}
}

// Subscribe registers fn on a topic and returns its unregister func.
func (b *Bus) Subscribe(t SystemEventType, fn func(SystemEvent)) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.topics[t] = append(b.topics[t], listener{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[t]
		for i, l := range subs {
			if l.id == id {
				b.topics[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every listener of its topic, synchronously
// and in subscription order. A panicking listener is isolated; the
// remaining listeners still run.
func (b *Bus) Publish(ev SystemEvent) {
	b.mu.RLock()
	subs := b.topics[ev.Type]
	b.mu.RUnlock()
	for _, l := range subs {
		deliver(l, ev)
	}
}

func deliver(l listener, ev SystemEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("system event listener panic (%s): %v", ev.Type, r)
		}
	}()
	l.fn(ev)
}

// Close drops every subscriber. Further subscriptions are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	b.topics = make(map[SystemEventType][]listener)
	b.closed = true
	b.mu.Unlock()
}
