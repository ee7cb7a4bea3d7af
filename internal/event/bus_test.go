package event

import "testing"

func TestBus_FanOutInSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var order []int
	b.Subscribe(SystemPlanComplete, func(SystemEvent) { order = append(order, 1) })
	b.Subscribe(SystemPlanComplete, func(SystemEvent) { order = append(order, 2) })
	b.Subscribe(SystemRenderComplete, func(SystemEvent) { order = append(order, 99) })

	b.Publish(NewSystemEvent(SystemPlanComplete, nil))
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	count := 0
	unsub := b.Subscribe(SystemPlanComplete, func(SystemEvent) { count++ })
	b.Publish(NewSystemEvent(SystemPlanComplete, nil))
	unsub()
	b.Publish(NewSystemEvent(SystemPlanComplete, nil))
	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
	// Unsubscribing twice is harmless.
	unsub()
}

func TestBus_PanickingListenerIsIsolated(t *testing.T) {
	b := NewBus()
	delivered := false
	b.Subscribe(SystemError, func(SystemEvent) { panic("listener bug") })
	b.Subscribe(SystemError, func(SystemEvent) { delivered = true })
	b.Publish(NewSystemEvent(SystemError, nil))
	if !delivered {
		t.Fatal("panic in one listener must not block the next")
	}
}

func TestBus_CloseClearsSubscribers(t *testing.T) {
	b := NewBus()
	count := 0
	b.Subscribe(SystemPlanComplete, func(SystemEvent) { count++ })
	b.Close()
	b.Publish(NewSystemEvent(SystemPlanComplete, nil))
	b.Subscribe(SystemPlanComplete, func(SystemEvent) { count++ })
	b.Publish(NewSystemEvent(SystemPlanComplete, nil))
	if count != 0 {
		t.Fatalf("closed bus delivered %d events", count)
	}
}
