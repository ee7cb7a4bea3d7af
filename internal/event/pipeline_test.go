package event

import (
	"context"
	"errors"
	"testing"
)

func TestPipeline_AllHooksRunBeforeTypeHooks(t *testing.T) {
	p := NewPipeline()
	var order []string
	p.RegisterHook("click", func(_ context.Context, _ *HookContext) error {
		order = append(order, "click-1")
		return nil
	})
	p.RegisterHook(HookAll, func(_ context.Context, _ *HookContext) error {
		order = append(order, "all-1")
		return nil
	})
	p.RegisterHook(HookAll, func(_ context.Context, _ *HookContext) error {
		order = append(order, "all-2")
		return nil
	})
	p.RegisterHook("click", func(_ context.Context, _ *HookContext) error {
		order = append(order, "click-2")
		return nil
	})

	if !p.ProcessEvent(context.Background(), NewUIEvent("click", "n1", nil)) {
		t.Fatal("event should proceed")
	}
	want := []string{"all-1", "all-2", "click-1", "click-2"}
	if len(order) != len(want) {
		t.Fatalf("hook order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hook order %v, want %v", order, want)
		}
	}
}

func TestPipeline_PreventDefaultStopsChainAndForwarding(t *testing.T) {
	p := NewPipeline()
	ran := false
	p.RegisterHook(HookAll, func(_ context.Context, hc *HookContext) error {
		hc.PreventDefault()
		return nil
	})
	p.RegisterHook("click", func(_ context.Context, _ *HookContext) error {
		ran = true
		return nil
	})
	if p.ProcessEvent(context.Background(), NewUIEvent("click", "n1", nil)) {
		t.Fatal("prevented event must not proceed")
	}
	if ran {
		t.Fatal("later hooks must not run after PreventDefault")
	}
}

func TestPipeline_HookFailuresAreIsolated(t *testing.T) {
	p := NewPipeline()
	var survived bool
	p.RegisterHook("click", func(_ context.Context, _ *HookContext) error {
		return errors.New("boom")
	})
	p.RegisterHook("click", func(_ context.Context, _ *HookContext) error {
		panic("worse")
	})
	p.RegisterHook("click", func(_ context.Context, _ *HookContext) error {
		survived = true
		return nil
	})
	if !p.ProcessEvent(context.Background(), NewUIEvent("click", "n1", nil)) {
		t.Fatal("failures do not prevent the event")
	}
	if !survived {
		t.Fatal("hooks after a failure must still run")
	}
}

func TestPipeline_TypeHooksOnlyForTheirType(t *testing.T) {
	p := NewPipeline()
	ran := false
	p.RegisterHook("change", func(_ context.Context, _ *HookContext) error {
		ran = true
		return nil
	})
	p.ProcessEvent(context.Background(), NewUIEvent("click", "n1", nil))
	if ran {
		t.Fatal("change hook ran for click event")
	}
}
