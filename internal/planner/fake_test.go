package planner

import (
	"context"
	"strings"
	"testing"

	"loomui/internal/datactx"
	"loomui/internal/uispec"
)

func fakeRequest() Request {
	dc := datactx.New(nil).WithEntry("tasks", datactx.Entry{
		Data: []datactx.Item{{"id": "t1", "title": "one"}},
	})
	return Request{Goal: "show my tasks", Context: dc}
}

func TestFake_PlanWiresMasterDetail(t *testing.T) {
	tree, err := NewFake().Plan(context.Background(), fakeRequest())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := uispec.Validate(tree, uispec.DefaultRegistry()); err != nil {
		t.Fatalf("fake plan must validate: %v", err)
	}
	list := tree.FindByID("tasks-list")
	if list == nil {
		t.Fatal("list node missing")
	}
	// The items binding is deliberately the bare source name; the
	// resolver's list-binding correction qualifies it.
	if list.Bindings["items"] != "tasks" {
		t.Fatalf("unexpected items binding: %v", list.Bindings)
	}
	click := list.Events["click"]
	if click == nil || click.Action != "select_item" || click.Target != "tasks-detail" {
		t.Fatalf("list click not wired to detail: %+v", click)
	}
	detail := tree.FindByID("tasks-detail")
	if detail == nil || detail.Type != "DetailView" {
		t.Fatalf("detail node missing: %+v", detail)
	}
	if !strings.Contains(detail.Bindings["visible"], "tasks.selected") {
		t.Fatalf("detail visibility not bound to selection: %v", detail.Bindings)
	}
	closeBtn := tree.FindByID("tasks-detail-close")
	if closeBtn == nil || closeBtn.Events["click"].Action != "clear_selection" {
		t.Fatalf("close button not wired: %+v", closeBtn)
	}
}

func TestFake_PlanStreamDeliversSkeletonFirst(t *testing.T) {
	var provisional *uispec.Node
	final, err := NewFake().PlanStream(context.Background(), fakeRequest(), func(n *uispec.Node) {
		provisional = n
	})
	if err != nil {
		t.Fatalf("plan stream: %v", err)
	}
	if provisional == nil {
		t.Fatal("no provisional tree delivered")
	}
	if provisional.FindByID("tasks-list") == nil {
		t.Fatal("skeleton must carry the list")
	}
	if provisional.FindByID("tasks-detail") != nil {
		t.Fatal("skeleton must omit detail panels")
	}
	if final.FindByID("tasks-detail") == nil {
		t.Fatal("final tree must carry detail panels")
	}
}

func TestBuildPrompt_CarriesSchemaNotRows(t *testing.T) {
	req := fakeRequest()
	req.Config.PrefetchDepth = 2
	prompt := buildPrompt(req)
	if !strings.Contains(prompt, "show my tasks") {
		t.Fatal("goal missing from prompt")
	}
	if !strings.Contains(prompt, `"tasks"`) || !strings.Contains(prompt, `"rows": 1`) {
		t.Fatalf("schema digest missing: %s", prompt)
	}
	if strings.Contains(prompt, `"t1"`) {
		t.Fatal("row contents must never reach the prompt")
	}
	if !strings.Contains(prompt, "at most 2 levels") {
		t.Fatal("prefetch depth hint missing")
	}
}
