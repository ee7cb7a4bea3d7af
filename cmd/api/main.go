package main

import (
	"context"
	"log"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"loomui/internal/config"
	"loomui/internal/datactx"
	"loomui/internal/planner"
	"loomui/internal/schemadapter"
	"loomui/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	p, err := buildPlanner(cfg)
	if err != nil {
		log.Fatalf("build planner: %v", err)
	}
	adapter, err := buildAdapter(cfg)
	if err != nil {
		log.Fatalf("build schema adapter: %v", err)
	}
	snaps, err := buildSnapshotStore(cfg)
	if err != nil {
		log.Fatalf("build snapshot store: %v", err)
	}

	srv := newAPIServer(cfg, p, adapter, snaps)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/session", srv.handleSessionWS)

	handler := h2c.NewHandler(mux, &http2.Server{})
	log.Printf("listening on %s (planner=%s env=%s)", cfg.Port, cfg.Planner.Provider, cfg.Env)
	if err := http.ListenAndServe(cfg.Port, handler); err != nil {
		log.Fatal(err)
	}
}

func buildPlanner(cfg *config.Config) (planner.Planner, error) {
	switch cfg.Planner.Provider {
	case "gemini":
		return planner.NewGemini(context.Background(), cfg.Planner.Model)
	default:
		return planner.NewFake(), nil
	}
}

// buildAdapter serves sources from Postgres when a DSN is configured
// and falls back to an in-memory demo data set.
func buildAdapter(cfg *config.Config) (schemadapter.Adapter, error) {
	if cfg.Database.DSN != "" {
		return schemadapter.OpenPostgres(cfg.Database.DSN, map[string]schemadapter.TableMapping{
			"tasks": {
				Table:        "tasks",
				Columns:      []string{"id", "title", "description", "done"},
				IDColumn:     "id",
				InitialLimit: 100,
			},
		}, nil)
	}
	m := schemadapter.NewMemory(datactx.Item{"name": "demo", "role": "viewer"})
	m.AddSource("tasks", schemadapter.Source{
		Schema: datactx.SchemaDescriptor{Fields: []datactx.FieldDescriptor{
			{Name: "id", Kind: "string"},
			{Name: "title", Kind: "string"},
			{Name: "description", Kind: "string"},
			{Name: "done", Kind: "bool"},
		}},
		Items: []datactx.Item{
			{"id": "t1", "title": "Write the plan", "description": "Draft the rollout plan", "done": false},
			{"id": "t2", "title": "Review bindings", "description": "Check template substitution", "done": false},
			{"id": "t3", "title": "Ship the gateway", "description": "Expose the session endpoint", "done": true},
			{"id": "t4", "title": "Archive snapshots", "description": "Verify the S3 backend", "done": false},
		},
	})
	return m, nil
}

func buildSnapshotStore(cfg *config.Config) (snapshot.Store, error) {
	if !cfg.Snapshot.Enabled {
		return snapshot.NewMemoryStore(), nil
	}
	return snapshot.NewS3Store(snapshot.S3Config{
		Endpoint:  cfg.Snapshot.Endpoint,
		Region:    cfg.Snapshot.Region,
		AccessKey: cfg.Snapshot.AccessKey,
		SecretKey: cfg.Snapshot.SecretKey,
		Bucket:    cfg.Snapshot.Bucket,
		UseSSL:    cfg.Snapshot.UseSSL,
	})
}
