package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"loomui/internal/config"
	"loomui/internal/engine"
	"loomui/internal/event"
	"loomui/internal/planner"
	"loomui/internal/renderer"
	"loomui/internal/schemadapter"
	"loomui/internal/snapshot"
)

const (
	sessionWSWriteWait = 10 * time.Second
	sessionWSPongWait  = 60 * time.Second
	sessionWSPingEvery = (sessionWSPongWait * 9) / 10
)

var sessionWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type apiServer struct {
	cfg     *config.Config
	planner planner.Planner
	adapter schemadapter.Adapter
	snaps   snapshot.Store
	broker  *sessionBroker
}

func newAPIServer(cfg *config.Config, p planner.Planner, adapter schemadapter.Adapter, snaps snapshot.Store) *apiServer {
	return &apiServer{
		cfg:     cfg,
		planner: p,
		adapter: adapter,
		snaps:   snaps,
		broker:  newSessionBroker(),
	}
}

// sessionBroker tracks one engine per live websocket connection.
type sessionBroker struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Engine
}

func newSessionBroker() *sessionBroker {
	return &sessionBroker{sessions: make(map[string]*engine.Engine)}
}

func (b *sessionBroker) Add(id string, eng *engine.Engine) {
	b.mu.Lock()
	b.sessions[id] = eng
	b.mu.Unlock()
}

func (b *sessionBroker) Remove(id string) {
	b.mu.Lock()
	delete(b.sessions, id)
	b.mu.Unlock()
}

type sessionInbound struct {
	Type      string         `json:"type"`
	EventType string         `json:"eventType,omitempty"`
	NodeID    string         `json:"nodeId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Goal      string         `json:"goal,omitempty"`
}

type sessionOutbound struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Target    string          `json:"target,omitempty"`
	Document  renderer.Output `json:"document,omitempty"`
	State     string          `json:"state,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// handleSessionWS runs one engine session over a websocket: inbound
// frames carry UI events and replan requests, outbound frames carry
// rendered documents and error notices.
func (s *apiServer) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	goal := strings.TrimSpace(r.URL.Query().Get("goal"))
	if goal == "" {
		goal = "show the data"
	}

	conn, err := sessionWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionID := uuid.NewString()
	cfg := engine.DefaultConfig()
	cfg.SessionID = sessionID
	cfg.DebugMode = s.cfg.Debug
	cfg.Snapshots = s.snaps
	cfg.Planning = planner.Config{Streaming: true}

	eng := engine.New(s.planner, s.adapter, cfg)
	defer eng.Close()
	eng.SetRenderer(renderer.NewJSON(cfg.Registry, eng.Cache(), eng.CacheKey))
	s.broker.Add(sessionID, eng)
	defer s.broker.Remove(sessionID)

	writeCh := make(chan sessionOutbound, 32)
	writerDone := make(chan struct{})
	go s.runWriter(ctx, conn, eng, writeCh, writerDone)

	// Bus listeners run synchronously inside engine phases; they only
	// enqueue markers and never read engine state. The writer fills in
	// documents after the engine releases its lock.
	push := func(out sessionOutbound) {
		select {
		case writeCh <- out:
		default:
			log.Printf("session %s: dropping %s frame, writer is behind", sessionID, out.Type)
		}
	}
	unsubs := []func(){
		eng.Bus().Subscribe(event.SystemRenderComplete, func(event.SystemEvent) {
			push(sessionOutbound{Type: "render", SessionID: sessionID})
		}),
		eng.Bus().Subscribe(event.SystemPartialUpdate, func(ev event.SystemEvent) {
			target, _ := ev.Fields["target"].(string)
			push(sessionOutbound{Type: "partial", SessionID: sessionID, Target: target})
		}),
		eng.Bus().Subscribe(event.SystemPlanStream, func(ev event.SystemEvent) {
			if doc, ok := ev.Fields["placeholder"]; ok {
				push(sessionOutbound{Type: "placeholder", SessionID: sessionID, Document: doc})
			}
		}),
		eng.Bus().Subscribe(event.SystemError, func(ev event.SystemEvent) {
			msg, _ := ev.Fields["message"].(string)
			push(sessionOutbound{Type: "engine_error", SessionID: sessionID, Message: msg})
		}),
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	if err := eng.Initialize(ctx, goal); err != nil {
		log.Printf("session %s: initialize failed: %v", sessionID, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(sessionWSPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(sessionWSPongWait))
	})

	for {
		var in sessionInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch in.Type {
		case "ui_event":
			ev := event.NewUIEvent(in.EventType, in.NodeID, in.Payload)
			if err := eng.DispatchEvent(ctx, ev); err != nil {
				var busy *engine.ErrNotAccepting
				if errors.As(err, &busy) {
					push(sessionOutbound{Type: "busy", SessionID: sessionID, State: string(busy.State)})
				}
				// Engine errors already reach the client through the
				// error topic listener.
			}
		case "replan":
			goal := strings.TrimSpace(in.Goal)
			if goal == "" {
				push(sessionOutbound{Type: "busy", SessionID: sessionID, Message: "replan needs a goal"})
				continue
			}
			if err := eng.Initialize(ctx, goal); err != nil {
				log.Printf("session %s: replan failed: %v", sessionID, err)
			}
		default:
			push(sessionOutbound{Type: "busy", SessionID: sessionID, Message: "unknown frame type " + in.Type})
		}
	}
}

// runWriter owns the connection's write side: it serializes outbound
// frames and keeps the connection alive with pings.
func (s *apiServer) runWriter(ctx context.Context, conn *websocket.Conn, eng *engine.Engine, writeCh <-chan sessionOutbound, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(sessionWSPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case out := <-writeCh:
			if out.Type == "render" || out.Type == "partial" {
				out.Document = eng.Output()
				out.State = string(eng.State())
			}
			if err := conn.SetWriteDeadline(time.Now().Add(sessionWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(sessionWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
