package planner

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	genai "google.golang.org/genai"

	"loomui/internal/uispec"
)

var ErrInvalidTree = errors.New("planner: invalid tree JSON from model")

// Gemini plans trees with the official genai client.
type Gemini struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

// NewGemini builds a Gemini planner. An optional request-rate limit is
// read from PLANNER_RPS / PLANNER_BURST.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	var rps float64
	var burst int
	if v := os.Getenv("PLANNER_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rps = f
		}
	}
	if v := os.Getenv("PLANNER_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			burst = n
		}
	}
	return &Gemini{cli: cli, model: model, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *Gemini) Name() string { return "Gemini:" + g.model }

func (g *Gemini) Close() error {
	if g.rl != nil {
		g.rl.Stop()
	}
	return nil
}

// Plan sends the prompt and requests application/json back. Transient
// failures are retried with backoff; the response must parse into a
// specification tree.
func (g *Gemini) Plan(ctx context.Context, req Request) (*uispec.Node, error) {
	prompt := buildPrompt(req)
	log.Printf("plan request (%s): %d bytes", g.model, len(prompt))

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if req.Config.Temperature > 0 {
		t := float32(req.Config.Temperature)
		cfg.Temperature = &t
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		// Each API call consumes a limiter token, retries included.
		if err := g.rl.Acquire(ctx); err != nil {
			return nil, err
		}
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			cfg,
		)
		if err != nil {
			lastErr = err
		} else if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrInvalidTree
		} else {
			tree, perr := uispec.Parse([]byte(resp.Candidates[0].Content.Parts[0].Text))
			if perr == nil {
				return tree, nil
			}
			lastErr = perr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}
	return nil, lastErr
}
