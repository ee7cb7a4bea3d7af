package planner

import (
	"context"
	"time"
)

// rpsLimiter is a small token bucket refilled on a ticker. A zero rate
// disables limiting entirely.
type rpsLimiter struct {
	tokens chan struct{}
	ticker *time.Ticker
	done   chan struct{}
}

func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	l := &rpsLimiter{
		tokens: make(chan struct{}, burst),
		ticker: time.NewTicker(time.Duration(float64(time.Second) / rps)),
		done:   make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}
	go func() {
		for {
			select {
			case <-l.done:
				return
			case <-l.ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
				}
			}
		}
	}()
	return l
}

// Acquire blocks until a token is available or ctx is done. A nil
// limiter admits everything.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.tokens:
		return nil
	}
}

func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	l.ticker.Stop()
	close(l.done)
}
