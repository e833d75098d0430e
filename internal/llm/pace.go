package llm

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum gap between successive calls. Unlike the
// token-bucket limiter it never allows bursts: consecutive Wait calls
// are spaced at least interval apart, which is what search-backed
// verification providers expect.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewPacer returns a pacer with the given minimum gap. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until at least the configured interval has passed since
// the previous Wait returned, or the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return nil
	}
	p.mu.Lock()
	now := time.Now()
	next := p.last.Add(p.interval)
	if next.Before(now) {
		next = now
	}
	p.last = next
	p.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
