package llm

import (
	"context"
	"sync/atomic"
)

type creditsKey struct{}

// credits is the consumable balance a broker lease embeds in a context.
type credits struct{ n int32 }

// WithCredits returns a context carrying n pre-paid call credits. The
// rate-limit middleware spends these before touching the limiter, so a
// reservation made up front covers the fan-out it was sized for.
// If n <= 0 the original context is returned unchanged.
func WithCredits(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	return context.WithValue(ctx, creditsKey{}, &credits{n: int32(n)})
}

// TakeCredit spends one credit from the context, if any remain. It is
// safe for concurrent callers on the same context; each credit is
// consumed exactly once.
func TakeCredit(ctx context.Context) bool {
	c, ok := ctx.Value(creditsKey{}).(*credits)
	if !ok || c == nil {
		return false
	}
	for {
		cur := atomic.LoadInt32(&c.n)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.n, cur, cur-1) {
			return true
		}
	}
}
