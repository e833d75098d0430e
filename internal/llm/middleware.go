package llm

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit limits request rate using the token-bucket limiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		rl := newRPSLimiter(rps, burst)
		if rl == nil {
			return next
		}
		return &rateLimited{next: next, rl: rl}
	}
}

// RateLimitWith throttles through an existing shared limiter, so a
// broker lease drawn from the same limiter pre-pays calls for any
// client wrapped with it. A nil limiter disables the middleware.
func RateLimitWith(rl Limiter) Middleware {
	return func(next Client) Client {
		if rl == nil {
			return next
		}
		return &rateLimited{next: next, rl: rl}
	}
}

type rateLimited struct {
	next Client
	rl   Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	// Prefer reserved credits embedded in the context.
	if !TakeCredit(ctx) {
		if err := c.rl.Acquire(ctx); err != nil {
			return "", err
		}
	}
	return c.next.GenerateText(ctx, prompt, opts)
}

// LimiterFromEnv builds a shared limiter from the first prefix whose
// _RPS variable is set. For example, ("GEMINI","LLM") checks
// GEMINI_RPS/GEMINI_BURST first, then LLM_RPS/LLM_BURST. Returns nil
// when no prefix configures a rate.
func LimiterFromEnv(prefixes ...string) Limiter {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		rps, _ := strconv.ParseFloat(os.Getenv(p+"_RPS"), 64)
		if rps <= 0 {
			continue
		}
		burst, _ := strconv.Atoi(os.Getenv(p + "_BURST"))
		return newRPSLimiter(rps, burst)
	}
	return nil
}

// -------- Retry with exponential backoff --------

// Retry retries GenerateText up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors are returned immediately.
// If the context is canceled, it stops right away.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }
func (r *retrying) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateText(ctx, prompt, opts)
		if err == nil {
			return resp, nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		// Stop immediately if the context is canceled.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return "", last
}

// -------- Logging --------

// WithLogging logs request size, duration and failures. A nil logger
// turns this into a no-op middleware.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next Client) Client {
		if logger == nil {
			return next
		}
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	resp, err := l.next.GenerateText(ctx, prompt, opts)
	fields := []zap.Field{
		zap.String("client", l.next.Name()),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case err != nil:
		l.log.Warn("llm call failed", append(fields, zap.Error(err))...)
	case IsErrorText(resp):
		l.log.Warn("llm provider error", append(fields, zap.String("marker", truncate(resp, 160)))...)
	default:
		l.log.Debug("llm call", append(fields, zap.Int("response_bytes", len(resp)))...)
	}
	return resp, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
