package llm

import (
	"context"
	"fmt"
	"strings"
)

// Options carries per-call generation knobs. Zero values mean
// "provider default". DomainFilter restricts web-grounded providers
// to the given domains; plain completion providers ignore it.
type Options struct {
	Temperature  float64
	MaxTokens    int
	DomainFilter []string
}

// Client is the minimal surface a text-generation provider exposes.
//
// Ordinary provider-side failures (HTTP errors, empty candidates,
// quota) come back as marker text via ErrorText with a nil error, so
// callers have a single decision branch. The error return is reserved
// for context cancellation and programming mistakes.
type Client interface {
	Name() string
	GenerateText(ctx context.Context, prompt string, opts Options) (string, error)
	Close() error
}

// Verifier is a Client that may be absent at runtime (no API key).
// Unavailable verifiers cause quality gates to degrade to neutral
// outcomes rather than fail.
type Verifier interface {
	Client
	Available() bool
}

const errorMarker = "ERROR"

// ErrorText renders a provider-side failure as marker text.
func ErrorText(format string, args ...any) string {
	return errorMarker + ": " + fmt.Sprintf(format, args...)
}

// IsErrorText reports whether a response is a failure marker.
func IsErrorText(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), errorMarker)
}
