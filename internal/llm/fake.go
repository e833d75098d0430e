package llm

import (
	"context"
	"sync"
)

// FakeClient returns scripted responses for offline runs and tests.
// When Fn is set it takes priority; otherwise Responses are consumed
// in order and the last one repeats once exhausted.
type FakeClient struct {
	name      string
	Fn        func(prompt string) string
	Responses []string
	Err       error

	mu  sync.Mutex
	idx int
}

func NewFakeClient(name string, responses ...string) *FakeClient {
	if name == "" {
		name = "fake"
	}
	return &FakeClient{name: name, Responses: responses}
}

func (f *FakeClient) Name() string { return f.name }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	if f.Fn != nil {
		return f.Fn(prompt), nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Responses) == 0 {
		return "{}", nil
	}
	resp := f.Responses[min(f.idx, len(f.Responses)-1)]
	f.idx++
	return resp, nil
}

// FakeVerifier is a FakeClient with a switchable availability flag.
type FakeVerifier struct {
	FakeClient
	Enabled bool
}

func NewFakeVerifier(name string, enabled bool, responses ...string) *FakeVerifier {
	fv := &FakeVerifier{Enabled: enabled}
	fv.FakeClient = *NewFakeClient(name, responses...)
	return fv
}

func (f *FakeVerifier) Available() bool { return f != nil && f.Enabled }
