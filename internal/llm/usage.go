package llm

import "sync"

// UsageKey identifies one bucket of LLM usage: a single pipeline step
// of a single request against a single provider.
type UsageKey struct {
	RequestID string
	Step      string
	Provider  string
}

// Usage accumulates call and token counts for one key.
type Usage struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
}

// Ledger is a concurrency-safe usage counter. Steps of one request
// record from multiple goroutines during fan-out.
type Ledger struct {
	mu      sync.Mutex
	entries map[UsageKey]*Usage
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[UsageKey]*Usage)}
}

// Record adds one call with the given prompt/completion text. Tokens
// are estimated; the REST providers do not echo usage back through the
// marker-text contract.
func (l *Ledger) Record(key UsageKey, prompt, completion string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.entries[key]
	if u == nil {
		u = &Usage{}
		l.entries[key] = u
	}
	u.Calls++
	u.PromptTokens += EstimateTokens(prompt)
	u.CompletionTokens += EstimateTokens(completion)
}

// Snapshot returns a copy of all entries.
func (l *Ledger) Snapshot() map[UsageKey]Usage {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[UsageKey]Usage, len(l.entries))
	for k, v := range l.entries {
		out[k] = *v
	}
	return out
}

// TotalCalls sums call counts across all steps and providers of one request.
func (l *Ledger) TotalCalls(requestID string) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, v := range l.entries {
		if k.RequestID == requestID {
			n += v.Calls
		}
	}
	return n
}

// CallsByProvider breaks one request's call count down per provider.
func (l *Ledger) CallsByProvider(requestID string) map[string]int {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[string]int{}
	for k, v := range l.entries {
		if k.RequestID == requestID {
			out[k.Provider] += v.Calls
		}
	}
	return out
}

// EstimateTokens approximates token count as len/4.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return len(text) / 4
}
