package lookup

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"personify/internal/identity"
	"personify/internal/llm"
	"personify/internal/util/jsonutil"
)

// Owner is a resolved website operator. Confidence is on the 0-10 scale.
type Owner struct {
	Name       string
	Confidence float64
}

const ownerPrompt = `Who operates the website at domain %q?
Respond with JSON only:
{
  "company_name": "official company name, or empty string if unknown",
  "confidence": 0-10,
  "evidence": "one sentence on how you know"
}`

// Resolver answers "who owns this domain" through the search-grounded
// verifier, memoizing per domain. Lookups are best effort: any failure
// means "no answer", never an aborted pipeline.
type Resolver struct {
	client llm.Verifier
	cache  *lru.Cache[string, Owner]
	log    *zap.Logger
}

func NewResolver(client llm.Verifier, log *zap.Logger) (*Resolver, error) {
	cache, err := lru.New[string, Owner](256)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{client: client, cache: cache, log: log}, nil
}

// Owner resolves the operator of the given website URL.
func (r *Resolver) Owner(ctx context.Context, website string) (Owner, bool) {
	if r == nil || r.client == nil || !r.client.Available() {
		return Owner{}, false
	}
	domain := identity.Domain(website)
	if domain == "" {
		return Owner{}, false
	}
	if cached, ok := r.cache.Get(domain); ok {
		return cached, true
	}

	resp, err := r.client.GenerateText(ctx, fmt.Sprintf(ownerPrompt, domain), llm.Options{
		DomainFilter: []string{domain},
	})
	if err != nil {
		return Owner{}, false
	}
	if llm.IsErrorText(resp) {
		r.log.Debug("domain owner lookup failed", zap.String("domain", domain), zap.String("marker", resp))
		return Owner{}, false
	}
	res := jsonutil.Normalize(resp)
	if !res.OK() {
		return Owner{}, false
	}
	name, _ := res.Parsed["company_name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return Owner{}, false
	}
	owner := Owner{Name: name, Confidence: numberOr(res.Parsed["confidence"], 5)}
	r.cache.Add(domain, owner)
	return owner, true
}

// ResolveFunc adapts the resolver to the checkpoint callback shape.
func (r *Resolver) ResolveFunc() identity.ResolveOwnerFunc {
	return func(ctx context.Context, website string) (string, float64, bool) {
		owner, ok := r.Owner(ctx, website)
		return owner.Name, owner.Confidence, ok
	}
}

func numberOr(v any, fallback float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	default:
		return fallback
	}
}
