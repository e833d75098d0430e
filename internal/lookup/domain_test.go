package lookup

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"personify/internal/llm"
)

func TestOwnerResolvesAndCaches(t *testing.T) {
	var calls atomic.Int32
	verifier := llm.NewFakeVerifier("sonar", true)
	verifier.Fn = func(string) string {
		calls.Add(1)
		return `{"company_name": "Acme Robotics GmbH", "confidence": 8, "evidence": "imprint page"}`
	}
	r, err := NewResolver(verifier, nil)
	require.NoError(t, err)

	owner, ok := r.Owner(context.Background(), "https://www.acme-robotics.example.com/about")
	require.True(t, ok)
	require.Equal(t, "Acme Robotics GmbH", owner.Name)
	require.Equal(t, 8.0, owner.Confidence)

	// Same domain, different path. Must hit the cache.
	_, ok = r.Owner(context.Background(), "https://acme-robotics.example.com/products")
	require.True(t, ok)
	require.Equal(t, int32(1), calls.Load())
}

func TestOwnerUnavailableVerifier(t *testing.T) {
	r, err := NewResolver(llm.NewFakeVerifier("sonar", false), nil)
	require.NoError(t, err)
	_, ok := r.Owner(context.Background(), "https://acme.example.com")
	require.False(t, ok)

	var nilResolver *Resolver
	_, ok = nilResolver.Owner(context.Background(), "https://acme.example.com")
	require.False(t, ok)
}

func TestOwnerLookupFailuresAreSoft(t *testing.T) {
	cases := map[string]string{
		"provider marker":  "ERROR: rate limited",
		"unparsable":       "the owner is probably Acme",
		"empty name field": `{"company_name": "", "confidence": 9}`,
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := NewResolver(llm.NewFakeVerifier("sonar", true, resp), nil)
			require.NoError(t, err)
			_, ok := r.Owner(context.Background(), "https://acme.example.com")
			require.False(t, ok)
		})
	}
}

func TestResolveFuncAdapter(t *testing.T) {
	verifier := llm.NewFakeVerifier("sonar", true,
		`{"company_name": "Acme Robotics", "confidence": 7}`)
	r, err := NewResolver(verifier, nil)
	require.NoError(t, err)

	name, conf, ok := r.ResolveFunc()(context.Background(), "https://acme.example.com")
	require.True(t, ok)
	require.Equal(t, "Acme Robotics", name)
	require.Equal(t, 7.0, conf)
}
