package gates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarketDataEmpty(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, true},
		{"empty map", map[string]any{}, true},
		{"direct content", map[string]any{"market_intelligence": map[string]any{"market_size": "USD 1B"}}, false},
		{"nested under base_intelligence", map[string]any{
			"base_intelligence": map[string]any{"market_intelligence": map[string]any{"trends": []any{"cloud"}}},
		}, false},
		{"wrapper present but hollow", map[string]any{
			"market_intelligence": map[string]any{},
			"base_intelligence":   map[string]any{},
		}, true},
		{"only error and raw fields", map[string]any{
			"error":        "ERROR: quota",
			"raw_response": "something",
		}, true},
		{"unrecognized field with content", map[string]any{
			"competitor_landscape": []any{"Crestron"},
		}, false},
		{"non-map payload", []any{"trend"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MarketDataEmpty(tc.in))
		})
	}
}
