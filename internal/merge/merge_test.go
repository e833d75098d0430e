package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"personify/internal/gates"
)

func TestWithValidationPreservesOriginal(t *testing.T) {
	original := map[string]any{
		"company_overview": map[string]any{"name": "Acme"},
		"target_customers": []any{"integrators"},
	}
	snapshot := map[string]any{
		"company_overview": map[string]any{"name": "Acme"},
		"target_customers": []any{"integrators"},
	}
	out := WithValidation("website_analysis", original, gates.Outcome{
		Gate:        gates.GateWebsite,
		Passed:      false,
		Confidence:  4,
		Corrections: []string{"company sells software, not hardware"},
		Available:   true,
	})

	if diff := cmp.Diff(snapshot, original); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, out["original_website_analysis"]); diff != "" {
		t.Fatalf("original copy drifted (-want +got):\n%s", diff)
	}
	require.Equal(t, original["company_overview"], out["company_overview"])
	require.Equal(t, []string{"company sells software, not hardware"}, out["sonar_corrections"])

	validation, ok := out["sonar_validation"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, validation["passed"])

	meta, ok := out["enhanced_metadata"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "website_analysis", meta["validation_type"])
	require.Equal(t, 4, meta["confidence"])
}

func TestWithValidationOmitsEmptyCorrections(t *testing.T) {
	out := WithValidation("creative_elements", map[string]any{"persona_name": "Taylor"}, gates.Outcome{
		Gate: gates.GateCreative, Passed: true, Confidence: 8, Available: true,
	})
	require.NotContains(t, out, "sonar_corrections")
}

func TestAggregateMixedOutcomes(t *testing.T) {
	s := Aggregate([]gates.Outcome{
		{Gate: gates.GateWebsite, Passed: true, Confidence: 8, Available: true},
		{Gate: gates.GateMarket, Passed: false, Confidence: 3, Notes: "market size outdated", Available: true},
		{Gate: gates.GateValue, Passed: true, Confidence: 5, Available: false},
	})

	require.Equal(t, 3, s.Total)
	require.Equal(t, 1, s.Passed)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 1, s.Unavailable)
	require.InDelta(t, 5.5, s.OverallConfidence, 1e-9, "unavailable outcomes stay out of the mean")
	require.Equal(t, []string{"market_intelligence: market size outdated"}, s.KeyFindings)
	require.Len(t, s.Gates, 3)
}

func TestAggregateAllUnavailableIsNeutral(t *testing.T) {
	s := Aggregate([]gates.Outcome{
		gates.Unavailable(gates.GateWebsite),
		gates.Unavailable(gates.GateMarket),
	})
	require.Equal(t, 5.0, s.OverallConfidence)
	require.Equal(t, 0, s.Passed)
	require.Equal(t, 2, s.Unavailable)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	require.Equal(t, 5.0, s.OverallConfidence)
	require.NotContains(t, s.Map(), "key_findings")
}
