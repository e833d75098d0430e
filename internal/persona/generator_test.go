package persona

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"personify/internal/gates"
	"personify/internal/llm"
	"personify/internal/progress"
)

func testDeps(gemini, chatgpt llm.Client, verifier llm.Verifier) Deps {
	return Deps{
		Gemini:     gemini,
		ChatGPT:    chatgpt,
		Validator:  gates.NewValidator(verifier, 0, nil, nil),
		Retries:    1,
		RetryDelay: time.Millisecond,
	}
}

func TestGenerateOfflineCompletes(t *testing.T) {
	gemini, chatgpt := DemoClients("Acme Robotics")
	g := NewGenerator(testDeps(gemini, chatgpt, llm.NewFakeVerifier("sonar", false)))

	artifact, err := g.Generate(context.Background(), Request{
		Website:   "https://acme-robotics.example.com",
		Industry:  "manufacturing",
		RequestID: "run-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, artifact["status"])

	for _, key := range []string{"company", "product_range", "services", "pain_points", "goals",
		"analysis", "chatgpt_analysis", "consolidated_view", "market_intelligence",
		"value_alignment", "creative_elements", "sonar_quality_checks"} {
		require.Contains(t, artifact, key)
	}

	// With the verifier down, the structure check is the only available
	// gate; its confidence carries the whole summary.
	summary, ok := artifact["sonar_validation_summary"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, 9.0, summary["overall_confidence"])
	require.Equal(t, 0, summary["validations_failed"])

	meta, ok := artifact["enhanced_metadata"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "run-1", meta["request_id"])
	require.Contains(t, meta, "step_timings")
	require.Contains(t, meta, "sonar_validations_passed")
	require.Equal(t, 0, meta["sonar_validations_failed"])
}

func TestGenerateWithPassingVerifier(t *testing.T) {
	gemini, chatgpt := DemoClients("Acme Robotics")
	verifier := llm.NewFakeVerifier("sonar", true)
	verifier.Fn = func(string) string {
		return `{"passed": true, "confidence": 8, "validation_notes": "confirmed against the live site"}`
	}
	g := NewGenerator(testDeps(gemini, chatgpt, verifier))

	artifact, err := g.Generate(context.Background(), Request{Website: "https://acme-robotics.example.com", Industry: "av"})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, artifact["status"])

	summary := artifact["sonar_validation_summary"].(map[string]any)
	require.Equal(t, 0, summary["validations_failed"])
	require.Equal(t, 0, summary["validations_unavailable"])
	require.Greater(t, summary["overall_confidence"].(float64), 5.0)

	// The validated analysis keeps its untouched input alongside the verdict.
	analysis := artifact["analysis"].(map[string]any)
	require.Contains(t, analysis, "original_website_analysis")
	require.Contains(t, analysis, "sonar_validation")
}

func TestGenerateHardStopsOnCompanyMismatch(t *testing.T) {
	gemini, _ := DemoClients("Kramer Werke GmbH")
	_, chatgpt := DemoClients("Kramer Electronics")
	g := NewGenerator(testDeps(gemini, chatgpt, llm.NewFakeVerifier("sonar", false)))

	artifact, err := g.Generate(context.Background(), Request{Website: "https://kramer.example.com"})
	require.NoError(t, err)
	require.Equal(t, StatusRejectedMismatch, artifact["status"])
	require.Len(t, artifact["detected_companies"], 2)

	scores, ok := artifact["similarity_scores"].(map[string]any)
	require.True(t, ok)
	require.Less(t, scores["gemini_vs_chatgpt"].(float64), 0.85)
}

func TestGenerateRejectsIrrelevantWebsite(t *testing.T) {
	gemini, chatgpt := DemoClients("Acme Robotics")
	verifier := llm.NewFakeVerifier("sonar", true,
		`{"is_relevant": false, "confidence": 9, "reason": "parked domain with no business content", "recommended_action": "reject"}`)
	g := NewGenerator(testDeps(gemini, chatgpt, verifier))

	artifact, err := g.Generate(context.Background(), Request{Website: "https://parked.example.com"})
	require.NoError(t, err)
	require.Equal(t, StatusRejectedRelevance, artifact["status"])
	require.Contains(t, artifact["reason"], "parked domain")
}

func TestGenerateFallsBackWhenPrimaryFails(t *testing.T) {
	gemini := llm.NewFakeClient("fake-gemini")
	gemini.Fn = func(string) string { return "ERROR: quota exceeded" }
	_, chatgpt := DemoClients("Acme Robotics")
	g := NewGenerator(testDeps(gemini, chatgpt, llm.NewFakeVerifier("sonar", false)))

	artifact, err := g.Generate(context.Background(), Request{Website: "https://acme.example.com"})
	require.NoError(t, err)
	require.Equal(t, StatusFallback, artifact["status"])
	require.Contains(t, artifact, "product_range")

	details, ok := artifact["error_details"].([]string)
	require.True(t, ok)
	require.Contains(t, details[0], "quota exceeded")
}

type countingLimiter struct{ calls atomic.Int32 }

func (c *countingLimiter) Acquire(ctx context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestGenerateReservesFanOutPermits(t *testing.T) {
	gemini, chatgpt := DemoClients("Acme Robotics")
	lim := &countingLimiter{}
	d := testDeps(gemini, chatgpt, llm.NewFakeVerifier("sonar", false))
	d.Broker = llm.NewBroker(lim)
	g := NewGenerator(d)

	artifact, err := g.Generate(context.Background(), Request{Website: "https://acme.example.com"})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, artifact["status"])

	// Both dual-analysis permits are claimed from the shared limiter
	// before the fan-out; nothing else touches it in this wiring.
	require.EqualValues(t, 2, lim.calls.Load())
}

func TestGenerateValidatesWebsiteBeforeIdentity(t *testing.T) {
	gemini, chatgpt := DemoClients("Acme Robotics")
	hub := progress.NewHub(nil)
	d := testDeps(gemini, chatgpt, llm.NewFakeVerifier("sonar", false))
	d.Progress = hub
	g := NewGenerator(d)

	_, err := g.Generate(context.Background(), Request{Website: "https://acme.example.com", RequestID: "run-order"})
	require.NoError(t, err)

	events, cancel := hub.Subscribe("run-order")
	defer cancel()
	var steps []string
	for len(events) > 0 {
		steps = append(steps, (<-events).Step)
	}

	web := stepIndex(steps, "website_validation")
	id := stepIndex(steps, "identity_checkpoint")
	require.GreaterOrEqual(t, web, 0)
	require.GreaterOrEqual(t, id, 0)
	require.Less(t, web, id, "customer-focus screening must precede the identity hard stop")
}

func stepIndex(steps []string, name string) int {
	for i, s := range steps {
		if s == name {
			return i
		}
	}
	return -1
}

func TestGenerateRequiresWebsite(t *testing.T) {
	gemini, chatgpt := DemoClients("Acme Robotics")
	g := NewGenerator(testDeps(gemini, chatgpt, llm.NewFakeVerifier("sonar", false)))
	_, err := g.Generate(context.Background(), Request{})
	require.Error(t, err)
}
