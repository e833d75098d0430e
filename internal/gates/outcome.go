package gates

import (
	"fmt"
	"strconv"
	"strings"
)

// Outcome is the uniform verdict every quality gate produces.
// Confidence is on the 0-10 scale. Available=false means the verifier
// could not be consulted at all; such outcomes pass with neutral
// confidence and are excluded from confidence aggregation.
type Outcome struct {
	Gate        string         `json:"gate_name"`
	Passed      bool           `json:"passed"`
	Confidence  int            `json:"confidence"`
	Corrections []string       `json:"corrections,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Available   bool           `json:"available"`
	Details     map[string]any `json:"details,omitempty"`
}

// Unavailable is the neutral outcome for a gate whose verifier is down
// or unconfigured. It passes so an outage never blocks generation.
func Unavailable(gate string) Outcome {
	return Outcome{
		Gate:       gate,
		Passed:     true,
		Confidence: 5,
		Notes:      "verification service unavailable",
		Available:  false,
	}
}

// unparsable is the outcome for verifier output nothing could be made
// of. It passes, but with confidence low enough to show in summaries.
func unparsable(gate, raw string) Outcome {
	if len(raw) > 300 {
		raw = raw[:300]
	}
	return Outcome{
		Gate:       gate,
		Passed:     true,
		Confidence: 2,
		Notes:      "verifier response could not be parsed",
		Available:  true,
		Details:    map[string]any{"raw_response": raw},
	}
}

// Map renders the outcome as a plain map for artifact embedding.
func (o Outcome) Map() map[string]any {
	m := map[string]any{
		"gate_name":  o.Gate,
		"passed":     o.Passed,
		"confidence": o.Confidence,
		"available":  o.Available,
	}
	if len(o.Corrections) > 0 {
		m["corrections"] = o.Corrections
	}
	if o.Notes != "" {
		m["notes"] = o.Notes
	}
	if len(o.Details) > 0 {
		m["details"] = o.Details
	}
	return m
}

// outcomeFrom maps a parsed verifier payload onto an Outcome. Field
// naming drifts across prompts, so several spellings are tried.
func outcomeFrom(gate string, payload map[string]any) Outcome {
	o := Outcome{Gate: gate, Passed: true, Confidence: 5, Available: true, Details: payload}
	for _, key := range []string{"passed", "validation_passed", "is_accurate", "is_relevant", "is_consistent"} {
		if b, ok := payload[key].(bool); ok {
			o.Passed = b
			break
		}
	}
	if v, ok := payload["confidence"]; ok {
		o.Confidence = clampConfidence(v)
	}
	o.Corrections = stringSlice(payload["corrections"])
	for _, key := range []string{"notes", "validation_notes", "assessment", "reason"} {
		if s, ok := payload[key].(string); ok && s != "" {
			o.Notes = s
			break
		}
	}
	return o
}

// clampConfidence coerces a JSON confidence value onto the 0-10 scale.
func clampConfidence(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 5
		}
		f = parsed
	default:
		return 5
	}
	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return int(f + 0.5)
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch x := it.(type) {
		case string:
			out = append(out, x)
		default:
			out = append(out, fmt.Sprintf("%v", x))
		}
	}
	return out
}
