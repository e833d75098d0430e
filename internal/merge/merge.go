package merge

import (
	"time"

	"personify/internal/gates"
)

// WithValidation folds a gate outcome into the data it validated. The
// untouched input survives under "original_<name>", so no validation
// ever destroys information; corrections annotate rather than rewrite.
func WithValidation(name string, original map[string]any, outcome gates.Outcome) map[string]any {
	out := make(map[string]any, len(original)+4)
	for k, v := range original {
		out[k] = v
	}
	out["original_"+name] = original
	out["sonar_validation"] = outcome.Map()
	if len(outcome.Corrections) > 0 {
		out["sonar_corrections"] = outcome.Corrections
	}
	out["enhanced_metadata"] = map[string]any{
		"validation_type": name,
		"validated_at":    time.Now().UTC().Format(time.RFC3339),
		"confidence":      outcome.Confidence,
		"passed":          outcome.Passed,
		"available":       outcome.Available,
	}
	return out
}

// Summary condenses all gate outcomes of one run.
type Summary struct {
	Total             int      `json:"total_validations"`
	Passed            int      `json:"validations_passed"`
	Failed            int      `json:"validations_failed"`
	Unavailable       int      `json:"validations_unavailable"`
	OverallConfidence float64  `json:"overall_confidence"`
	Gates             []string `json:"validation_types"`
	KeyFindings       []string `json:"key_findings,omitempty"`
}

// Aggregate buckets outcomes into passed / failed / unavailable and
// averages confidence over the available ones only, so a verifier
// outage reads as "unknown", not as synthetic confidence. With nothing
// available the overall confidence is the neutral 5.0.
func Aggregate(outcomes []gates.Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	confSum := 0
	confN := 0
	for _, o := range outcomes {
		s.Gates = append(s.Gates, o.Gate)
		if !o.Available {
			s.Unavailable++
			continue
		}
		if o.Passed {
			s.Passed++
		} else {
			s.Failed++
			if o.Notes != "" {
				s.KeyFindings = append(s.KeyFindings, o.Gate+": "+o.Notes)
			}
		}
		confSum += o.Confidence
		confN++
	}
	if confN == 0 {
		s.OverallConfidence = 5.0
	} else {
		s.OverallConfidence = float64(confSum) / float64(confN)
	}
	return s
}

// Map renders the summary for artifact embedding.
func (s Summary) Map() map[string]any {
	m := map[string]any{
		"total_validations":       s.Total,
		"validations_passed":      s.Passed,
		"validations_failed":      s.Failed,
		"validations_unavailable": s.Unavailable,
		"overall_confidence":      s.OverallConfidence,
		"validation_types":        s.Gates,
	}
	if len(s.KeyFindings) > 0 {
		m["key_findings"] = s.KeyFindings
	}
	return m
}
