package persona

import (
	"time"

	"personify/internal/gates"
	"personify/internal/identity"
)

// Terminal artifact statuses.
const (
	StatusCompleted         = "completed"
	StatusFallback          = "fallback"
	StatusRejectedRelevance = "rejected_for_relevance"
	StatusRejectedMismatch  = "rejected_company_mismatch"
)

// RelevanceRejection is the artifact returned when the relevance screen
// refuses the website outright.
func RelevanceRejection(requestID, website string, outcome gates.Outcome) map[string]any {
	return map[string]any{
		"status":          StatusRejectedRelevance,
		"request_id":      requestID,
		"website":         website,
		"reason":          outcome.Notes,
		"relevance_check": outcome.Map(),
		"rejected_at":     time.Now().UTC().Format(time.RFC3339),
	}
}

// MismatchRejection is the artifact returned when the identity
// checkpoint hard-stops the pipeline. It carries the full evidence so
// the caller can see exactly which names disagreed and by how much.
func MismatchRejection(requestID, website string, res identity.Result) map[string]any {
	return map[string]any{
		"status":             StatusRejectedMismatch,
		"request_id":         requestID,
		"website":            website,
		"detected_companies": res.DetectedCompanies(),
		"similarity_scores": map[string]any{
			"gemini_vs_chatgpt": res.Scores.GeminiVsChatGPT,
			"gemini_vs_source":  res.Scores.GeminiVsSource,
			"chatgpt_vs_source": res.Scores.ChatGPTVsSource,
		},
		"source_of_truth": res.SourceOfTruth,
		"source_type":     res.SourceType,
		"threshold":       res.Threshold,
		"error_details":   res.Errors,
		"rejected_at":     time.Now().UTC().Format(time.RFC3339),
	}
}

// Fallback is the minimal persona returned when primary generation
// failed after retries. Downstream consumers get the required shape
// with empty sections rather than an error.
func Fallback(requestID, website, reason string) map[string]any {
	return map[string]any{
		"status":        StatusFallback,
		"request_id":    requestID,
		"website":       website,
		"company":       map[string]any{"name": "", "industry": "", "summary": ""},
		"product_range": []any{},
		"services":      []any{},
		"pain_points":   []any{},
		"goals":         []any{},
		"error_details": []string{reason},
		"generated_at":  time.Now().UTC().Format(time.RFC3339),
	}
}
