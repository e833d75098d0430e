package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// State tracks where a checkpoint is in its lifecycle. A hard stop is
// terminal: the pipeline must not continue past it.
type State int

const (
	StatePending State = iota
	StatePassed
	StateHardStopped
)

func (s State) String() string {
	switch s {
	case StatePassed:
		return "passed"
	case StateHardStopped:
		return "hard_stopped"
	default:
		return "pending"
	}
}

// Source-of-truth thresholds. A user-verified name is authoritative, so
// model claims must match it more tightly than they must match a
// web-looked-up domain owner or each other.
const (
	thresholdVerified = 0.90
	thresholdDefault  = 0.85
)

// ResolveOwnerFunc looks up who operates a website. Confidence is on
// the 0-10 scale. ok=false means no answer could be obtained.
type ResolveOwnerFunc func(ctx context.Context, website string) (name string, confidence float64, ok bool)

// Scores holds the pairwise similarity measurements of one validation.
type Scores struct {
	GeminiVsChatGPT float64 `json:"gemini_vs_chatgpt"`
	GeminiVsSource  float64 `json:"gemini_vs_source"`
	ChatGPTVsSource float64 `json:"chatgpt_vs_source"`
}

// Result is the full record of one identity validation.
type Result struct {
	AllMatch       bool     `json:"all_match"`
	CompaniesMatch bool     `json:"companies_match"`
	GeminiCompany  string   `json:"gemini_company"`
	ChatGPTCompany string   `json:"chatgpt_company"`
	SourceOfTruth  string   `json:"source_of_truth,omitempty"`
	SourceType     string   `json:"source_type,omitempty"`
	SourceScore    float64  `json:"source_confidence,omitempty"`
	Threshold      float64  `json:"threshold"`
	Scores         Scores   `json:"similarity_scores"`
	Errors         []string `json:"error_details,omitempty"`
}

// DetectedCompanies lists every distinct non-empty name seen.
func (r Result) DetectedCompanies() []string {
	var out []string
	for _, s := range []string{r.GeminiCompany, r.ChatGPTCompany, r.SourceOfTruth} {
		if s == "" {
			continue
		}
		dup := false
		for _, have := range out {
			if NormalizeName(have) == NormalizeName(s) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	return out
}

// Checkpoint cross-examines the company identity claimed by each model
// against the strongest available source of truth. Any disagreement is
// a hard stop; no downstream stage may dilute it.
type Checkpoint struct {
	state   State
	resolve ResolveOwnerFunc
	log     *zap.Logger
}

func NewCheckpoint(resolve ResolveOwnerFunc, log *zap.Logger) *Checkpoint {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checkpoint{resolve: resolve, log: log}
}

func (c *Checkpoint) State() State { return c.state }

// Validate compares the company names extracted from both model
// analyses against each other and against the source of truth.
// Precedence for the source: a user-verified name, then the resolved
// domain owner, then model-vs-model agreement only.
func (c *Checkpoint) Validate(ctx context.Context, gemini, chatgpt map[string]any, website, verified string) Result {
	res := Result{Threshold: thresholdDefault}

	switch {
	case strings.TrimSpace(verified) != "":
		res.SourceOfTruth = strings.TrimSpace(verified)
		res.SourceType = "verified"
		res.SourceScore = 10
		res.Threshold = thresholdVerified
	case c.resolve != nil:
		if name, conf, ok := c.resolve(ctx, website); ok && name != "" {
			res.SourceOfTruth = name
			res.SourceType = "domain_owner"
			res.SourceScore = conf
		}
	}

	// The verified name is the extraction fallback of last resort; an
	// empty claim surviving it scores 0.0 and can never match.
	res.GeminiCompany = CompanyName(gemini, verified)
	res.ChatGPTCompany = CompanyName(chatgpt, verified)

	res.Scores.GeminiVsChatGPT = Similarity(res.GeminiCompany, res.ChatGPTCompany)
	res.CompaniesMatch = res.Scores.GeminiVsChatGPT >= res.Threshold
	if !res.CompaniesMatch {
		switch {
		case res.GeminiCompany == "" && res.ChatGPTCompany == "":
			res.Errors = append(res.Errors, "company name extraction failed for both analyses")
		case res.GeminiCompany == "":
			res.Errors = append(res.Errors, fmt.Sprintf(
				"company name extraction failed for the gemini analysis (chatgpt detected %q)", res.ChatGPTCompany))
		case res.ChatGPTCompany == "":
			res.Errors = append(res.Errors, fmt.Sprintf(
				"company name extraction failed for the chatgpt analysis (gemini detected %q)", res.GeminiCompany))
		default:
			res.Errors = append(res.Errors, fmt.Sprintf(
				"models disagree on company identity: %q vs %q (similarity %.2f, threshold %.2f)",
				res.GeminiCompany, res.ChatGPTCompany, res.Scores.GeminiVsChatGPT, res.Threshold))
		}
	}

	res.AllMatch = res.CompaniesMatch
	if res.SourceOfTruth != "" {
		if res.GeminiCompany != "" {
			res.Scores.GeminiVsSource = Similarity(res.GeminiCompany, res.SourceOfTruth)
			if res.Scores.GeminiVsSource < res.Threshold {
				res.AllMatch = false
				res.Errors = append(res.Errors, fmt.Sprintf(
					"gemini company %q does not match %s %q (similarity %.2f)",
					res.GeminiCompany, res.SourceType, res.SourceOfTruth, res.Scores.GeminiVsSource))
			}
		}
		if res.ChatGPTCompany != "" {
			res.Scores.ChatGPTVsSource = Similarity(res.ChatGPTCompany, res.SourceOfTruth)
			if res.Scores.ChatGPTVsSource < res.Threshold {
				res.AllMatch = false
				res.Errors = append(res.Errors, fmt.Sprintf(
					"chatgpt company %q does not match %s %q (similarity %.2f)",
					res.ChatGPTCompany, res.SourceType, res.SourceOfTruth, res.Scores.ChatGPTVsSource))
			}
		}
	}

	if res.AllMatch {
		c.state = StatePassed
	} else {
		c.state = StateHardStopped
		c.log.Warn("identity checkpoint hard stop",
			zap.String("website", website),
			zap.String("gemini_company", res.GeminiCompany),
			zap.String("chatgpt_company", res.ChatGPTCompany),
			zap.String("source_of_truth", res.SourceOfTruth),
			zap.Strings("errors", res.Errors))
	}
	return res
}

// Domain extracts the bare hostname of a website URL, accepting inputs
// with or without a scheme. The leading "www." is dropped.
func Domain(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}
