package identity

import (
	"regexp"
	"strings"

	"personify/internal/util/jsonutil"
)

// namePaths are checked in priority order against an analysis object.
var namePaths = []string{
	"company_overview.name",
	"company_overview.company_name",
	"business_analysis.company_name",
	"business_analysis.company_info.name",
	"company.name",
	"company_name",
}

// subAnalysisKeys hold nested per-model or per-source analyses that may
// carry their own company identification.
var subAnalysisKeys = []string{
	"gemini_analysis",
	"chatgpt_analysis",
	"website_analysis",
	"business_analysis",
	"company_overview",
}

var rawTextKeys = []string{"raw_analysis", "raw_response", "raw_text"}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"company_name"\s*:\s*"([^"]{2,80})"`),
	regexp.MustCompile(`"name"\s*:\s*"([^"]{2,80})"`),
	regexp.MustCompile(`(?i)company name\s*[:\-]\s*([A-Z][A-Za-z0-9&.,' \-]{1,60})`),
	regexp.MustCompile(`(?i)the company\s+([A-Z][A-Za-z0-9&.' \-]{1,60}?)\s+(?:is|was|provides|offers|specializes)`),
}

// CompanyName pulls the company identification out of a model analysis.
// Priority: an explicit verified_company_name field, then well-known
// structural paths, then nested sub-analyses, then a bounded deep
// search, then regex scans over any raw text blobs, and as the last
// resort the caller-supplied fallback name. Returns "" when nothing
// plausible is found.
func CompanyName(analysis map[string]any, fallback string) string {
	if analysis == nil {
		return strings.TrimSpace(fallback)
	}
	if s := stringAt(analysis, "verified_company_name"); s != "" {
		return s
	}
	if s := nameFromPaths(analysis); s != "" {
		return s
	}
	for _, key := range subAnalysisKeys {
		sub, ok := analysis[key].(map[string]any)
		if !ok {
			continue
		}
		if s := stringAt(sub, "company_name"); s != "" {
			return s
		}
		if s := nameFromPaths(sub); s != "" {
			return s
		}
	}
	if v, ok := jsonutil.DeepFind(analysis, "company_name", 4); ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	for _, key := range rawTextKeys {
		raw, ok := analysis[key].(string)
		if !ok || raw == "" {
			continue
		}
		for _, re := range namePatterns {
			if m := re.FindStringSubmatch(raw); m != nil {
				if s := strings.TrimSpace(m[1]); s != "" {
					return strings.TrimRight(s, ".,")
				}
			}
		}
	}
	return strings.TrimSpace(fallback)
}

func nameFromPaths(m map[string]any) string {
	for _, path := range namePaths {
		v, ok := jsonutil.Lookup(m, path)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
