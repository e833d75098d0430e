package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompanyNameVerifiedFieldWins(t *testing.T) {
	analysis := map[string]any{
		"verified_company_name": "Acme Robotics",
		"company_overview":      map[string]any{"name": "Something Else"},
	}
	require.Equal(t, "Acme Robotics", CompanyName(analysis, ""))
}

func TestCompanyNameStructuralPaths(t *testing.T) {
	cases := []map[string]any{
		{"company_overview": map[string]any{"name": "Acme Robotics"}},
		{"company_overview": map[string]any{"company_name": "Acme Robotics"}},
		{"business_analysis": map[string]any{"company_name": "Acme Robotics"}},
		{"business_analysis": map[string]any{"company_info": map[string]any{"name": "Acme Robotics"}}},
		{"company": map[string]any{"name": "Acme Robotics"}},
		{"company_name": "Acme Robotics"},
	}
	for i, analysis := range cases {
		require.Equal(t, "Acme Robotics", CompanyName(analysis, ""), "case %d", i)
	}
}

func TestCompanyNameNestedSubAnalysis(t *testing.T) {
	analysis := map[string]any{
		"gemini_analysis": map[string]any{
			"company_overview": map[string]any{"name": "Acme Robotics"},
		},
	}
	require.Equal(t, "Acme Robotics", CompanyName(analysis, ""))
}

func TestCompanyNameRegexFallback(t *testing.T) {
	analysis := map[string]any{
		"raw_analysis": `The model replied: {"company_name": "Acme Robotics", "other": 1} and more prose`,
	}
	require.Equal(t, "Acme Robotics", CompanyName(analysis, ""))

	analysis = map[string]any{
		"raw_response": "Company Name: Acme Robotics\nIndustry: robotics",
	}
	require.Equal(t, "Acme Robotics", CompanyName(analysis, ""))
}

func TestCompanyNameNothingFound(t *testing.T) {
	require.Equal(t, "", CompanyName(nil, ""))
	require.Equal(t, "", CompanyName(map[string]any{"summary": "no identity here"}, ""))
}

func TestCompanyNameFallbackLastResort(t *testing.T) {
	// The fallback only applies once every extraction path came up empty.
	require.Equal(t, "Acme Robotics", CompanyName(nil, "Acme Robotics"))
	require.Equal(t, "Acme Robotics", CompanyName(map[string]any{"summary": "no identity here"}, " Acme Robotics "))
	require.Equal(t, "From Analysis", CompanyName(map[string]any{"company_name": "From Analysis"}, "Acme Robotics"))
}
