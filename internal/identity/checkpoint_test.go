package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func geminiClaims(name string) map[string]any {
	return map[string]any{"company_overview": map[string]any{"name": name}}
}

func chatgptClaims(name string) map[string]any {
	return map[string]any{"business_analysis": map[string]any{"company_name": name}}
}

func TestCheckpointHardStopsOnModelDisagreement(t *testing.T) {
	cp := NewCheckpoint(nil, nil)
	res := cp.Validate(context.Background(),
		geminiClaims("Kramer Electronics"),
		chatgptClaims("Kramer-Werke GmbH"),
		"https://kramer.example.com", "")

	require.Equal(t, StateHardStopped, cp.State())
	require.False(t, res.AllMatch)
	require.False(t, res.CompaniesMatch)
	require.NotEmpty(t, res.Errors)
	require.Len(t, res.DetectedCompanies(), 2)
}

func TestCheckpointPassesWithVerifiedSource(t *testing.T) {
	cp := NewCheckpoint(nil, nil)
	res := cp.Validate(context.Background(),
		geminiClaims("Acme Robotics GmbH"),
		chatgptClaims("Acme Robotics"),
		"https://acme.example.com", "Acme Robotics, Inc.")

	require.Equal(t, StatePassed, cp.State())
	require.True(t, res.AllMatch)
	require.Equal(t, "verified", res.SourceType)
	require.Equal(t, thresholdVerified, res.Threshold)
	require.GreaterOrEqual(t, res.Scores.GeminiVsSource, thresholdVerified)
}

func TestCheckpointHardStopsAgainstVerifiedSource(t *testing.T) {
	cp := NewCheckpoint(nil, nil)
	res := cp.Validate(context.Background(),
		geminiClaims("Kramer Electronics"),
		chatgptClaims("Kramer Electronics Ltd"),
		"https://kramer.example.com", "Kramer-Werke GmbH")

	// Models agree with each other but not with the verified name.
	require.True(t, res.CompaniesMatch)
	require.False(t, res.AllMatch)
	require.Equal(t, StateHardStopped, cp.State())
}

func TestCheckpointUsesDomainOwnerWhenNoVerifiedName(t *testing.T) {
	resolve := func(ctx context.Context, website string) (string, float64, bool) {
		return "Acme Robotics", 8, true
	}
	cp := NewCheckpoint(resolve, nil)
	res := cp.Validate(context.Background(),
		geminiClaims("Acme Robotics"),
		chatgptClaims("Acme Robotics"),
		"https://acme.example.com", "")

	require.Equal(t, StatePassed, cp.State())
	require.Equal(t, "domain_owner", res.SourceType)
	require.Equal(t, 8.0, res.SourceScore)
	require.Equal(t, thresholdDefault, res.Threshold)
}

func TestCheckpointHardStopsOnMissingClaims(t *testing.T) {
	cp := NewCheckpoint(nil, nil)
	res := cp.Validate(context.Background(),
		map[string]any{"summary": "nothing here"},
		map[string]any{"summary": "nothing here either"},
		"https://acme.example.com", "")

	// An empty claim scores 0.0 and can never count as a match.
	require.Equal(t, StateHardStopped, cp.State())
	require.False(t, res.CompaniesMatch)
	require.False(t, res.AllMatch)
	require.Equal(t, 0.0, res.Scores.GeminiVsChatGPT)
	require.Contains(t, res.Errors[0], "extraction failed")
}

func TestCheckpointHardStopsWithDomainOwnerButNoClaims(t *testing.T) {
	resolve := func(ctx context.Context, website string) (string, float64, bool) {
		return "Acme Robotics", 8, true
	}
	cp := NewCheckpoint(resolve, nil)
	res := cp.Validate(context.Background(),
		map[string]any{"summary": "nothing here"},
		map[string]any{"summary": "nothing here either"},
		"https://acme.example.com", "")

	// A resolved domain owner does not rescue a run where neither model
	// produced a company name.
	require.Equal(t, StateHardStopped, cp.State())
	require.False(t, res.AllMatch)
}

func TestCheckpointVerifiedNameBacksMissingClaims(t *testing.T) {
	cp := NewCheckpoint(nil, nil)
	res := cp.Validate(context.Background(),
		map[string]any{"summary": "nothing here"},
		map[string]any{"summary": "nothing here either"},
		"https://acme.example.com", "Acme Robotics")

	// The caller-supplied verified name is the extraction fallback of
	// last resort, so both claims resolve to it and the run passes.
	require.Equal(t, StatePassed, cp.State())
	require.True(t, res.AllMatch)
	require.Equal(t, "Acme Robotics", res.GeminiCompany)
	require.Equal(t, "Acme Robotics", res.ChatGPTCompany)
}

func TestCheckpointHardStopsWhenOneClaimMissing(t *testing.T) {
	cp := NewCheckpoint(nil, nil)
	res := cp.Validate(context.Background(),
		geminiClaims("Acme Robotics"),
		map[string]any{"summary": "nothing here"},
		"https://acme.example.com", "")

	require.Equal(t, StateHardStopped, cp.State())
	require.Contains(t, res.Errors[0], "chatgpt")
}

func TestDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.acme.example.com/about", "acme.example.com"},
		{"acme.example.com", "acme.example.com"},
		{"http://acme.example.com:8080", "acme.example.com"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Domain(tc.in), "input %q", tc.in)
	}
}
