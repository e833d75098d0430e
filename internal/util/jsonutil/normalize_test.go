package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDirect(t *testing.T) {
	res := Normalize(`{"ok": true, "n": 3}`)
	require.True(t, res.OK())
	require.Equal(t, true, res.Parsed["ok"])
}

func TestNormalizeStripsFence(t *testing.T) {
	res := Normalize("```json\n{\"ok\": true}\n```")
	require.True(t, res.OK())
	require.Equal(t, true, res.Parsed["ok"])

	res = Normalize("```\n{\"ok\": true}\n```")
	require.True(t, res.OK())
}

func TestNormalizeBraceWindow(t *testing.T) {
	res := Normalize(`Here is the analysis you asked for: {"company": "Acme"} hope it helps!`)
	require.True(t, res.OK())
	require.Equal(t, "Acme", res.Parsed["company"])
}

func TestNormalizeFailureTagged(t *testing.T) {
	res := Normalize("no structured content at all")
	require.False(t, res.OK())
	require.NotEmpty(t, res.Err)

	m := res.AsMap()
	require.Contains(t, m, "error")
	require.Contains(t, m, "raw_response")
}

func TestNormalizeFailureCarriesParserError(t *testing.T) {
	// Malformed JSON surfaces the decoder's own message, not a canned one.
	res := Normalize(`{"company": "Acme", "n": }`)
	require.False(t, res.OK())
	require.Contains(t, res.Err, "invalid character")
	require.NotEqual(t, "no JSON object found in response", res.Err)
}

func TestNormalizeTruncatesRawInFailureMap(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	res := Normalize(string(long))
	require.False(t, res.OK())
	require.Len(t, res.AsMap()["raw_response"], 500)
}
