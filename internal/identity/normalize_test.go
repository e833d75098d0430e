package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Kramer Electronics Ltd.", "kramer electronics"},
		{"Kramer-Werke GmbH", "kramer werke"},
		{"ACME, Inc.", "acme"},
		{"Acme Co. Ltd", "acme"},
		{"Beta Systems GmbH & Co. KG", "beta systems"},
		{"  Gamma   Corp  ", "gamma"},
		{"delta", "delta"},
		{"L.L.C.", "l l c"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeName(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"Kramer Electronics Ltd.",
		"Acme Co. Ltd",
		"Beta Systems GmbH & Co. KG",
		"überwachung AG",
		"Plain Name",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		require.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestSimilarityExactAndBounds(t *testing.T) {
	require.Equal(t, 1.0, Similarity("Acme GmbH", "Acme Inc."))
	require.Equal(t, 0.0, Similarity("", "Acme"))
	require.Equal(t, 0.0, Similarity("Acme", ""))

	pairs := [][2]string{
		{"Kramer Electronics", "Kramer-Werke GmbH"},
		{"Acme Robotics", "Acme"},
		{"Alpha Beta", "Gamma Delta"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, 1.0)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Kramer Electronics", "Kramer-Werke GmbH"},
		{"Acme Robotics", "Acme"},
		{"Alpha", "Alphabet"},
	}
	for _, p := range pairs {
		require.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]))
	}
}

func TestSimilarityContainment(t *testing.T) {
	s := Similarity("Acme", "Acme Robotics")
	require.Greater(t, s, 0.0)
	require.Less(t, s, 1.0)
}

// Same leading word, different companies: the score must fall well
// below any acceptance threshold.
func TestSimilarityDistinguishesSameFirstWord(t *testing.T) {
	s := Similarity("Kramer Electronics", "Kramer-Werke GmbH")
	require.Less(t, s, 0.85)
}
