package identity

import "strings"

// legalSuffixes are trailing legal-form designators, already in
// punctuation-free lowercase form. Ordered longest-first so compound
// forms win over their components.
var legalSuffixes = []string{
	"gmbh co kg",
	"incorporated",
	"corporation",
	"pty ltd",
	"limited",
	"company",
	"l l c",
	"s r l",
	"gmbh",
	"corp",
	"kgaa",
	"llc",
	"ltd",
	"plc",
	"llp",
	"inc",
	"srl",
	"aps",
	"oyj",
	"b v",
	"n v",
	"s a",
	"ag",
	"bv",
	"nv",
	"sa",
	"co",
	"kg",
	"oy",
	"ab",
	"ug",
	"se",
	"lp",
}

// NormalizeName canonicalizes a company name for comparison: lowercase,
// punctuation folded to spaces, whitespace collapsed, and trailing legal
// suffixes stripped until none remain. Stripping never reduces a name
// to the empty string, and the function is idempotent.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	for {
		stripped := false
		for _, suf := range legalSuffixes {
			if rest, ok := strings.CutSuffix(s, " "+suf); ok {
				s = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return s
}

// Similarity scores how likely two raw company names refer to the same
// entity, in [0,1]. Exact normalized match scores 1.0; containment
// scores the length ratio; otherwise the Jaccard index of the word
// sets. Either side normalizing to empty scores 0.0. Symmetric.
func Similarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		shorter, longer := len(na), len(nb)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer)
	}

	wa := strings.Fields(na)
	wb := strings.Fields(nb)
	seen := make(map[string]bool, len(wa))
	for _, w := range wa {
		seen[w] = true
	}
	union := len(seen)
	inter := 0
	for _, w := range wb {
		if seen[w] {
			inter++
			seen[w] = false // count each shared word once
		} else if _, dup := seen[w]; !dup {
			union++
			seen[w] = false
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
