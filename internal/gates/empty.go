package gates

import "personify/internal/util/jsonutil"

// marketNestings are the shapes market intelligence is known to arrive
// in, outermost wrapper first.
var marketNestings = []string{
	"market_intelligence",
	"base_intelligence.market_intelligence",
	"base_intelligence",
	"original_market_intelligence",
}

// MarketDataEmpty reports whether a market-intelligence payload carries
// no validatable content in any of its known nestings. Empty data is
// deferred, not failed: the content may materialize during synthesis.
func MarketDataEmpty(v any) bool {
	if jsonutil.IsEmpty(v) {
		return true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, path := range marketNestings {
		if inner, found := jsonutil.Lookup(m, path); found && !jsonutil.IsEmpty(inner) {
			return false
		}
	}
	// None of the known wrappers hold content; direct fields may.
	for key, val := range m {
		switch key {
		case "market_intelligence", "base_intelligence", "original_market_intelligence", "error", "raw_response":
			continue
		}
		if !jsonutil.IsEmpty(val) {
			return false
		}
	}
	return true
}
