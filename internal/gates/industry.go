package gates

import "strings"

// industryDomains maps industry keywords to authority sites the
// verifier should prefer when fact-checking market claims. Entries are
// ordered so longer, more specific keywords match first.
var industryDomains = []struct {
	keyword string
	domains []string
}{
	{"audio visual", []string{"avixa.org", "infocomm.org", "commercialintegrator.com", "avnetwork.com"}},
	{"manufacturing", []string{"nam.org", "industryweek.com", "manufacturing.net"}},
	{"construction", []string{"enr.com", "constructiondive.com", "agc.org"}},
	{"healthcare", []string{"himss.org", "healthcareitnews.com", "beckershospitalreview.com"}},
	{"logistics", []string{"supplychaindive.com", "logisticsmgmt.com", "joc.com"}},
	{"education", []string{"edsurge.com", "educause.edu", "insidehighered.com"}},
	{"software", []string{"gartner.com", "forrester.com", "idc.com"}},
	{"finance", []string{"americanbanker.com", "finextra.com", "bankingdive.com"}},
	{"energy", []string{"energycentral.com", "utilitydive.com", "renewableenergyworld.com"}},
	{"retail", []string{"nrf.com", "retaildive.com", "chainstoreage.com"}},
	{"saas", []string{"gartner.com", "forrester.com", "saastr.com"}},
	{"av", []string{"avixa.org", "infocomm.org", "commercialintegrator.com", "avnetwork.com"}},
}

// IndustryDomains returns authority domains for an industry, matching
// case-insensitively on substrings. Unknown industries get none, which
// leaves the verifier unrestricted.
func IndustryDomains(industry string) []string {
	needle := strings.ToLower(strings.TrimSpace(industry))
	if needle == "" {
		return nil
	}
	words := strings.Fields(needle)
	for _, entry := range industryDomains {
		if needle == entry.keyword {
			return entry.domains
		}
		// Short keywords match whole words only; "av" must not match "travel".
		if len(entry.keyword) <= 4 {
			for _, w := range words {
				if w == entry.keyword {
					return entry.domains
				}
			}
			continue
		}
		if strings.Contains(needle, entry.keyword) {
			return entry.domains
		}
	}
	return nil
}
