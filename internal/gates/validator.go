package gates

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"personify/internal/identity"
	"personify/internal/llm"
	"personify/internal/util/jsonutil"
)

// Gate names, as they appear in artifacts.
const (
	GateRelevance      = "website_relevance"
	GateWebsite        = "website_analysis"
	GateCustomerFocus  = "customer_focus"
	GateCrossModel     = "cross_model_consistency"
	GateMarket         = "market_intelligence"
	GateValue          = "value_alignment"
	GateCreative       = "creative_elements"
	GateStructure      = "persona_structure"
	GateFinalSynthesis = "final_synthesis_content"
	GateFinal          = "final_quality"
)

// Validator runs every search-grounded quality gate. Gates soft-fail:
// they always return an Outcome, never an error, so one broken gate
// degrades confidence instead of killing a run. Calls through one
// validator are paced to keep the verifier happy.
type Validator struct {
	client llm.Verifier
	pacer  *llm.Pacer
	usage  *llm.Ledger
	log    *zap.Logger
}

// NewValidator builds a validator around the verification client.
// interval is the minimum spacing between verification calls; ledger
// and log may be nil.
func NewValidator(client llm.Verifier, interval time.Duration, ledger *llm.Ledger, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		client: client,
		pacer:  llm.NewPacer(interval),
		usage:  ledger,
		log:    log,
	}
}

func (v *Validator) Available() bool {
	return v != nil && v.client != nil && v.client.Available()
}

// verify runs one paced verifier call and parses the response. The
// bool result is false when the gate should fall back to a degraded
// outcome (already filled in).
func (v *Validator) verify(ctx context.Context, gate, requestID, prompt string, domains []string) (map[string]any, Outcome, bool) {
	if !v.Available() {
		return nil, Unavailable(gate), false
	}
	if err := v.pacer.Wait(ctx); err != nil {
		return nil, Unavailable(gate), false
	}
	resp, err := v.client.GenerateText(ctx, prompt, llm.Options{DomainFilter: domains})
	if err != nil {
		v.log.Warn("gate call aborted", zap.String("gate", gate), zap.Error(err))
		return nil, Unavailable(gate), false
	}
	v.usage.Record(llm.UsageKey{RequestID: requestID, Step: gate, Provider: v.client.Name()}, prompt, resp)
	if llm.IsErrorText(resp) {
		v.log.Warn("gate provider error", zap.String("gate", gate), zap.String("marker", resp))
		out := Unavailable(gate)
		out.Notes = resp
		return nil, out, false
	}
	res := jsonutil.Normalize(resp)
	if !res.OK() {
		return nil, unparsable(gate, resp), false
	}
	return res.Parsed, Outcome{}, true
}

const relevancePrompt = `You are screening a website before building a buyer persona for it.

Website: %s
Initial impression of the site content:
%s

Judge whether this website represents a real business that personas can
be built for (not a parked domain, link farm, adult site, or placeholder).
Respond with JSON only:
{
  "is_relevant": true/false,
  "confidence": 0-10,
  "reason": "one sentence",
  "recommended_action": "proceed" or "reject"
}`

// CheckRelevance screens the website before any expensive analysis.
func (v *Validator) CheckRelevance(ctx context.Context, requestID, website, content string) Outcome {
	prompt := fmt.Sprintf(relevancePrompt, website, clip(content, 2000))
	payload, fallback, ok := v.verify(ctx, GateRelevance, requestID, prompt, nil)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateRelevance, payload)
}

const websitePrompt = `Fact-check this analysis of the company behind %s against the live web.

Analysis:
%s

Verify the company name, what it sells, and who it sells to. Respond with JSON only:
{
  "is_accurate": true/false,
  "confidence": 0-10,
  "corrections": ["factual corrections, if any"],
  "validation_notes": "summary of what was confirmed or contradicted"
}`

// CheckWebsiteAnalysis verifies a model's website analysis against the
// web, restricted to the company's own domain.
func (v *Validator) CheckWebsiteAnalysis(ctx context.Context, requestID string, analysis map[string]any, website string) Outcome {
	prompt := fmt.Sprintf(websitePrompt, website, compactJSON(analysis, 4000))
	var domains []string
	if d := identity.Domain(website); d != "" {
		domains = []string{d}
	}
	payload, fallback, ok := v.verify(ctx, GateWebsite, requestID, prompt, domains)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateWebsite, payload)
}

const customerFocusPrompt = `The analysis below describes the company at %s.

Analysis:
%s

Does the analysis describe the company's CUSTOMERS and their needs, or
does it only describe the company itself? A buyer persona needs the
customer view. Respond with JSON only:
{
  "passed": true/false,
  "confidence": 0-10,
  "notes": "what customer insight is present or missing",
  "corrections": ["customer segments the analysis overlooked, if any"]
}`

// CheckCustomerFocus checks the analysis looks outward at customers,
// not inward at the company.
func (v *Validator) CheckCustomerFocus(ctx context.Context, requestID string, analysis map[string]any, website string) Outcome {
	prompt := fmt.Sprintf(customerFocusPrompt, website, compactJSON(analysis, 4000))
	payload, fallback, ok := v.verify(ctx, GateCustomerFocus, requestID, prompt, nil)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateCustomerFocus, payload)
}

const crossModelPrompt = `Two independent analyses of the company at %s are given below.

Analysis A:
%s

Analysis B:
%s

Check them against each other and against the live web. Flag claims
where they disagree or where both are wrong. Respond with JSON only:
{
  "is_consistent": true/false,
  "confidence": 0-10,
  "corrections": ["claims needing correction"],
  "validation_notes": "where the analyses agree, diverge, or err"
}`

// CheckCrossModel verifies that two model analyses agree with each
// other and with reality.
func (v *Validator) CheckCrossModel(ctx context.Context, requestID string, a, b map[string]any, website, industry string) Outcome {
	prompt := fmt.Sprintf(crossModelPrompt, website, compactJSON(a, 3000), compactJSON(b, 3000))
	payload, fallback, ok := v.verify(ctx, GateCrossModel, requestID, prompt, IndustryDomains(industry))
	if !ok {
		return fallback
	}
	return outcomeFrom(GateCrossModel, payload)
}

const marketPrompt = `Fact-check this market intelligence for a company at %s in the %q industry.

Market intelligence:
%s

Verify market size claims, competitor names, and trends against
authoritative industry sources. Respond with JSON only:
{
  "is_accurate": true/false,
  "confidence": 0-10,
  "corrections": ["claims that are wrong or outdated"],
  "validation_notes": "what was confirmed and against which sources"
}`

// CheckMarketIntelligence verifies market claims against industry
// authority domains.
func (v *Validator) CheckMarketIntelligence(ctx context.Context, requestID string, market map[string]any, website, industry string) Outcome {
	prompt := fmt.Sprintf(marketPrompt, website, industry, compactJSON(market, 4000))
	payload, fallback, ok := v.verify(ctx, GateMarket, requestID, prompt, IndustryDomains(industry))
	if !ok {
		return fallback
	}
	return outcomeFrom(GateMarket, payload)
}

const valuePrompt = `Check this value-alignment reasoning for the company at %s.

Value alignment:
%s

Do the claimed customer values and buying motivations hold up for this
market? Respond with JSON only:
{
  "passed": true/false,
  "confidence": 0-10,
  "corrections": ["misattributed values, if any"],
  "validation_notes": "assessment"
}`

// CheckValueAlignment verifies the persona's value proposition mapping.
func (v *Validator) CheckValueAlignment(ctx context.Context, requestID string, value map[string]any, website string) Outcome {
	prompt := fmt.Sprintf(valuePrompt, website, compactJSON(value, 4000))
	payload, fallback, ok := v.verify(ctx, GateValue, requestID, prompt, nil)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateValue, payload)
}

const creativePrompt = `Review the creative elements of a buyer persona for the company at %s.

Creative elements:
%s

Are the narrative, quotes, and scenario plausible for this market, free
of fabricated specifics presented as fact? Respond with JSON only:
{
  "passed": true/false,
  "confidence": 0-10,
  "corrections": ["implausible or fabricated details"],
  "validation_notes": "assessment"
}`

// CheckCreativeElements reviews narrative persona content for
// plausibility.
func (v *Validator) CheckCreativeElements(ctx context.Context, requestID string, creative map[string]any, website string) Outcome {
	prompt := fmt.Sprintf(creativePrompt, website, compactJSON(creative, 4000))
	payload, fallback, ok := v.verify(ctx, GateCreative, requestID, prompt, nil)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateCreative, payload)
}

// requiredPersonaFields must all be present and non-empty in a final
// persona.
var requiredPersonaFields = []string{"company", "product_range", "services", "pain_points", "goals"}

// CheckStructure verifies the synthesized persona's shape. It is a pure
// check: no verifier call, always available, and deliberately blind to
// content quality, which is validated after synthesis settles.
func (v *Validator) CheckStructure(persona map[string]any, website string) Outcome {
	var missing []string
	for _, field := range requiredPersonaFields {
		val, ok := persona[field]
		if !ok || jsonutil.IsEmpty(val) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Outcome{
			Gate:        GateStructure,
			Passed:      false,
			Confidence:  2,
			Corrections: missing,
			Notes:       fmt.Sprintf("persona is missing required sections: %v", missing),
			Available:   true,
		}
	}
	return Outcome{
		Gate:       GateStructure,
		Passed:     true,
		Confidence: 9,
		Notes:      "all required persona sections present",
		Available:  true,
	}
}

const finalSynthesisPrompt = `Validate the content depth of a synthesized buyer persona for the company at %s.

Persona:
%s

The structure has already been checked. Judge the CONTENT: are the
company description, offerings, pain points and goals specific to this
company and grounded in its market, or generic filler a template could
have produced? Respond with JSON only:
{
  "passed": true/false,
  "confidence": 0-10,
  "corrections": ["sections that are generic or ungrounded"],
  "validation_notes": "content assessment"
}`

// CheckFinalSynthesis validates the synthesized persona's content depth
// once assembly has settled. It searches within the company's own
// domain plus the industry's authority domains.
func (v *Validator) CheckFinalSynthesis(ctx context.Context, requestID string, persona map[string]any, website, industry string) Outcome {
	prompt := fmt.Sprintf(finalSynthesisPrompt, website, compactJSON(persona, 6000))
	domains := IndustryDomains(industry)
	if d := identity.Domain(website); d != "" {
		domains = append([]string{d}, domains...)
	}
	payload, fallback, ok := v.verify(ctx, GateFinalSynthesis, requestID, prompt, domains)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateFinalSynthesis, payload)
}

const finalPrompt = `Final quality review of a complete buyer persona for the company at %s.

Persona:
%s

Judge overall accuracy, internal consistency, and usefulness for sales
and marketing. Respond with JSON only:
{
  "passed": true/false,
  "confidence": 0-10,
  "corrections": ["the most important fixes, if any"],
  "validation_notes": "overall assessment"
}`

// CheckFinalQuality reviews the assembled persona end to end.
func (v *Validator) CheckFinalQuality(ctx context.Context, requestID string, persona map[string]any, website string) Outcome {
	prompt := fmt.Sprintf(finalPrompt, website, compactJSON(persona, 6000))
	payload, fallback, ok := v.verify(ctx, GateFinal, requestID, prompt, nil)
	if !ok {
		return fallback
	}
	return outcomeFrom(GateFinal, payload)
}

func compactJSON(m map[string]any, limit int) string {
	b, err := jsonutil.MarshalNoEscapeIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return clip(string(b), limit)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n... (truncated)"
}
