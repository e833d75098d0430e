package persona

import (
	"fmt"
	"strings"

	"personify/internal/llm"
)

// DemoClients returns offline stand-ins for the two analysis models,
// producing consistent claims for the given company so a full pipeline
// run completes without any API key. The responses key off schema
// markers in the prompts.
func DemoClients(company string) (llm.Client, llm.Client) {
	gemini := llm.NewFakeClient("fake-gemini")
	gemini.Fn = func(prompt string) string { return demoResponse(prompt, company) }
	chatgpt := llm.NewFakeClient("fake-chatgpt")
	chatgpt.Fn = func(prompt string) string { return demoResponse(prompt, company) }
	return gemini, chatgpt
}

func demoResponse(prompt, company string) string {
	switch {
	case strings.Contains(prompt, `"company_overview"`):
		return fmt.Sprintf(`{
  "company_overview": {"name": %q, "industry": "manufacturing", "size_estimate": "200-500", "locations": ["Berlin"]},
  "product_range": ["signal processors", "control systems"],
  "services": ["installation support", "training"],
  "target_customers": ["system integrators", "facility managers"],
  "customer_pain_points": ["integration complexity", "long procurement cycles"],
  "customer_goals": ["reliable deployments", "predictable budgets"],
  "positioning": "premium niche supplier",
  "summary": "%s builds professional hardware for integrators."
}`, company, company)
	case strings.Contains(prompt, `"business_analysis"`):
		return fmt.Sprintf(`{
  "business_analysis": {"company_name": %q, "business_model": "b2b hardware sales", "market_position": "niche"},
  "product_range": ["signal processors"],
  "services": ["training"],
  "target_customers": ["system integrators"],
  "customer_pain_points": ["integration complexity"],
  "customer_goals": ["reliable deployments"],
  "summary": "%s sells hardware to integrators."
}`, company, company)
	case strings.Contains(prompt, `"single_source_claims"`):
		return fmt.Sprintf(`{
  "company_name": %q,
  "product_range": ["signal processors", "control systems"],
  "services": ["installation support", "training"],
  "target_customers": ["system integrators"],
  "customer_pain_points": ["integration complexity", "long procurement cycles"],
  "customer_goals": ["reliable deployments"],
  "single_source_claims": [],
  "summary": "consolidated view"
}`, company)
	case strings.Contains(prompt, `"market_intelligence"`):
		return `{
  "market_intelligence": {
    "market_size": "USD 12B by 2027",
    "growth_trends": ["convergence with IT"],
    "competitors": ["Crestron", "Extron"],
    "buying_process": "tender driven",
    "decision_makers": ["technical director"]
  },
  "sources_note": "demo data",
  "summary": "steady growth market"
}`
	case strings.Contains(prompt, `"customer_profile"`):
		return `{"customer_profile": {"role": "technical director", "seniority": "senior", "responsibilities": ["system design"], "success_measures": ["on-time delivery"]}, "summary": "senior technical buyer"}`
	case strings.Contains(prompt, `"value_hypotheses"`):
		return `{"value_hypotheses": [{"value": "reliability", "because": "downtime is contractually penalized"}], "summary": "reliability first"}`
	case strings.Contains(prompt, `"alignment_matrix"`):
		return `{"alignment_matrix": [{"offering": "signal processors", "buyer_value": "reliability", "strength": "strong"}], "gaps": [], "summary": "offering aligns with reliability"}`
	case strings.Contains(prompt, `"persona_name"`):
		return `{"persona_name": "Technical Director Jonas", "narrative": "Jonas plans AV rollouts across sites.", "quotes": ["I need gear that just works.", "Integration time kills margins."], "buying_scenario": "Evaluates vendors after a failed rollout."}`
	case strings.Contains(prompt, "exactly these top-level keys"):
		return fmt.Sprintf(`{
  "company": {"name": %q, "industry": "manufacturing", "summary": "demo summary"},
  "product_range": ["signal processors", "control systems"],
  "services": ["installation support", "training"],
  "pain_points": ["integration complexity", "long procurement cycles"],
  "goals": ["reliable deployments", "predictable budgets"],
  "persona_profile": {"name": "Jonas", "role": "technical director", "narrative": "demo", "quotes": ["works"], "buying_scenario": "demo"},
  "market_context": {"market_size": "USD 12B", "competitors": ["Crestron"], "trends": ["IT convergence"]}
}`, company)
	default:
		return `{"summary": "demo"}`
	}
}
