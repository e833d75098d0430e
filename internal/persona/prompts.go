package persona

const geminiAnalysisPrompt = `Analyze the business behind the website %s%s.

Work from the website content and what you know about this company.
Respond with JSON only:
{
  "company_overview": {
    "name": "official company name",
    "industry": "primary industry",
    "size_estimate": "employee range",
    "locations": ["main locations"]
  },
  "product_range": ["concrete products or product lines"],
  "services": ["services offered"],
  "target_customers": ["customer segments this company sells to"],
  "customer_pain_points": ["problems the customers are trying to solve"],
  "customer_goals": ["outcomes the customers want"],
  "positioning": "how the company positions itself",
  "summary": "two-sentence summary"
}`

const chatgptAnalysisPrompt = `You are profiling the company that operates %s%s.

Produce an independent business analysis. Respond with JSON only:
{
  "business_analysis": {
    "company_name": "official company name",
    "business_model": "how the company makes money",
    "market_position": "challenger / leader / niche"
  },
  "product_range": ["products or product lines"],
  "services": ["services offered"],
  "target_customers": ["who buys from this company"],
  "customer_pain_points": ["customer problems"],
  "customer_goals": ["customer goals"],
  "summary": "two-sentence summary"
}`

const crossSynthesisPrompt = `Two independent analyses of the company at %s are given below.

Analysis A (first model):
%s

Analysis B (second model):
%s

Merge them into one consolidated view, preferring claims both agree on
and marking single-source claims. Respond with JSON only:
{
  "company_name": "agreed company name",
  "product_range": ["consolidated products"],
  "services": ["consolidated services"],
  "target_customers": ["consolidated segments"],
  "customer_pain_points": ["consolidated pain points"],
  "customer_goals": ["consolidated goals"],
  "single_source_claims": ["claims only one analysis made"],
  "summary": "consolidated summary"
}`

const marketIntelligencePrompt = `Build market intelligence for the company at %s operating in the %q industry.

Consolidated company view:
%s

Respond with JSON only:
{
  "market_intelligence": {
    "market_size": "size of the relevant market with timeframe",
    "growth_trends": ["current trends"],
    "competitors": ["main competitors"],
    "buying_process": "how customers in this market typically buy",
    "decision_makers": ["typical decision-maker roles"]
  },
  "sources_note": "what this is based on",
  "summary": "two-sentence market summary"
}`

// Value-alignment workflow step prompts. Each step consumes the output
// of the previous one through the executor's state map.
const customerProfilePrompt = `From the consolidated company view below, profile the typical buyer.

Company view:
%s

Respond with JSON only:
{
  "customer_profile": {
    "role": "typical buyer role",
    "seniority": "seniority level",
    "responsibilities": ["day-to-day responsibilities"],
    "success_measures": ["how this buyer is measured"]
  },
  "summary": "one-sentence profile"
}`

const valueHypothesesPrompt = `Given this buyer profile and market intelligence, list what this buyer values most.

Buyer profile:
%s

Market intelligence:
%s

Respond with JSON only:
{
  "value_hypotheses": [
    {"value": "what the buyer values", "because": "why, tied to their role or market"}
  ],
  "summary": "one-sentence synthesis"
}`

const alignmentMatrixPrompt = `Map the company's offering onto the buyer's values.

Company view:
%s

Value hypotheses:
%s

Respond with JSON only:
{
  "alignment_matrix": [
    {"offering": "product or service", "buyer_value": "value it serves", "strength": "strong/moderate/weak"}
  ],
  "gaps": ["buyer values nothing in the offering serves"],
  "summary": "one-sentence conclusion"
}`

const creativeElementsPrompt = `Write the narrative elements of a buyer persona for a customer of the company at %s.

Consolidated view:
%s

Value alignment:
%s

Respond with JSON only:
{
  "persona_name": "plausible first name and role, e.g. 'Procurement Lead Dana'",
  "narrative": "one-paragraph day-in-the-life grounded in the pain points",
  "quotes": ["two short first-person quotes this persona might say"],
  "buying_scenario": "short scenario of how this persona discovers and buys"
}`

const finalSynthesisPrompt = `Assemble the final buyer persona for customers of the company at %s.

Consolidated company view:
%s

Market intelligence:
%s

Value alignment:
%s

Creative elements:
%s

Respond with JSON only, using exactly these top-level keys:
{
  "company": {"name": "...", "industry": "...", "summary": "..."},
  "product_range": ["..."],
  "services": ["..."],
  "pain_points": ["customer pain points"],
  "goals": ["customer goals"],
  "persona_profile": {
    "name": "...",
    "role": "...",
    "narrative": "...",
    "quotes": ["..."],
    "buying_scenario": "..."
  },
  "market_context": {"market_size": "...", "competitors": ["..."], "trends": ["..."]}
}`
