package persona

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"personify/internal/config"
	"personify/internal/gates"
	"personify/internal/identity"
	"personify/internal/llm"
	"personify/internal/lookup"
	"personify/internal/merge"
	"personify/internal/progress"
	"personify/internal/store"
	"personify/internal/util/jsonutil"
	"personify/internal/workflow"
)

// Request describes one persona generation run.
type Request struct {
	Website             string
	Industry            string
	VerifiedCompanyName string
	RequestID           string
}

// Deps wires the generator. Gemini, ChatGPT and Validator are
// required; everything else degrades to a no-op when nil.
type Deps struct {
	Gemini         llm.Client
	ChatGPT        llm.Client
	Broker         llm.PermitBroker
	Validator      *gates.Validator
	Resolver       *lookup.Resolver
	Customizations *store.CustomizationStore
	Progress       *progress.Hub
	Usage          *llm.Ledger
	Profile        *config.CompanyProfile
	Log            *zap.Logger

	// Retries bounds re-attempts per primary generation call.
	Retries    int
	RetryDelay time.Duration
}

// Generator runs the full persona pipeline: screen, analyze with two
// models in parallel, hard-stop on identity mismatch, then synthesize
// through a chain of soft-failing quality gates.
type Generator struct {
	d Deps
}

func NewGenerator(d Deps) *Generator {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Retries <= 0 {
		d.Retries = 2
	}
	if d.RetryDelay <= 0 {
		d.RetryDelay = 3 * time.Second
	}
	return &Generator{d: d}
}

// Generate produces a persona artifact for the request. The error
// return covers context cancellation and unusable wiring only; every
// content-level failure is encoded in the artifact's status.
func (g *Generator) Generate(ctx context.Context, req Request) (map[string]any, error) {
	if req.Website == "" {
		return nil, fmt.Errorf("persona: website is required")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	log := g.d.Log.With(zap.String("request_id", req.RequestID), zap.String("website", req.Website))
	start := time.Now()
	timings := map[string]any{}
	step := func(name string, number float64) func() {
		g.d.Progress.Publish(req.RequestID, name, number, "running")
		begin := time.Now()
		return func() { timings[name] = time.Since(begin).Seconds() }
	}
	tracker := gates.NewTracker(log)
	var outcomes []gates.Outcome

	// Relevance screen. Runs before any expensive model call; a site
	// that fails it is rejected outright.
	done := step("relevance_screen", 0)
	relevance := g.d.Validator.CheckRelevance(ctx, req.RequestID, req.Website, g.profileContext())
	done()
	outcomes = append(outcomes, relevance)
	if relevance.Available && !relevance.Passed {
		log.Info("website rejected for relevance")
		g.d.Progress.Publish(req.RequestID, "rejected", 0, "done")
		return RelevanceRejection(req.RequestID, req.Website, relevance), nil
	}

	// Dual-model analysis, fanned out. The run claims its fan-out
	// permits from the shared limiter up front so neither branch stalls
	// mid-flight behind other runs.
	done = step("model_analysis", 1)
	if g.d.Broker != nil {
		lease, err := g.d.Broker.Reserve(ctx, 2)
		if err != nil {
			return nil, err
		}
		ctx = lease.Context(ctx)
	}
	var geminiAnalysis, chatgptAnalysis map[string]any
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		geminiAnalysis, err = g.generateJSON(egCtx, g.d.Gemini, "gemini_analysis", req.RequestID,
			fmt.Sprintf(geminiAnalysisPrompt, req.Website, g.profileContext()))
		return err
	})
	eg.Go(func() error {
		var err error
		chatgptAnalysis, err = g.generateJSON(egCtx, g.d.ChatGPT, "chatgpt_analysis", req.RequestID,
			fmt.Sprintf(chatgptAnalysisPrompt, req.Website, g.profileContext()))
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	done()

	// Gemini is the primary model; losing it after retries means the
	// run falls back rather than fabricating a persona from one source.
	if msg, failed := failedAnalysis(geminiAnalysis); failed {
		log.Warn("primary analysis failed after retries", zap.String("error", msg))
		g.d.Progress.Publish(req.RequestID, "fallback", 1, "done")
		return Fallback(req.RequestID, req.Website, msg), nil
	}

	// Website-analysis verification and customer-focus gate. These run
	// before the identity checkpoint so the hard stop judges an analysis
	// that has already been screened for customer focus.
	done = step("website_validation", 1.25)
	webOutcome := g.d.Validator.CheckWebsiteAnalysis(ctx, req.RequestID, geminiAnalysis, req.Website)
	focusOutcome := g.d.Validator.CheckCustomerFocus(ctx, req.RequestID, geminiAnalysis, req.Website)
	done()
	outcomes = append(outcomes, webOutcome, focusOutcome)
	validatedAnalysis := merge.WithValidation("website_analysis", geminiAnalysis, webOutcome)

	// Identity checkpoint. The single hard stop of the pipeline.
	done = step("identity_checkpoint", 1.5)
	checkpoint := identity.NewCheckpoint(g.resolveFunc(), log)
	idRes := checkpoint.Validate(ctx, geminiAnalysis, chatgptAnalysis, req.Website, req.VerifiedCompanyName)
	done()
	if checkpoint.State() == identity.StateHardStopped {
		g.d.Progress.Publish(req.RequestID, "rejected", 1.5, "done")
		return MismatchRejection(req.RequestID, req.Website, idRes), nil
	}

	// Cross-model synthesis, then the agreement gate over both inputs.
	done = step("cross_model_synthesis", 2)
	combined, err := g.generateJSON(ctx, g.d.Gemini, "cross_synthesis", req.RequestID,
		fmt.Sprintf(crossSynthesisPrompt, req.Website, compact(geminiAnalysis), compact(chatgptAnalysis)))
	if err != nil {
		return nil, err
	}
	if combined == nil {
		combined = geminiAnalysis
	}
	done()
	done = step("cross_model_gate", 2.5)
	crossOutcome := g.d.Validator.CheckCrossModel(ctx, req.RequestID, geminiAnalysis, chatgptAnalysis, req.Website, req.Industry)
	done()
	outcomes = append(outcomes, crossOutcome)

	// Market intelligence. Empty results defer their validation until
	// after synthesis instead of failing here.
	done = step("market_intelligence", 3)
	market, err := g.generateJSON(ctx, g.d.Gemini, "market_intelligence", req.RequestID,
		fmt.Sprintf(marketIntelligencePrompt, req.Website, req.Industry, compact(combined)))
	if err != nil {
		return nil, err
	}
	done()
	if gates.MarketDataEmpty(market) {
		tracker.Defer("market_intelligence", gates.DeferMarketIntelligence, "market_intelligence", req.Website, req.Industry)
	} else {
		done = step("market_gate", 3.5)
		marketOutcome := g.d.Validator.CheckMarketIntelligence(ctx, req.RequestID, market, req.Website, req.Industry)
		done()
		outcomes = append(outcomes, marketOutcome)
		market = merge.WithValidation("market_intelligence", market, marketOutcome)
	}

	// Value alignment runs as a three-step workflow so a mid-chain
	// failure still yields partial state and reasoning.
	done = step("value_alignment", 4)
	value := g.runValueAlignment(ctx, req, combined, market)
	done()
	done = step("value_gate", 4.5)
	valueOutcome := g.d.Validator.CheckValueAlignment(ctx, req.RequestID, value, req.Website)
	done()
	outcomes = append(outcomes, valueOutcome)
	value = merge.WithValidation("value_alignment", value, valueOutcome)

	// Creative elements from the second model.
	done = step("creative_elements", 5)
	creative, err := g.generateJSON(ctx, g.d.ChatGPT, "creative_elements", req.RequestID,
		fmt.Sprintf(creativeElementsPrompt, req.Website, compact(combined), compact(value)))
	if err != nil {
		return nil, err
	}
	done()
	done = step("creative_gate", 5.5)
	creativeOutcome := g.d.Validator.CheckCreativeElements(ctx, req.RequestID, creative, req.Website)
	done()
	outcomes = append(outcomes, creativeOutcome)
	creative = merge.WithValidation("creative_elements", creative, creativeOutcome)

	// Final synthesis. A synthesis failure assembles from parts.
	done = step("final_synthesis", 6)
	final, err := g.generateJSON(ctx, g.d.Gemini, "final_synthesis", req.RequestID,
		fmt.Sprintf(finalSynthesisPrompt, req.Website, compact(combined), compact(market), compact(value), compact(creative)))
	if err != nil {
		return nil, err
	}
	if msg, failed := failedAnalysis(final); failed {
		log.Warn("final synthesis failed, assembling from parts", zap.String("error", msg))
		final = assembleFromParts(combined, creative, req.VerifiedCompanyName)
	}
	done()

	artifact := g.assemble(req, final, validatedAnalysis, chatgptAnalysis, combined, market, value, creative)

	// Structure-only check now. Content depth of the synthesis is
	// always validated deferred, once the persona has settled.
	done = step("structure_check", 6.5)
	structOutcome := g.d.Validator.CheckStructure(artifact, req.Website)
	done()
	outcomes = append(outcomes, structOutcome)
	tracker.Defer("final_synthesis", gates.DeferFinalContent, "", req.Website, req.Industry)

	// Industry customizations overlay.
	done = step("customization", 7)
	if g.d.Customizations != nil && req.Industry != "" {
		if err := g.d.Customizations.Apply(ctx, artifact, req.Industry); err != nil {
			log.Warn("customization overlay failed", zap.Error(err))
		}
	}
	done()

	// Drain deferred validations against the assembled persona.
	done = step("deferred_validations", 7.5)
	outcomes = append(outcomes, tracker.Drain(ctx, artifact, g.d.Validator, req.RequestID)...)
	done()

	// Final end-to-end quality review.
	done = step("final_quality", 8)
	finalOutcome := g.d.Validator.CheckFinalQuality(ctx, req.RequestID, artifact, req.Website)
	done()
	outcomes = append(outcomes, finalOutcome)

	summary := merge.Aggregate(outcomes)
	checks := make([]map[string]any, 0, len(outcomes))
	for _, o := range outcomes {
		checks = append(checks, o.Map())
	}
	artifact["sonar_quality_checks"] = checks
	artifact["sonar_validation_summary"] = summary.Map()
	if len(tracker.Tasks()) > 0 {
		artifact["deferred_validations"] = tracker.Summary()
	}
	artifact["enhanced_metadata"] = map[string]any{
		"request_id":               req.RequestID,
		"generated_at":             time.Now().UTC().Format(time.RFC3339),
		"elapsed_seconds":          time.Since(start).Seconds(),
		"sonar_overall_confidence": summary.OverallConfidence,
		"sonar_validations_passed": summary.Passed,
		"sonar_validations_failed": summary.Failed,
		"validations_total":        summary.Total,
		"identity_validation":      idRes,
		"llm_calls":                g.d.Usage.TotalCalls(req.RequestID),
		"llm_calls_by_provider":    g.d.Usage.CallsByProvider(req.RequestID),
		"step_timings":             timings,
	}

	g.d.Progress.Publish(req.RequestID, "completed", 8, "done")
	log.Info("persona generated",
		zap.Float64("overall_confidence", summary.OverallConfidence),
		zap.Int("validations_total", summary.Total),
		zap.Duration("elapsed", time.Since(start)))
	return artifact, nil
}

// generateJSON calls a primary model with bounded retries and a short
// delay, parsing the response into an object. Marker responses and
// unparsable output both count as retriable failures; exhaustion
// returns a tagged failure map, not an error.
func (g *Generator) generateJSON(ctx context.Context, client llm.Client, stepName, requestID, prompt string) (map[string]any, error) {
	var lastNote string
	for attempt := 0; attempt <= g.d.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.d.RetryDelay):
			}
		}
		resp, err := client.GenerateText(ctx, prompt, llm.Options{})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastNote = err.Error()
			continue
		}
		g.d.Usage.Record(llm.UsageKey{RequestID: requestID, Step: stepName, Provider: client.Name()}, prompt, resp)
		if llm.IsErrorText(resp) {
			lastNote = resp
			continue
		}
		res := jsonutil.Normalize(resp)
		if res.OK() {
			return res.Parsed, nil
		}
		lastNote = res.Err
	}
	g.d.Log.Warn("generation failed after retries",
		zap.String("step", stepName), zap.String("client", client.Name()), zap.String("error", lastNote))
	return map[string]any{"error": fmt.Sprintf("%s failed after %d attempts: %s", stepName, g.d.Retries+1, lastNote)}, nil
}

// runValueAlignment chains profile -> hypotheses -> matrix through the
// step executor, so partial failures keep their reasoning trail.
func (g *Generator) runValueAlignment(ctx context.Context, req Request, combined, market map[string]any) map[string]any {
	exec := workflow.New(g.d.Log,
		workflow.Step{
			Name:    "customer_profile",
			Inputs:  []string{"company_view"},
			Output:  "customer_profile",
			Default: map[string]any{},
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return g.generateJSON(ctx, g.d.Gemini, "customer_profile", req.RequestID,
					fmt.Sprintf(customerProfilePrompt, compactAny(in["company_view"])))
			},
		},
		workflow.Step{
			Name:    "value_hypotheses",
			Inputs:  []string{"customer_profile", "market_intelligence"},
			Output:  "value_hypotheses",
			Default: map[string]any{},
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return g.generateJSON(ctx, g.d.ChatGPT, "value_hypotheses", req.RequestID,
					fmt.Sprintf(valueHypothesesPrompt, compactAny(in["customer_profile"]), compactAny(in["market_intelligence"])))
			},
		},
		workflow.Step{
			Name:    "alignment_matrix",
			Inputs:  []string{"company_view", "value_hypotheses"},
			Output:  "alignment_matrix",
			Default: map[string]any{},
			Run: func(ctx context.Context, in map[string]any) (any, error) {
				return g.generateJSON(ctx, g.d.Gemini, "alignment_matrix", req.RequestID,
					fmt.Sprintf(alignmentMatrixPrompt, compactAny(in["company_view"]), compactAny(in["value_hypotheses"])))
			},
		},
	)
	return exec.Run(ctx, map[string]any{
		"company_view":        combined,
		"market_intelligence": market,
	})
}

// assemble builds the artifact around the synthesized persona, pulling
// required sections up to the top level and attaching every stage.
func (g *Generator) assemble(req Request, final, analysis, chatgptAnalysis, combined, market, value, creative map[string]any) map[string]any {
	artifact := map[string]any{
		"status":     StatusCompleted,
		"request_id": req.RequestID,
		"website":    req.Website,
		"industry":   req.Industry,
	}
	for _, key := range []string{"company", "product_range", "services", "pain_points", "goals", "persona_profile", "market_context"} {
		if v, ok := final[key]; ok && !jsonutil.IsEmpty(v) {
			artifact[key] = v
			continue
		}
		switch key {
		case "company":
			artifact[key] = map[string]any{"name": identity.CompanyName(combined, req.VerifiedCompanyName), "industry": req.Industry}
		case "persona_profile", "market_context":
			// optional sections stay absent when synthesis omitted them
		default:
			if v, ok := combined[key]; ok && !jsonutil.IsEmpty(v) {
				artifact[key] = v
			} else if key == "pain_points" {
				artifact[key] = valueOr(combined["customer_pain_points"], []any{})
			} else if key == "goals" {
				artifact[key] = valueOr(combined["customer_goals"], []any{})
			} else {
				artifact[key] = []any{}
			}
		}
	}
	artifact["analysis"] = analysis
	artifact["chatgpt_analysis"] = chatgptAnalysis
	artifact["consolidated_view"] = combined
	artifact["market_intelligence"] = market
	artifact["value_alignment"] = value
	artifact["creative_elements"] = creative
	return artifact
}

func (g *Generator) resolveFunc() identity.ResolveOwnerFunc {
	if g.d.Resolver == nil {
		return nil
	}
	return g.d.Resolver.ResolveFunc()
}

// profileContext renders the operator's own company context for
// prompts, when a profile is configured.
func (g *Generator) profileContext() string {
	if g.d.Profile == nil {
		return ""
	}
	return "\n\nContext about the requesting company:\n" + g.d.Profile.Context()
}

// failedAnalysis reports whether a generation result is a tagged
// failure rather than usable content.
func failedAnalysis(m map[string]any) (string, bool) {
	if m == nil {
		return "no result", true
	}
	if msg, ok := m["error"]; ok && msg != nil && msg != "" {
		return fmt.Sprint(msg), true
	}
	return "", false
}

// assembleFromParts builds a minimal final persona when synthesis
// itself failed but the upstream stages succeeded.
func assembleFromParts(combined, creative map[string]any, fallbackName string) map[string]any {
	return map[string]any{
		"company": map[string]any{
			"name":    identity.CompanyName(combined, fallbackName),
			"summary": valueOr(combined["summary"], ""),
		},
		"product_range":   valueOr(combined["product_range"], []any{}),
		"services":        valueOr(combined["services"], []any{}),
		"pain_points":     valueOr(combined["customer_pain_points"], []any{}),
		"goals":           valueOr(combined["customer_goals"], []any{}),
		"persona_profile": creative,
	}
}

func valueOr(v, fallback any) any {
	if jsonutil.IsEmpty(v) {
		return fallback
	}
	return v
}

func compact(m map[string]any) string {
	b, err := jsonutil.MarshalNoEscapeIndent(m, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	s := string(b)
	if len(s) > 4000 {
		s = s[:4000] + "\n... (truncated)"
	}
	return s
}

func compactAny(v any) string {
	if m, ok := v.(map[string]any); ok {
		return compact(m)
	}
	return fmt.Sprintf("%v", v)
}
