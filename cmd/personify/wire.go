package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"personify/internal/config"
	"personify/internal/gates"
	"personify/internal/identity"
	"personify/internal/llm"
	"personify/internal/llmclient"
	"personify/internal/lookup"
	"personify/internal/persona"
	"personify/internal/progress"
	"personify/internal/store"
)

// buildGenerator wires the full pipeline from configuration. In
// offline mode the models and verifier are replaced by local fakes so
// the pipeline runs end to end without keys.
func buildGenerator(ctx context.Context, cfg *config.Config, hub *progress.Hub, log *zap.Logger, offline bool) (*persona.Generator, *store.CustomizationStore, func(), error) {
	usage := llm.NewLedger()

	var gemini, chatgpt llm.Client
	var sonar llm.Verifier
	var broker llm.PermitBroker
	if offline {
		gemini, chatgpt = persona.DemoClients("Demo Industries")
		sonar = llm.NewFakeVerifier("fake-sonar", false)
	} else {
		if cfg.GeminiAPIKey == "" {
			return nil, nil, nil, fmt.Errorf("GEMINI_API_KEY is not set (use --offline for a dry run)")
		}
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, nil, fmt.Errorf("OPENAI_API_KEY is not set (use --offline for a dry run)")
		}
		g, err := llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init gemini: %w", err)
		}
		// Both models draw from one limiter so a run's broker lease
		// pre-pays calls for either of them.
		limiter := llm.LimiterFromEnv("LLM")
		broker = llm.NewBroker(limiter)
		gemini = llm.Wrap(g,
			llm.Retry(3, 500*time.Millisecond),
			llm.RateLimitWith(limiter),
			llm.WithLogging(log),
		)
		chatgpt = llm.Wrap(llmclient.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL),
			llm.Retry(3, 500*time.Millisecond),
			llm.RateLimitWith(limiter),
			llm.WithLogging(log),
		)
		sonar = llmclient.NewSonarClient(cfg.SonarAPIKey, cfg.SonarModel, cfg.SonarBaseURL)
		if !sonar.Available() {
			log.Warn("sonar key missing, quality gates run in degraded mode")
		}
	}

	validator := gates.NewValidator(sonar, cfg.VerifyInterval, usage, log)
	resolver, err := lookup.NewResolver(sonar, log)
	if err != nil {
		return nil, nil, nil, err
	}

	customizations := store.OpenCustomizations(ctx, cfg.CustomizeDSN, cfg.CustomizationsPath, log)

	var profile *config.CompanyProfile
	if cfg.ProfilePath != "" {
		profile, err = config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load company profile: %w", err)
		}
		if ok, missing := profile.Complete(); !ok {
			log.Warn("company profile is incomplete", zap.Strings("missing", missing))
		}
	}

	gen := persona.NewGenerator(persona.Deps{
		Gemini:         gemini,
		ChatGPT:        chatgpt,
		Broker:         broker,
		Validator:      validator,
		Resolver:       resolver,
		Customizations: customizations,
		Progress:       hub,
		Usage:          usage,
		Profile:        profile,
		Log:            log,
		Retries:        cfg.GenRetries,
	})
	cleanup := func() {
		_ = gemini.Close()
		_ = chatgpt.Close()
		_ = sonar.Close()
		_ = customizations.Close()
	}
	return gen, customizations, cleanup, nil
}

// normalizeWebsite rejects inputs no pipeline stage could work with.
func normalizeWebsite(raw string) (string, error) {
	if identity.Domain(raw) == "" {
		return "", fmt.Errorf("invalid website %q", raw)
	}
	return raw, nil
}
