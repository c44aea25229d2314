package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/catalog"
	"github.com/vaibhav-asynq/vibe-shopping/internal/config"
	"github.com/vaibhav-asynq/vibe-shopping/internal/conversation"
	"github.com/vaibhav-asynq/vibe-shopping/internal/extraction"
	"github.com/vaibhav-asynq/vibe-shopping/internal/llm"
	"github.com/vaibhav-asynq/vibe-shopping/internal/ranking"
	"github.com/vaibhav-asynq/vibe-shopping/internal/rules"
	"github.com/vaibhav-asynq/vibe-shopping/internal/schema"
)

// agent bundles the wired pipeline for the serve and query commands.
type agent struct {
	manager *conversation.Manager
	client  llm.Client
	log     zerolog.Logger
}

func (a *agent) Close() error {
	return a.client.Close()
}

// loadConfig reads the optional config file and merges defaults.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Defaults()
	if path != "" {
		fileCfg, err := config.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// buildAgent wires the full pipeline from configuration.
func buildAgent(ctx context.Context, cfg config.Config, log zerolog.Logger) (*agent, error) {
	apiKey := cfg.ResolveAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	llmCfg := llm.DefaultConfig()
	if cfg.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, cfg.Model)
	}
	if cfg.TimeoutSeconds > 0 {
		llmCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.Temperature > 0 {
		llmCfg.Temperatures[llm.TierStandard] = float32(cfg.Temperature)
	}

	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	sch, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to load attribute schema: %w", err)
	}

	ruleTable, err := rules.Load(cfg.RulesPath, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to load vibe rules: %w", err)
	}
	var engineOpts []rules.Option
	if cfg.UseFuzzyMatching != nil && !*cfg.UseFuzzyMatching {
		engineOpts = append(engineOpts, rules.WithExactMatching())
	}
	engine := rules.NewEngine(ruleTable, log, engineOpts...)

	cat, err := catalog.Load(cfg.CatalogPath, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info().Int("products", cat.Len()).Msg("catalog loaded")

	extractor := extraction.NewLLMExtractor(client, sch, log)
	mapper := extraction.NewMapper(extractor, engine, log)
	ranker := ranking.NewLLMRanker(client, cfg.FinalCount, log)
	selector := ranking.NewSelector(cat, cfg.ConfidenceThreshold, cfg.CandidateCount, cfg.FinalCount, ranker, log)
	decider := conversation.NewLLMDecider(client, log)
	manager := conversation.NewManager(mapper, decider, selector, cfg.MaxQuestions, log)

	return &agent{manager: manager, client: client, log: log}, nil
}
