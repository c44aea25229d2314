// Package extraction turns free-text shopping queries into merged,
// confidence-scored attribute maps by combining the extraction service's
// structured output with the rule engine's additions.
package extraction

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/llm"
	"github.com/vaibhav-asynq/vibe-shopping/internal/prompts"
	"github.com/vaibhav-asynq/vibe-shopping/internal/schema"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// Extractor is the narrow client boundary to the extraction service. Tests
// mock this interface; the pipeline never calls a live service in its tests.
type Extractor interface {
	Extract(ctx context.Context, query string) (*types.ExtractionResult, error)
}

// LLMExtractor implements Extractor against the shared LLM client.
type LLMExtractor struct {
	client llm.Client
	schema *schema.Schema
	log    zerolog.Logger
}

// NewLLMExtractor creates an extractor using the given client and attribute
// schema.
func NewLLMExtractor(client llm.Client, s *schema.Schema, log zerolog.Logger) *LLMExtractor {
	return &LLMExtractor{client: client, schema: s, log: log}
}

// Extract calls the extraction service once with the query and the full
// attribute schema as context. Any failure returns an ExtractionError; the
// caller degrades to an empty extraction.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (*types.ExtractionResult, error) {
	template := prompts.MustGet("extraction.json", "extract-attributes")
	prompt := prompts.Format(template, map[string]string{
		"Schema": e.schema.PromptContext(),
		"Query":  query,
	})

	raw, err := e.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &ExtractionError{Message: "service call failed", Cause: err}
	}

	var result types.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &ExtractionError{Message: "malformed response", Cause: err}
	}
	if result.Reasoning == "" {
		return nil, &ExtractionError{Message: "response missing reasoning"}
	}

	result.ClampConfidences()
	e.dropInvalidValues(&result)

	if pr := result.PriceRange; pr != nil {
		if err := pr.Validate(); err != nil {
			e.log.Warn().Err(err).Str("query", query).Msg("dropping invalid extracted price range")
			result.PriceRange = nil
		}
	}

	return &result, nil
}

// dropInvalidValues removes extracted values the attribute schema does not
// allow. Attributes absent from the schema file are left unvalidated.
func (e *LLMExtractor) dropInvalidValues(result *types.ExtractionResult) {
	for _, name := range types.AttributeNames() {
		values := result.Get(name)
		if len(values) == 0 || len(e.schema.Values(name)) == 0 {
			continue
		}

		kept := values[:0]
		for _, v := range values {
			if e.schema.Valid(name, v.Value) {
				kept = append(kept, v)
			} else {
				e.log.Debug().Str("attribute", name).Str("value", v.Value).Msg("dropping value not in schema")
			}
		}
		result.Set(name, kept)
	}
}
