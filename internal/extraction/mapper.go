package extraction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/rules"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// MappingResult is the per-turn output of the vibe-to-attribute mapping:
// the merged extraction plus the flat attribute map the matcher consumes.
type MappingResult struct {
	Query             string
	Extraction        *types.ExtractionResult
	FinalAttributes   map[string][]string
	AppliedRules      []rules.AppliedRule
	OverallConfidence float64
	Log               []string
	Errors            []string
}

// addLog appends a processing log message.
func (r *MappingResult) addLog(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// addError appends an error message.
func (r *MappingResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Mapper orchestrates one turn of attribute mapping: extraction service call,
// rule matching, and confidence-weighted merge.
type Mapper struct {
	extractor Extractor
	engine    *rules.Engine
	log       zerolog.Logger
}

// NewMapper creates a mapper over an extractor and a rule engine.
func NewMapper(extractor Extractor, engine *rules.Engine, log zerolog.Logger) *Mapper {
	return &Mapper{extractor: extractor, engine: engine, log: log}
}

// MapQuery converts a query into merged, confidence-scored attributes. An
// extraction service failure degrades to rule-only attributes; it never
// blocks the turn.
func (m *Mapper) MapQuery(ctx context.Context, query string) *MappingResult {
	result := &MappingResult{Query: query}
	result.addLog("processing query: %q", query)

	extracted, err := m.extractor.Extract(ctx, query)
	baseAttributes := make(map[string][]string)
	if err != nil {
		m.log.Warn().Err(err).Str("query", query).Msg("extraction service failed, using rules only")
		result.addError("extraction failed: %v", err)
		result.addLog("falling back to rule-based extraction only")
	} else {
		result.Extraction = extracted
		result.OverallConfidence = extracted.OverallConfidence
		for name, values := range extracted.ExtractedAttributes() {
			baseAttributes[name] = values.Values()
		}
		result.addLog("extraction successful")
	}

	enhanced, applied := m.engine.Enhance(query, baseAttributes)
	result.AppliedRules = applied
	result.FinalAttributes = enhanced
	result.addLog("applied %d matching rules", len(applied))

	Merge(result.Extraction, applied)

	result.addLog("mapping completed")
	return result
}

// ConversationAttributes flattens the mapping result into the accumulated
// per-session attribute shape consumed by the matcher and ranking context.
func (r *MappingResult) ConversationAttributes() types.ConversationAttributes {
	out := types.ConversationAttributes{
		Attributes:        make(map[string][]string),
		ConfidenceScores:  make(map[string][]float64),
		ExtractionQuality: r.OverallConfidence,
		RuleCount:         len(r.AppliedRules),
	}

	if r.Extraction == nil {
		// Rule-only fallback: carry the flat attributes with the rules'
		// boost values as confidences.
		for name, values := range r.FinalAttributes {
			out.Attributes[name] = values
			scores := make([]float64, len(values))
			for i, value := range values {
				scores[i] = ruleConfidenceFor(r.AppliedRules, name, value)
			}
			out.ConfidenceScores[name] = scores
		}
		return out
	}

	for name, values := range r.Extraction.ExtractedAttributes() {
		out.Attributes[name] = values.Values()
		scores := make([]float64, len(values))
		for i, v := range values {
			scores[i] = v.Confidence
		}
		out.ConfidenceScores[name] = scores
	}

	if r.Extraction.ProductName != "" {
		out.ProductInfo.Name = r.Extraction.ProductName
		out.ProductInfo.NameConfidence = r.Extraction.ProductNameConfidence
	}
	if r.Extraction.PriceRange.HasBound() {
		out.ProductInfo.PriceRange = r.Extraction.PriceRange
	}

	return out
}
