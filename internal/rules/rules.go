// Package rules implements the fashion domain rule engine: a static table of
// vibe rules matched against queries with fuzzy string similarity, producing
// attribute additions and confidence boosts for the extraction stage.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// defaultConfidenceBoost is used when a rule entry omits its boost.
const defaultConfidenceBoost = 0.5

// fileSchema validates the coarse rule file shape: category -> rule name ->
// rule body object. Body fields are checked individually during decode so a
// single malformed rule is skipped rather than failing the whole table.
const fileSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {"type": "object"}
  }
}`

// VibeRule is one fashion domain rule: keywords to match against the query
// and the attribute values the rule contributes when it matches. Rules are
// immutable for the process lifetime.
type VibeRule struct {
	Name             string
	Keywords         []string
	TargetAttributes map[string][]string
	ConfidenceBoost  float64
	Reasoning        string
}

// LoadError reports a rule table that could not be read at all.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rules %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rules %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Load reads the vibe rule table from a JSON file. Categories and rules are
// returned in sorted order so matching is deterministic. Malformed rule
// entries are skipped with a warning and never fail the load.
func Load(path string, log zerolog.Logger) (map[string][]VibeRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "read failed", Cause: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fileSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "schema validation failed", Cause: err}
	}
	if !result.Valid() {
		return nil, &LoadError{Path: path, Message: result.Errors()[0].String()}
	}

	var raw map[string]map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Path: path, Message: "parse failed", Cause: err}
	}

	organized := make(map[string][]VibeRule, len(raw))
	for category, entries := range raw {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			rule, err := parseRule(name, entries[name])
			if err != nil {
				log.Warn().Err(err).
					Str("category", category).
					Str("rule", name).
					Msg("skipping malformed vibe rule")
				continue
			}
			organized[category] = append(organized[category], rule)
		}
	}

	return organized, nil
}

// parseRule builds a VibeRule from one table entry. Keywords are the rule
// name itself plus any of the rule's fabric values, lowercased.
func parseRule(name string, body map[string]any) (VibeRule, error) {
	rule := VibeRule{
		Name:             name,
		Keywords:         []string{strings.ToLower(name)},
		TargetAttributes: make(map[string][]string),
		ConfidenceBoost:  defaultConfidenceBoost,
		Reasoning:        fmt.Sprintf("Rule match for %s", name),
	}

	for field, value := range body {
		switch field {
		case "confidence_boost":
			boost, ok := value.(float64)
			if !ok {
				return VibeRule{}, fmt.Errorf("rule %s: confidence_boost is not a number", name)
			}
			rule.ConfidenceBoost = boost
		case "reasoning":
			if s, ok := value.(string); ok && s != "" {
				rule.Reasoning = s
			}
		default:
			values, err := coerceStringList(value)
			if err != nil {
				return VibeRule{}, fmt.Errorf("rule %s: attribute %s: %w", name, field, err)
			}
			rule.TargetAttributes[field] = values
		}
	}

	for _, fabric := range rule.TargetAttributes["fabric"] {
		rule.Keywords = append(rule.Keywords, strings.ToLower(fabric))
	}

	return rule, nil
}

// coerceStringList accepts either a JSON string or array of strings; scalars
// become single-element lists.
func coerceStringList(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", value)
	}
}
