package extraction

import (
	"github.com/vaibhav-asynq/vibe-shopping/internal/rules"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

const (
	// boostDamping scales a rule's confidence boost when it confirms a value
	// the extraction service already produced.
	boostDamping = 0.15
	// ambiguousRuleConfidence is assigned to a rule-contributed value when no
	// applied rule can be identified as its source.
	ambiguousRuleConfidence = 0.6
)

// Merge reconciles rule-engine additions into an extraction result. For each
// applied rule's target values: a value the service already extracted gets a
// damped confidence boost, capped at 1.0; a value the service did not extract
// is appended with the originating rule's confidence boost as its confidence.
// The result is mutated in place; confidences only move upward.
func Merge(result *types.ExtractionResult, applied []rules.AppliedRule) {
	if result == nil {
		return
	}

	// Snapshot the values the service produced before any rule runs. The
	// damped boost applies only to these; a value appended by one rule is
	// not re-boosted when a later rule targets it too.
	extracted := make(map[string]map[string]bool)
	for _, name := range types.AttributeNames() {
		values := result.Get(name)
		if len(values) == 0 {
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v.Value] = true
		}
		extracted[name] = set
	}

	for _, ar := range applied {
		for attrName, ruleValues := range ar.Rule.TargetAttributes {
			if !isKnownAttribute(attrName) {
				continue
			}
			existing := result.Get(attrName)

			for i := range existing {
				if !extracted[attrName][existing[i].Value] {
					continue
				}
				if containsValue(ruleValues, existing[i].Value) {
					boosted := existing[i].Confidence + ar.Rule.ConfidenceBoost*boostDamping
					if boosted > 1.0 {
						boosted = 1.0
					}
					existing[i].Confidence = boosted
				}
			}

			for _, value := range ruleValues {
				if existing.Contains(value) {
					continue
				}
				existing = append(existing, types.AttributeValue{
					Value:      value,
					Confidence: ruleConfidenceFor(applied, attrName, value),
				})
			}
			result.Set(attrName, existing)
		}
	}
}

// ruleConfidenceFor finds the confidence boost of the first applied rule that
// contributed the value, falling back to the ambiguous default.
func ruleConfidenceFor(applied []rules.AppliedRule, attrName, value string) float64 {
	for _, ar := range applied {
		if containsValue(ar.Rule.TargetAttributes[attrName], value) {
			return ar.Rule.ConfidenceBoost
		}
	}
	return ambiguousRuleConfidence
}

func isKnownAttribute(name string) bool {
	for _, known := range types.AttributeNames() {
		if known == name {
			return true
		}
	}
	return false
}

func containsValue(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
