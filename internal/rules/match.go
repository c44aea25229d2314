package rules

import (
	"sort"
	"strings"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog"
)

const (
	// matchThreshold is the minimum 0-100 similarity for a keyword to count.
	matchThreshold = 80
	// partialMargin: a word-level partial-similarity score is preferred over
	// the plain ratio only when it beats it by more than this margin, which
	// avoids substring false positives on short words.
	partialMargin = 20

	// Length thresholds count runes, not bytes, so accented keywords are
	// measured the same as ASCII ones.
	minKeywordLen = 3
	minWordLen    = 2
)

// AppliedRule pairs a matched rule with its match fraction for the query.
type AppliedRule struct {
	Rule  *VibeRule
	Score float64
}

// Engine matches queries against the loaded rule table.
type Engine struct {
	categories []string
	rules      map[string][]VibeRule
	exactOnly  bool
	log        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithExactMatching disables fuzzy scoring; keywords match by
// case-insensitive substring containment instead.
func WithExactMatching() Option {
	return func(e *Engine) { e.exactOnly = true }
}

// NewEngine creates a rule engine over a loaded rule table.
func NewEngine(rules map[string][]VibeRule, log zerolog.Logger, opts ...Option) *Engine {
	categories := make([]string, 0, len(rules))
	for category := range rules {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	e := &Engine{categories: categories, rules: rules, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match returns every rule whose match fraction for the query is positive,
// in deterministic category/rule order.
func (e *Engine) Match(query string) []AppliedRule {
	var applied []AppliedRule
	for _, category := range e.categories {
		ruleList := e.rules[category]
		for i := range ruleList {
			rule := &ruleList[i]
			score := e.score(rule, query)
			if score > 0 {
				applied = append(applied, AppliedRule{Rule: rule, Score: score})
			}
		}
	}

	if len(applied) > 0 {
		e.log.Debug().Int("applied", len(applied)).Str("query", query).Msg("vibe rules matched")
	}
	return applied
}

// Enhance merges the target attributes of all applied rules into the given
// attribute map: existing attributes gain any new values, absent attributes
// are created. The input map is not mutated.
func (e *Engine) Enhance(query string, attrs map[string][]string) (map[string][]string, []AppliedRule) {
	enhanced := make(map[string][]string, len(attrs))
	for name, values := range attrs {
		enhanced[name] = append([]string(nil), values...)
	}

	applied := e.Match(query)
	for _, ar := range applied {
		for attrName, values := range ar.Rule.TargetAttributes {
			for _, value := range values {
				if !containsString(enhanced[attrName], value) {
					enhanced[attrName] = append(enhanced[attrName], value)
				}
			}
		}
	}

	return enhanced, applied
}

// score computes the rule's match fraction for the query: the sum of
// per-keyword scores (each score/100, only when >= threshold) divided by the
// total keyword count.
func (e *Engine) score(rule *VibeRule, query string) float64 {
	if len(rule.Keywords) == 0 {
		return 0
	}

	queryLower := strings.ToLower(query)

	if e.exactOnly {
		matches := 0
		for _, keyword := range rule.Keywords {
			if strings.Contains(queryLower, strings.ToLower(keyword)) {
				matches++
			}
		}
		return float64(matches) / float64(len(rule.Keywords))
	}

	words := strings.Fields(queryLower)
	var total float64
	for _, keyword := range rule.Keywords {
		keyword = strings.ToLower(keyword)
		if utf8.RuneCountInString(keyword) < minKeywordLen {
			continue
		}

		best := fuzzy.PartialRatio(keyword, queryLower)
		if wordScore := bestWordScore(keyword, words); wordScore > best {
			best = wordScore
		}

		if best >= matchThreshold {
			total += float64(best) / 100.0
		}
	}

	return total / float64(len(rule.Keywords))
}

// bestWordScore scores the keyword against each query word individually and
// returns the best. Plain ratio is the default; the partial score is used
// only when both strings are long enough and it clearly beats the ratio.
func bestWordScore(keyword string, words []string) int {
	best := 0
	keywordRunes := utf8.RuneCountInString(keyword)
	for _, word := range words {
		wordRunes := utf8.RuneCountInString(word)
		if wordRunes < minWordLen {
			continue
		}

		score := fuzzy.Ratio(keyword, word)
		if wordRunes >= minKeywordLen && keywordRunes >= minKeywordLen {
			if partial := fuzzy.PartialRatio(keyword, word); partial > score+partialMargin {
				score = partial
			}
		}

		if score > best {
			best = score
		}
	}
	return best
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
