package matching

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/catalog"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// DefaultTargetCount is the candidate count a standalone matcher aims for.
// The two-stage selector overrides it.
const DefaultTargetCount = 8

// Matcher applies progressive constraint relaxation against the catalog.
type Matcher struct {
	catalog   *catalog.Catalog
	threshold float64
	target    int
	log       zerolog.Logger
}

// NewMatcher creates a matcher. A non-positive threshold or target selects
// the defaults.
func NewMatcher(cat *catalog.Catalog, threshold float64, target int, log zerolog.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if target <= 0 {
		target = DefaultTargetCount
	}
	return &Matcher{catalog: cat, threshold: threshold, target: target, log: log}
}

// Target returns the configured candidate target count.
func (m *Matcher) Target() int { return m.target }

// FindCandidates prepares filters from the attribute map and relaxes them
// progressively until the target candidate count is reached or every filter
// has been dropped. The result order follows catalog load order; candidates
// are truncated to the target as soon as it is met, leaving fine-grained
// ordering to the ranking stage.
func (m *Matcher) FindCandidates(attrs types.ConversationAttributes) []*types.Product {
	filters := PrepareFilters(attrs, m.threshold)
	m.log.Debug().Int("filters", len(filters)).Int("target", m.target).Msg("progressive matching started")
	return m.relax(filters)
}

// relax runs the relaxation loop. Each iteration strictly shrinks the filter
// set, so the loop terminates within len(filters)+1 passes.
func (m *Matcher) relax(filters []Filter) []*types.Product {
	active := make([]Filter, len(filters))
	copy(active, filters)

	// Lowest confidence drops first; stable sort keeps input order on ties.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Confidence() < active[j].Confidence()
	})

	for {
		results := m.applyAll(active)

		if len(results) >= m.target {
			m.log.Debug().Int("candidates", len(results)).Int("remaining_filters", len(active)).Msg("target reached")
			return results[:m.target]
		}

		if len(active) == 0 {
			m.log.Debug().Int("candidates", len(results)).Msg("filters exhausted")
			return results
		}

		dropped := active[0]
		active = active[1:]
		m.log.Debug().
			Str("filter", dropped.Name()).
			Float64("confidence", dropped.Confidence()).
			Int("remaining", len(active)).
			Msg("relaxing filter")
	}
}

// applyAll runs every active filter over the full catalog.
func (m *Matcher) applyAll(active []Filter) []*types.Product {
	results := m.catalog.Products()
	for _, f := range active {
		results = f.Apply(results)
	}
	return results
}
