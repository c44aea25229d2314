package ranking

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/catalog"
	"github.com/vaibhav-asynq/vibe-shopping/internal/matching"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

const (
	// DefaultCandidateCount is the Stage 1 candidate pool size.
	DefaultCandidateCount = 15
	// DefaultFinalCount is the Stage 2 recommendation list size.
	DefaultFinalCount = 5
)

// Selector is the two-stage recommendation process: progressive matching for
// a diverse candidate pool, then service-side ranking for the final list.
type Selector struct {
	matcher    *matching.Matcher
	ranker     Ranker
	finalCount int
	log        zerolog.Logger
}

// NewSelector creates a selector. Non-positive counts select the defaults.
// The ranker may be nil, in which case Stage 2 is always skipped.
func NewSelector(cat *catalog.Catalog, threshold float64, candidateCount, finalCount int, ranker Ranker, log zerolog.Logger) *Selector {
	if candidateCount <= 0 {
		candidateCount = DefaultCandidateCount
	}
	if finalCount <= 0 {
		finalCount = DefaultFinalCount
	}
	return &Selector{
		matcher:    matching.NewMatcher(cat, threshold, candidateCount, log),
		ranker:     ranker,
		finalCount: finalCount,
		log:        log,
	}
}

// Recommend runs both stages. With finalCount or fewer candidates, ranking
// adds no value and Stage 2 is skipped. A ranking failure falls back to the
// first finalCount candidates in catalog order; it is never surfaced.
func (s *Selector) Recommend(ctx context.Context, attrs types.ConversationAttributes, rctx Context) []*types.Product {
	candidates := s.matcher.FindCandidates(attrs)
	s.log.Debug().Int("candidates", len(candidates)).Msg("stage 1 complete")

	if len(candidates) <= s.finalCount {
		s.log.Debug().Int("count", len(candidates)).Msg("skipping ranking stage")
		return candidates
	}

	if s.ranker == nil {
		return candidates[:s.finalCount]
	}

	ranked, err := s.ranker.Rank(ctx, candidates, rctx)
	if err != nil {
		s.log.Warn().Err(err).Int("fallback_count", s.finalCount).Msg("ranking failed, returning unranked prefix")
		return candidates[:s.finalCount]
	}

	s.log.Debug().Int("ranked", len(ranked)).Msg("stage 2 complete")
	return ranked
}
