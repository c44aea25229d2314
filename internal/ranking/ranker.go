// Package ranking implements the two-stage selector: progressive matching
// produces a candidate pool and the ranking service orders a final top list.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/llm"
	"github.com/vaibhav-asynq/vibe-shopping/internal/prompts"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// Context carries the conversational context the ranking service uses to
// order candidates.
type Context struct {
	OriginalQuery string
	Attributes    map[string][]string
	PriceRange    *types.PriceRange
	RecentHistory []string
}

// Ranker is the narrow client boundary to the ranking service.
type Ranker interface {
	// Rank returns up to finalCount candidates in ranked order, annotated
	// with score and reasoning on per-request copies.
	Rank(ctx context.Context, candidates []*types.Product, rctx Context) ([]*types.Product, error)
}

// rankedItem references a candidate by its 1-based position in the prompt.
type rankedItem struct {
	ProductNumber int     `json:"product_number"`
	ProductName   string  `json:"product_name,omitempty"`
	RankingScore  float64 `json:"ranking_score"`
	Reasoning     string  `json:"reasoning"`
}

// rankingResponse is the expected structured output of the ranking service.
type rankingResponse struct {
	Top5             []rankedItem `json:"top_5"`
	OverallReasoning string       `json:"overall_reasoning"`
}

// LLMRanker implements Ranker against the shared LLM client.
type LLMRanker struct {
	client     llm.Client
	finalCount int
	log        zerolog.Logger
}

// NewLLMRanker creates a ranker selecting up to finalCount products.
func NewLLMRanker(client llm.Client, finalCount int, log zerolog.Logger) *LLMRanker {
	if finalCount <= 0 {
		finalCount = DefaultFinalCount
	}
	return &LLMRanker{client: client, finalCount: finalCount, log: log}
}

// Rank calls the ranking service with numbered candidate summaries and
// parses the ordered selection back by position.
func (r *LLMRanker) Rank(ctx context.Context, candidates []*types.Product, rctx Context) ([]*types.Product, error) {
	prompt := r.buildPrompt(candidates, rctx)

	raw, err := r.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &RankingError{Message: "service call failed", Cause: err}
	}

	var response rankingResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return nil, &RankingError{Message: "malformed response", Cause: err}
	}

	r.log.Debug().Str("overall_reasoning", response.OverallReasoning).Int("selections", len(response.Top5)).Msg("ranking response parsed")
	return r.parseSelection(response, candidates), nil
}

// parseSelection re-indexes the response into the original candidate list,
// annotating clones so the shared catalog is never written. Fewer than
// finalCount distinct positions are backfilled with unused candidates in
// original order.
func (r *LLMRanker) parseSelection(response rankingResponse, candidates []*types.Product) []*types.Product {
	var ranked []*types.Product
	used := make(map[int]bool)

	for _, item := range response.Top5 {
		index := item.ProductNumber - 1
		if index < 0 || index >= len(candidates) || used[index] {
			continue
		}
		used[index] = true

		product := candidates[index].Clone()
		score := item.RankingScore
		product.RankingScore = &score
		product.RankingReasoning = item.Reasoning
		ranked = append(ranked, product)
	}

	for i, candidate := range candidates {
		if len(ranked) >= r.finalCount {
			break
		}
		if !used[i] {
			used[i] = true
			ranked = append(ranked, candidate)
		}
	}

	if len(ranked) > r.finalCount {
		ranked = ranked[:r.finalCount]
	}
	return ranked
}

// buildPrompt renders the stylist prompt with numbered candidate summaries
// and the conversational context.
func (r *LLMRanker) buildPrompt(candidates []*types.Product, rctx Context) string {
	var sb strings.Builder
	for i, p := range candidates {
		sb.WriteString(fmt.Sprintf("%d. **%s** - $%.2f\n", i+1, p.Name, p.Price))
		sb.WriteString(fmt.Sprintf("   Category: %s | Fit: %s | Color: %s\n", p.Category, p.Fit, p.ColorOrPrint))
		var extras []string
		if p.Fabric != "" {
			extras = append(extras, "Fabric: "+p.Fabric)
		}
		if p.Occasion != "" {
			extras = append(extras, "Occasion: "+p.Occasion)
		}
		if p.Neckline != "" {
			extras = append(extras, "Neckline: "+p.Neckline)
		}
		if len(extras) > 0 {
			sb.WriteString("   " + strings.Join(extras, " | ") + "\n")
		}
		sb.WriteString("   Sizes: " + strings.Join(p.AvailableSizes, ", ") + "\n\n")
	}

	attrsJSON, err := json.MarshalIndent(rctx.Attributes, "", "  ")
	if err != nil || len(rctx.Attributes) == 0 {
		attrsJSON = []byte("None")
	}

	history := "None"
	if len(rctx.RecentHistory) > 0 {
		history = strings.Join(rctx.RecentHistory, "\n")
	}

	template := prompts.MustGet("ranking.json", "rank-candidates")
	return prompts.Format(template, map[string]string{
		"OriginalQuery": rctx.OriginalQuery,
		"Attributes":    string(attrsJSON),
		"PriceText":     priceText(rctx.PriceRange),
		"History":       history,
		"Candidates":    sb.String(),
	})
}

// priceText summarizes the extracted budget for the prompt.
func priceText(pr *types.PriceRange) string {
	if !pr.HasBound() {
		return "No specific budget mentioned"
	}
	if pr.MaxPrice != nil {
		return fmt.Sprintf("Budget: up to $%.0f", *pr.MaxPrice)
	}
	return fmt.Sprintf("Budget: at least $%.0f", *pr.MinPrice)
}
