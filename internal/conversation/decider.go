// Package conversation implements the per-turn state machine that sequences
// extraction, matching, and ranking across a session, enforcing the
// clarifying-question budget.
package conversation

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

// Decision is the next-action choice from the decision boundary.
type Decision struct {
	Action          types.Action `json:"action"`
	ResponseMessage string       `json:"response_message"`
	NextPhase       types.Phase  `json:"next_phase"`
	Reasoning       string       `json:"reasoning"`
}

// Decider chooses the next action for a turn. Implementations must always
// return a usable decision; failures degrade to a canned fallback.
type Decider interface {
	Decide(ctx context.Context, state *types.ConversationState, userInput string) Decision
}

// FallbackDecision is returned when the decision service fails: ask for the
// essentials rather than stall the turn.
func FallbackDecision() Decision {
	return Decision{
		Action:          types.ActionAskQuestion,
		ResponseMessage: "What size should I look for, and are you thinking dresses, tops, or bottoms?",
		NextPhase:       types.PhaseGatheringInfo,
		Reasoning:       "Fallback: decision service unavailable, asking for essential info",
	}
}

// LLMDecider implements Decider against the shared LLM client.
type LLMDecider struct {
	client llm.Client
	log    zerolog.Logger
}

// NewLLMDecider creates a decider using the given client.
func NewLLMDecider(client llm.Client, log zerolog.Logger) *LLMDecider {
	return &LLMDecider{client: client, log: log}
}

// Decide prompts for the next action with the full conversation context.
func (d *LLMDecider) Decide(ctx context.Context, state *types.ConversationState, userInput string) Decision {
	prompt := d.buildPrompt(state, userInput)

	raw, err := d.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		d.log.Warn().Err(err).Msg("decision service failed, using fallback")
		return FallbackDecision()
	}

	var decision Decision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		d.log.Warn().Err(err).Msg("malformed decision response, using fallback")
		return FallbackDecision()
	}

	if decision.ResponseMessage == "" || !decision.NextPhase.Valid() || !validAction(decision.Action) {
		d.log.Warn().
			Str("action", string(decision.Action)).
			Str("next_phase", string(decision.NextPhase)).
			Msg("incomplete decision response, using fallback")
		return FallbackDecision()
	}

	return decision
}

func validAction(a types.Action) bool {
	switch a {
	case types.ActionAskQuestion, types.ActionReadyForRecs, types.ActionHandleChanges:
		return true
	}
	return false
}

func (d *LLMDecider) buildPrompt(state *types.ConversationState, userInput string) string {
	attributes := "None"
	if len(state.Attributes.Attributes) > 0 {
		if data, err := json.MarshalIndent(state.Attributes.Attributes, "", "  "); err == nil {
			attributes = string(data)
		}
	}

	history := "None"
	if recent := state.RecentHistory(4); len(recent) > 0 {
		history = strings.Join(recent, "\n")
	}

	template := prompts.MustGet("conversation.json", "next-action")
	return prompts.Format(template, map[string]string{
		"OriginalQuery":  state.OriginalQuery,
		"Attributes":     attributes,
		"History":        history,
		"UserInput":      userInput,
		"QuestionsAsked": fmt.Sprintf("%d", state.QuestionsAsked),
		"Phase":          string(state.Phase),
	})
}
