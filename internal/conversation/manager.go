package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vaibhav-asynq/vibe-shopping/internal/extraction"
	"github.com/vaibhav-asynq/vibe-shopping/internal/ranking"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// DefaultMaxQuestions caps clarifying questions per session. The cap is
// enforced locally, never delegated to the decision service.
const DefaultMaxQuestions = 2

const (
	changesAckMessage = "Got it! Let me adjust the recommendations based on your feedback."
	budgetMessage     = "Perfect! Let me show you some great options based on what we've discussed!"
	noMatchesMessage  = "I'm having trouble finding matches right now. Could you tell me a bit more about what you're looking for?"
	historyWindow     = 4
)

// Manager runs the full per-turn pipeline for a session.
type Manager struct {
	mapper       *extraction.Mapper
	decider      Decider
	selector     *ranking.Selector
	maxQuestions int
	log          zerolog.Logger
}

// NewManager wires the pipeline stages together. maxQuestions <= 0 selects
// DefaultMaxQuestions.
func NewManager(mapper *extraction.Mapper, decider Decider, selector *ranking.Selector, maxQuestions int, log zerolog.Logger) *Manager {
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	return &Manager{
		mapper:       mapper,
		decider:      decider,
		selector:     selector,
		maxQuestions: maxQuestions,
		log:          log,
	}
}

// ProcessTurn advances the session by one turn, mutating state in place. The
// second return value is the processing log for the turn, suitable for the
// session log capture.
//
// Once recommendations have been shown, any further input is treated as a
// change request: the turn short-circuits to HANDLING_CHANGES without
// extraction, decision, or matching. Otherwise the input is extracted and
// merged, the decider picks the next action, the question budget is enforced,
// and recommendations are produced when the session is ready.
func (m *Manager) ProcessTurn(ctx context.Context, userInput string, state *types.ConversationState) (*types.ConversationTurn, []string) {
	input := strings.TrimSpace(userInput)

	if state.Phase == types.PhaseReadyForRecs && input != "" {
		state.AddHistory("User: " + input)
		state.Phase = types.PhaseHandlingChange
		state.AddHistory("Assistant: " + changesAckMessage)
		m.log.Info().Str("session_id", state.SessionID).Msg("transitioning to handling_changes")
		turn := &types.ConversationTurn{
			Action:          types.ActionHandleChanges,
			Phase:           types.PhaseHandlingChange,
			ResponseMessage: changesAckMessage,
			Reasoning:       "User responded after seeing recommendations, treating as a change request",
		}
		return turn, []string{"user input after recommendations, transitioning to handling_changes"}
	}

	var turnLog []string
	if input != "" {
		mapping := m.mapper.MapQuery(ctx, input)
		state.Attributes.MergeFrom(mapping.ConversationAttributes())
		state.AddHistory("User: " + input)
		turnLog = append(turnLog, mapping.Log...)
		turnLog = append(turnLog, mapping.Errors...)
	}

	decision := m.decider.Decide(ctx, state, input)

	if decision.Action == types.ActionAskQuestion && state.QuestionsAsked >= m.maxQuestions {
		m.log.Info().
			Str("session_id", state.SessionID).
			Int("questions_asked", state.QuestionsAsked).
			Msg("question budget exhausted, forcing recommendations")
		turnLog = append(turnLog, "question budget exhausted, forcing recommendations")
		decision = Decision{
			Action:          types.ActionReadyForRecs,
			ResponseMessage: budgetMessage,
			NextPhase:       types.PhaseReadyForRecs,
			Reasoning:       "Question budget exhausted, proceeding with available attributes",
		}
	}

	turn := &types.ConversationTurn{
		Action:          decision.Action,
		Phase:           decision.NextPhase,
		ResponseMessage: decision.ResponseMessage,
		Reasoning:       decision.Reasoning,
	}

	switch decision.Action {
	case types.ActionAskQuestion:
		state.QuestionsAsked++
		turnLog = append(turnLog, fmt.Sprintf("asked clarifying question %d of %d", state.QuestionsAsked, m.maxQuestions))
	case types.ActionReadyForRecs:
		turn.Recommendations = m.selector.Recommend(ctx, state.Attributes, m.rankingContext(state))
		turnLog = append(turnLog, fmt.Sprintf("produced %d recommendations", len(turn.Recommendations)))
		if len(turn.Recommendations) == 0 {
			turn.ResponseMessage = noMatchesMessage
		}
	}

	state.Phase = decision.NextPhase
	state.AddHistory("Assistant: " + turn.ResponseMessage)
	return turn, turnLog
}

func (m *Manager) rankingContext(state *types.ConversationState) ranking.Context {
	return ranking.Context{
		OriginalQuery: state.OriginalQuery,
		Attributes:    state.Attributes.Attributes,
		PriceRange:    state.Attributes.ProductInfo.PriceRange,
		RecentHistory: state.RecentHistory(historyWindow),
	}
}
