package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhav-asynq/vibe-shopping/internal/llm"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

func (m *MockLLMClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func decisionState() *types.ConversationState {
	state := types.NewConversationState("s1", "something cute for brunch")
	state.AddHistory("User: something cute for brunch")
	state.Attributes.Attributes = map[string][]string{types.AttrCategory: {"dress"}}
	return state
}

func TestDecide_Success(t *testing.T) {
	mockClient := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierLite, tier)
			assert.Contains(t, prompt, "something cute for brunch")
			assert.Contains(t, prompt, "gathering_info")
			return `{
				"action": "ask_question",
				"response_message": "What size should I look for?",
				"next_phase": "gathering_info",
				"reasoning": "sizes missing"
			}`, nil
		},
	}

	decider := NewLLMDecider(mockClient, zerolog.Nop())
	decision := decider.Decide(context.Background(), decisionState(), "something cute for brunch")

	assert.Equal(t, types.ActionAskQuestion, decision.Action)
	assert.Equal(t, "What size should I look for?", decision.ResponseMessage)
	assert.Equal(t, types.PhaseGatheringInfo, decision.NextPhase)
}

func TestDecide_FallbackOnServiceError(t *testing.T) {
	mockClient := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "", errors.New("deadline exceeded")
		},
	}

	decider := NewLLMDecider(mockClient, zerolog.Nop())
	decision := decider.Decide(context.Background(), decisionState(), "hi")

	assert.Equal(t, FallbackDecision(), decision)
}

func TestDecide_FallbackOnMalformedJSON(t *testing.T) {
	mockClient := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return `not json`, nil
		},
	}

	decider := NewLLMDecider(mockClient, zerolog.Nop())
	decision := decider.Decide(context.Background(), decisionState(), "hi")

	assert.Equal(t, FallbackDecision(), decision)
}

func TestDecide_FallbackOnIncompleteDecision(t *testing.T) {
	cases := map[string]string{
		"missing message": `{"action": "ask_question", "next_phase": "gathering_info"}`,
		"bad action":      `{"action": "dance", "response_message": "m", "next_phase": "gathering_info"}`,
		"bad phase":       `{"action": "ask_question", "response_message": "m", "next_phase": "wondering"}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			mockClient := &MockLLMClient{
				GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
					return response, nil
				},
			}

			decider := NewLLMDecider(mockClient, zerolog.Nop())
			decision := decider.Decide(context.Background(), decisionState(), "hi")
			assert.Equal(t, FallbackDecision(), decision)
		})
	}
}

func TestFallbackDecision_IsUsable(t *testing.T) {
	d := FallbackDecision()

	require.Equal(t, types.ActionAskQuestion, d.Action)
	assert.NotEmpty(t, d.ResponseMessage)
	assert.True(t, d.NextPhase.Valid())
}
