package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhav-asynq/vibe-shopping/internal/catalog"
	"github.com/vaibhav-asynq/vibe-shopping/internal/conversation"
	"github.com/vaibhav-asynq/vibe-shopping/internal/extraction"
	"github.com/vaibhav-asynq/vibe-shopping/internal/ranking"
	"github.com/vaibhav-asynq/vibe-shopping/internal/rules"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// stubExtractor implements extraction.Extractor for testing
type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _ string) (*types.ExtractionResult, error) {
	return &types.ExtractionResult{
		Category:          types.AttributeValues{{Value: "dress", Confidence: 0.9}},
		OverallConfidence: 0.8,
		Reasoning:         "stub",
	}, nil
}

// stubDecider implements conversation.Decider for testing
type stubDecider struct {
	decision conversation.Decision
}

func (d stubDecider) Decide(_ context.Context, _ *types.ConversationState, _ string) conversation.Decision {
	return d.decision
}

func testServer(t *testing.T, decision conversation.Decision) *httptest.Server {
	t.Helper()

	products := make([]*types.Product, 10)
	for i := range products {
		products[i] = &types.Product{
			ID:       fmt.Sprintf("D%03d", i),
			Name:     fmt.Sprintf("Dress %d", i),
			Category: "dress",
			Price:    float64(50 + i),
		}
	}

	mapper := extraction.NewMapper(stubExtractor{}, rules.NewEngine(nil, zerolog.Nop()), zerolog.Nop())
	selector := ranking.NewSelector(catalog.New(products), 0.6, 15, 5, nil, zerolog.Nop())
	manager := conversation.NewManager(mapper, stubDecider{decision: decision}, selector, 2, zerolog.Nop())

	srv := New(Config{Port: 0}, manager, zerolog.Nop())
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func askDecision() conversation.Decision {
	return conversation.Decision{
		Action:          types.ActionAskQuestion,
		ResponseMessage: "What size?",
		NextPhase:       types.PhaseGatheringInfo,
		Reasoning:       "need size",
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateSession(t *testing.T) {
	ts := testServer(t, askDecision())

	resp := postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "flowy dress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	turn := decode[TurnResponse](t, resp)
	assert.NotEmpty(t, turn.SessionID)
	assert.Equal(t, types.ActionAskQuestion, turn.Action)
	assert.Equal(t, "What size?", turn.ResponseMessage)
	assert.Equal(t, 1, turn.QuestionsAsked)
}

func TestListSessions(t *testing.T) {
	ts := testServer(t, askDecision())

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[SessionListResponse](t, resp)
	assert.Equal(t, 0, list.ActiveSessions)
	assert.Empty(t, list.SessionIDs)

	first := decode[TurnResponse](t, postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "flowy dress"}))
	second := decode[TurnResponse](t, postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "office tops"}))

	resp, err = http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	list = decode[SessionListResponse](t, resp)
	assert.Equal(t, 2, list.ActiveSessions)
	assert.ElementsMatch(t, []string{first.SessionID, second.SessionID}, list.SessionIDs)
}

func TestCreateSession_MissingQuery(t *testing.T) {
	ts := testServer(t, askDecision())

	resp := postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestChat_FullFlow(t *testing.T) {
	ts := testServer(t, conversation.Decision{
		Action:          types.ActionReadyForRecs,
		ResponseMessage: "Here you go!",
		NextPhase:       types.PhaseReadyForRecs,
	})

	created := decode[TurnResponse](t, postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "flowy dress"}))
	require.Len(t, created.Recommendations, 5)

	// Input after recommendations short-circuits to handling_changes.
	next := decode[TurnResponse](t, postJSON(t, ts.URL+"/chat", ChatRequest{
		SessionID: created.SessionID,
		Message:   "cheaper please",
	}))
	assert.Equal(t, types.ActionHandleChanges, next.Action)
	assert.Equal(t, types.PhaseHandlingChange, next.Phase)
}

func TestChat_UnknownSession(t *testing.T) {
	ts := testServer(t, askDecision())

	resp := postJSON(t, ts.URL+"/chat", ChatRequest{SessionID: "missing", Message: "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestChat_MissingSessionID(t *testing.T) {
	ts := testServer(t, askDecision())

	resp := postJSON(t, ts.URL+"/chat", ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSessionLogs(t *testing.T) {
	ts := testServer(t, askDecision())

	created := decode[TurnResponse](t, postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "flowy dress"}))

	resp, err := http.Get(ts.URL + "/sessions/" + created.SessionID + "/logs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logs := decode[LogsResponse](t, resp)
	assert.Equal(t, created.SessionID, logs.SessionID)
	assert.NotEmpty(t, logs.Logs)
}

func TestSessionLogs_UnknownSession(t *testing.T) {
	ts := testServer(t, askDecision())

	resp, err := http.Get(ts.URL + "/sessions/missing/logs")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteSession(t *testing.T) {
	ts := testServer(t, askDecision())

	created := decode[TurnResponse](t, postJSON(t, ts.URL+"/sessions", CreateSessionRequest{Query: "q"}))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sessions/"+created.SessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Second delete 404s.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	ts := testServer(t, askDecision())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", health["status"])
}

func TestCORSPreflight(t *testing.T) {
	ts := testServer(t, askDecision())

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/sessions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
