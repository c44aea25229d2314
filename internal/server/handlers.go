package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vaibhav-asynq/vibe-shopping/internal/session"
	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// CreateSessionRequest represents the request body for POST /sessions.
type CreateSessionRequest struct {
	Query string `json:"query"`
}

// ChatRequest represents the request body for POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// TurnResponse represents the response for /sessions and /chat.
type TurnResponse struct {
	SessionID       string           `json:"session_id"`
	Action          types.Action     `json:"action"`
	Phase           types.Phase      `json:"phase"`
	ResponseMessage string           `json:"response_message"`
	Reasoning       string           `json:"reasoning,omitempty"`
	Recommendations []*types.Product `json:"recommendations,omitempty"`
	QuestionsAsked  int              `json:"questions_asked"`
}

// LogsResponse represents the response for GET /sessions/{id}/logs.
type LogsResponse struct {
	SessionID string   `json:"session_id"`
	Logs      []string `json:"logs"`
}

// handleCreateSession creates a session and processes the initial query as
// the first turn.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.errorResponse(w, http.StatusBadRequest, "query is required")
		return
	}

	sess := s.store.Create(req.Query)
	s.runTurn(w, r, sess, req.Query)
}

// handleChat processes one turn of an existing session.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		s.errorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	sess, err := s.store.Get(req.SessionID)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.runTurn(w, r, sess, req.Message)
}

// runTurn serializes turn processing per session and writes the turn response.
func (s *Server) runTurn(w http.ResponseWriter, r *http.Request, sess *session.Session, input string) {
	sess.Lock()
	turn, turnLog := s.manager.ProcessTurn(r.Context(), input, sess.State)
	questionsAsked := sess.State.QuestionsAsked
	sess.Unlock()

	if err := s.store.AppendLog(sess.State.SessionID, turnLog...); err != nil {
		s.log.Warn().Err(err).Msg("failed to append session log")
	}

	s.jsonResponse(w, http.StatusOK, TurnResponse{
		SessionID:       sess.State.SessionID,
		Action:          turn.Action,
		Phase:           turn.Phase,
		ResponseMessage: turn.ResponseMessage,
		Reasoning:       turn.Reasoning,
		Recommendations: turn.Recommendations,
		QuestionsAsked:  questionsAsked,
	})
}

// SessionListResponse represents the response for GET /sessions.
type SessionListResponse struct {
	ActiveSessions int      `json:"active_sessions"`
	SessionIDs     []string `json:"session_ids"`
}

// handleListSessions enumerates live sessions, mainly for debugging.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	ids := s.store.IDs()
	s.jsonResponse(w, http.StatusOK, SessionListResponse{
		ActiveSessions: len(ids),
		SessionIDs:     ids,
	})
}

// handleSessionLogs returns the captured processing log for a session.
func (s *Server) handleSessionLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	logs, err := s.store.Logs(id)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if logs == nil {
		logs = []string{}
	}
	s.jsonResponse(w, http.StatusOK, LogsResponse{SessionID: id, Logs: logs})
}

// handleDeleteSession removes a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(id); err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted", "session_id": id})
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	var notFound *session.ErrNotFound
	if errors.As(err, &notFound) {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	s.errorResponse(w, http.StatusInternalServerError, err.Error())
}
