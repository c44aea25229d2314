// Package session holds per-conversation state in memory. Sessions are not
// persisted; a restart clears them.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// MaxLogEntries caps the per-session processing log.
const MaxLogEntries = 200

// ErrNotFound is returned when a session ID is unknown.
type ErrNotFound struct {
	SessionID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// Session pairs conversation state with its captured processing log. The
// embedded mutex serializes turns within the session; the store itself only
// guards map access.
type Session struct {
	sync.Mutex
	State *types.ConversationState
	logs  []string
}

// Store is an in-memory session registry safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session for the given initial query and returns it.
func (s *Store) Create(initialQuery string) *Session {
	id := uuid.New().String()
	sess := &Session{State: types.NewConversationState(id, initialQuery)}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &ErrNotFound{SessionID: id}
	}
	return sess, nil
}

// Delete removes the session for id. Deleting an unknown id returns
// ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return &ErrNotFound{SessionID: id}
	}
	delete(s.sessions, id)
	return nil
}

// IDs returns the IDs of all live sessions, sorted for stable output.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AppendLog records processing log entries for the session, keeping only the
// most recent MaxLogEntries.
func (s *Store) AppendLog(id string, entries ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return &ErrNotFound{SessionID: id}
	}
	sess.logs = append(sess.logs, entries...)
	if len(sess.logs) > MaxLogEntries {
		sess.logs = sess.logs[len(sess.logs)-MaxLogEntries:]
	}
	return nil
}

// Logs returns a copy of the session's captured log.
func (s *Store) Logs(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, &ErrNotFound{SessionID: id}
	}
	out := make([]string, len(sess.logs))
	copy(out, sess.logs)
	return out, nil
}
