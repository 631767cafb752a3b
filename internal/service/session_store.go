package service

import (
	"container/list"
	"sync"

	"github.com/medbot-ai/medbot/internal/domain"
)

// DefaultSessionID is used when a chat request names no session.
const DefaultSessionID = "default"

// SessionStore holds bounded per-session chat history for the process
// lifetime. It is an injected instance rather than package state, so tests
// can run isolated stores. Per-session history is capped at maxHistory
// exchanges and the total session count is bounded by LRU eviction, so the
// store cannot grow without limit.
type SessionStore struct {
	mu          sync.Mutex
	maxHistory  int
	maxSessions int
	sessions    map[string]*list.Element
	order       *list.List // front = most recently used
}

type sessionEntry struct {
	id string
	// mu serializes history read-modify-write for one session id without
	// blocking turns on other sessions.
	mu      sync.Mutex
	history []domain.Exchange
}

// NewSessionStore creates a store capped at maxSessions sessions of
// maxHistory exchanges each. Non-positive caps fall back to 1000/10.
func NewSessionStore(maxSessions, maxHistory int) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &SessionStore{
		maxHistory:  maxHistory,
		maxSessions: maxSessions,
		sessions:    make(map[string]*list.Element),
		order:       list.New(),
	}
}

// GetOrCreate returns a snapshot of the session, creating it with empty
// history on first use.
func (s *SessionStore) GetOrCreate(sessionID string) domain.Session {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	history := make([]domain.Exchange, len(entry.history))
	copy(history, entry.history)
	return domain.Session{ID: sessionID, History: history}
}

// AppendExchange records one chat turn, creating the session if absent and
// dropping the oldest exchanges once the history cap is exceeded.
func (s *SessionStore) AppendExchange(sessionID, userText, assistantText string) {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.history = append(entry.history, domain.Exchange{User: userText, Assistant: assistantText})
	if n := len(entry.history); n > s.maxHistory {
		entry.history = entry.history[n-s.maxHistory:]
	}
}

// Clear resets a session to empty history, creating it if absent.
func (s *SessionStore) Clear(sessionID string) {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.history = nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// entry returns the live session entry for id, creating it (and evicting the
// least recently used session when over capacity) as needed. The store lock
// is held only for map and LRU bookkeeping, never across a chat turn.
func (s *SessionStore) entry(sessionID string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.sessions[sessionID]; ok {
		s.order.MoveToFront(el)
		return el.Value.(*sessionEntry)
	}

	for len(s.sessions) >= s.maxSessions {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.sessions, oldest.Value.(*sessionEntry).id)
	}

	entry := &sessionEntry{id: sessionID}
	s.sessions[sessionID] = s.order.PushFront(entry)
	return entry
}
