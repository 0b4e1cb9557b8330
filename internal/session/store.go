// Package session keeps per-session conversation history and the in-progress
// booking draft. History is append-only; sessions never share mutable state.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/booking"
)

// ErrSessionNotFound is returned when reading a session that was never
// written or has been pruned.
var ErrSessionNotFound = errors.New("session not found")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one conversation message. Append-only, ordered by insertion.
type Turn struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type state struct {
	mu         sync.Mutex
	turns      []Turn
	draft      *booking.Draft
	lastActive time.Time
}

// Store holds all sessions. The outer lock only guards the session map;
// each session carries its own lock so concurrent sessions never contend.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*state),
		now:      time.Now,
	}
}

func (s *Store) get(sessionID string, create bool) *state {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok || !create {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[sessionID]; ok {
		return st
	}
	st = &state{lastActive: s.now()}
	s.sessions[sessionID] = st
	return st
}

// Append adds a turn to the session, creating the session on first use.
func (s *Store) Append(sessionID string, turn Turn) {
	st := s.get(sessionID, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.turns = append(st.turns, turn)
	st.lastActive = s.now()
}

// History returns the session's turns in insertion order.
func (s *Store) History(sessionID string) ([]Turn, error) {
	st := s.get(sessionID, false)
	if st == nil {
		return nil, ErrSessionNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Turn, len(st.turns))
	copy(out, st.turns)
	return out, nil
}

// Draft returns a copy of the session's booking draft, or nil when no draft
// is open.
func (s *Store) Draft(sessionID string) *booking.Draft {
	st := s.get(sessionID, false)
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.draft == nil {
		return nil
	}
	d := st.draft.Clone()
	return &d
}

// SetDraft replaces the session's draft. A nil draft clears the slot.
func (s *Store) SetDraft(sessionID string, draft *booking.Draft) {
	st := s.get(sessionID, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	if draft == nil {
		st.draft = nil
	} else {
		d := draft.Clone()
		st.draft = &d
	}
	st.lastActive = s.now()
}

// Session is the view handed to Update callbacks. All methods run under the
// session's lock already held by Update.
type Session struct {
	st  *state
	now func() time.Time
}

func (s *Session) History() []Turn {
	out := make([]Turn, len(s.st.turns))
	copy(out, s.st.turns)
	return out
}

func (s *Session) Append(turn Turn) {
	s.st.turns = append(s.st.turns, turn)
	s.st.lastActive = s.now()
}

func (s *Session) Draft() *booking.Draft {
	if s.st.draft == nil {
		return nil
	}
	d := s.st.draft.Clone()
	return &d
}

func (s *Session) SetDraft(draft *booking.Draft) {
	if draft == nil {
		s.st.draft = nil
		return
	}
	d := draft.Clone()
	s.st.draft = &d
}

// Update runs fn with exclusive access to one session. A turn's
// read-merge-write of the draft must happen inside a single Update call so
// racing requests for the same session cannot lose fields. Other sessions
// proceed in parallel.
func (s *Store) Update(sessionID string, fn func(sess *Session)) {
	st := s.get(sessionID, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&Session{st: st, now: s.now})
	st.lastActive = s.now()
}

// PruneIdle removes sessions idle for longer than ttl and reports how many
// were dropped. A ttl of zero disables pruning.
func (s *Store) PruneIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, st := range s.sessions {
		st.mu.Lock()
		idle := st.lastActive.Before(cutoff)
		st.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
