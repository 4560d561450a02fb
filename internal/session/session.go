// Package session keeps per-conversation chat history in memory. Sessions
// live for the process lifetime only; there is no persistence and, at
// prototype scale, no eviction.
package session

import (
	"sync"
	"time"

	"github.com/empathlab/empath-gateway/internal/metrics"
)

// Roles a turn can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Meta is the structured analysis metadata attached to system turns. It
// replaces string-parsing of a prior message body when a later reply needs
// the last-known sentiment and emotions.
type Meta struct {
	Sentiment string   `json:"sentiment"`
	Emotions  []string `json:"emotions"`
}

// Turn is a single immutable conversation entry.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"ts"`
	Meta      *Meta  `json:"meta,omitempty"`
}

// NewTurn builds a turn stamped with the current time.
func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().Unix()}
}

// Store holds conversation sessions keyed by an opaque session key.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string][]Turn)}
}

// Append adds a turn to the session's history, creating the session if the
// key is unknown.
func (s *Store) Append(key string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		metrics.ActiveSessions.Inc()
	}
	s.sessions[key] = append(s.sessions[key], turn)
}

// History returns the session's ordered turn sequence as a copy. An
// unknown key creates an empty session and returns an empty slice.
func (s *Store) History(key string) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, ok := s.sessions[key]
	if !ok {
		s.sessions[key] = []Turn{}
		metrics.ActiveSessions.Inc()
		return []Turn{}
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// LastMeta returns the metadata of the most recent turn that carries one,
// or nil if the session has none.
func (s *Store) LastMeta(key string) *Meta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[key]
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Meta != nil {
			m := *turns[i].Meta
			return &m
		}
	}
	return nil
}

// Len reports the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
