// Package memory stores facts learned about the user.
//
// A Store is not safe for concurrent use on its own; it is owned by an
// engine.State which serialises access.
package memory

import (
	"maps"
	"strings"

	"github.com/nadzzz/nova/internal/apperr"
)

// KeyUserName is the key under which an inferred user name is stored.
const KeyUserName = "user_name"

// Store is a key/value map of user facts. Values are arbitrary JSON values.
type Store struct {
	enabled bool
	facts   map[string]any
}

// New creates an empty store. When enabled is false, Set is rejected.
func New(enabled bool) *Store {
	return &Store{enabled: enabled, facts: make(map[string]any)}
}

// Enabled reports whether explicit updates are allowed.
func (s *Store) Enabled() bool { return s.enabled }

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	v, ok := s.facts[key]
	return v, ok
}

// Set stores value under key.
func (s *Store) Set(key string, value any) error {
	if !s.enabled {
		return apperr.Disabled("memory")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.Input("memory key must not be empty")
	}
	s.facts[key] = value
	return nil
}

// Remember stores an inferred fact. Unlike Set it is not feature-gated:
// inference is part of emotion detection, not an explicit user update.
func (s *Store) Remember(key string, value any) {
	s.facts[key] = value
}

// All returns a copy of every stored fact.
func (s *Store) All() map[string]any {
	return maps.Clone(s.facts)
}

// Len returns the number of stored facts.
func (s *Store) Len() int { return len(s.facts) }
