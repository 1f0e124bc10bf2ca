package engine

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultSession is used for requests that do not name a session.
const DefaultSession = "default"

// Registry hands out one State per session id. States live for the lifetime
// of the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
	newState func() *State
}

// NewRegistry creates a registry that builds new states with factory.
func NewRegistry(factory func() *State) *Registry {
	return &Registry{
		sessions: make(map[string]*State),
		newState: factory,
	}
}

// Get returns the state for id, creating it on first use. An empty id
// selects the default session.
func (r *Registry) Get(id string) *State {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := r.newState()
	r.sessions[id] = s
	slog.Debug("session created", "session_id", id, "sessions", len(r.sessions))
	return s
}

// Open creates a fresh session with a random id.
func (r *Registry) Open() (string, *State) {
	id := uuid.New().String()
	return id, r.Get(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IDs returns the session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}
