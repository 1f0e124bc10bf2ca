// Package engine owns the conversational state of one session: the current
// emotion, what has been learned about the user, and the persona.
//
// A State guards all of its fields with a single mutex. Callers never hold
// that lock across backend calls; they take a Snapshot, do the slow work,
// and come back for the next short critical section.
package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/memory"
	"github.com/nadzzz/nova/internal/persona"
)

// State is the mutable conversational state of one session.
type State struct {
	mu              sync.Mutex
	emotion         emotion.Label
	lastInteraction time.Time
	userName        string
	memory          *memory.Store
	persona         *persona.Profile
	rnd             Rand
	now             func() time.Time
}

// Options configures a new State.
type Options struct {
	MemoryEnabled  bool
	Name           string
	Traits         []string
	SpeechPatterns []string
	Rand           Rand
	Now            func() time.Time
}

// NewState creates a session state in the default emotion.
func NewState(opts Options) *State {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = NewRand(now().UnixNano())
	}
	return &State{
		emotion:         emotion.Default,
		lastInteraction: now(),
		memory:          memory.New(opts.MemoryEnabled),
		persona:         persona.New(opts.Name, opts.Traits, opts.SpeechPatterns),
		rnd:             rnd,
		now:             now,
	}
}

// Detect classifies text and updates the state. It returns the current
// emotion after the update, which is not necessarily the top-scoring label:
// weak signals leave the previous emotion in place.
func (s *State) Detect(text string) emotion.Label {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userName == "" {
		if name, ok := emotion.ExtractName(text); ok {
			s.userName = name
			s.memory.Remember(memory.KeyUserName, name)
			slog.Info("remembered user name", "user_name", name)
		}
	}

	label, score, _ := emotion.Score(text)
	if emotion.ShouldCommit(label, score) {
		if label != s.emotion {
			slog.Debug("emotion transition", "from", s.emotion, "to", label, "score", score)
		}
		s.emotion = label
	}

	s.lastInteraction = s.now()
	return s.emotion
}

// Emotion returns the current emotion.
func (s *State) Emotion() emotion.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emotion
}

// UserName returns the learned user name, if any.
func (s *State) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userName
}

// LastInteraction returns when Detect last ran.
func (s *State) LastInteraction() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInteraction
}

// Format embellishes a generated reply using the given emotion and the
// session's persona and learned name.
func (s *State) Format(raw string, label emotion.Label) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Embellish(raw, Style{
		Emotion:        label,
		UserName:       s.userName,
		SpeechPatterns: s.persona.SpeechPatterns(),
	}, s.rnd)
}

// Remember returns a stored memory value.
func (s *State) Remember(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Get(key)
}

// SetMemory stores a user-supplied fact. It fails with FeatureDisabled when
// memory is switched off.
func (s *State) SetMemory(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Set(key, value)
}

// MemoryEnabled reports whether explicit memory updates are allowed.
func (s *State) MemoryEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Enabled()
}

// Memory returns a copy of all stored facts.
func (s *State) Memory() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.All()
}

// AddTrait adds a persona trait and returns the resulting trait list.
func (s *State) AddTrait(trait string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.persona.AddTrait(trait); err != nil {
		return nil, err
	}
	return s.persona.Traits(), nil
}

// Snapshot is a consistent copy of the state taken under one lock.
type Snapshot struct {
	Emotion         emotion.Label
	LastInteraction time.Time
	UserName        string
	Memory          map[string]any
	PersonaName     string
	Traits          []string
	SpeechPatterns  []string
}

// Snapshot copies the state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Emotion:         s.emotion,
		LastInteraction: s.lastInteraction,
		UserName:        s.userName,
		Memory:          s.memory.All(),
		PersonaName:     s.persona.Name(),
		Traits:          s.persona.Traits(),
		SpeechPatterns:  s.persona.SpeechPatterns(),
	}
}
