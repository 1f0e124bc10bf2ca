package engine

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/memory"
)

// fixedRand returns the same draw forever.
type fixedRand struct {
	f float64
	i int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(n int) int   { return r.i % n }

// seqRand replays a fixed list of Float64 draws and counts them.
type seqRand struct {
	draws []float64
	used  int
}

func (r *seqRand) Float64() float64 {
	v := r.draws[r.used]
	r.used++
	return v
}
func (r *seqRand) Intn(n int) int { return 0 }

func newTestState(memoryEnabled bool) *State {
	return NewState(Options{MemoryEnabled: memoryEnabled, Rand: fixedRand{f: 0.99}})
}

// ══════════════════════════════════════════════
// Detect
// ══════════════════════════════════════════════

func TestDetect_DefaultsToWarm(t *testing.T) {
	s := newTestState(true)
	if s.Emotion() != emotion.Warm {
		t.Fatalf("expected warm, got %s", s.Emotion())
	}
}

func TestDetect_NoTriggersKeepsEmotion(t *testing.T) {
	s := newTestState(true)
	s.Detect("wow this is amazing") // excited, score 2
	for _, text := range []string{"what time is it", "tell me about trains", "ok"} {
		if got := s.Detect(text); got != emotion.Excited {
			t.Fatalf("Detect(%q) changed emotion to %s", text, got)
		}
	}
}

func TestDetect_SingleWeakSignalIgnored(t *testing.T) {
	s := newTestState(true)
	if got := s.Detect("that was awesome"); got != emotion.Warm {
		t.Fatalf("one happy hit should not commit, got %s", got)
	}
}

func TestDetect_SadAlwaysTransitions(t *testing.T) {
	s := newTestState(true)
	s.Detect("wow amazing incredible") // excited
	if got := s.Detect("a bit sad"); got != emotion.Sad {
		t.Fatalf("expected sad, got %s", got)
	}
}

// A sad hit tied with an earlier label in priority order loses the tie, and
// a single non-sad hit does not commit.
func TestDetect_SadLosesTieToHappy(t *testing.T) {
	for _, text := range []string{"I'm unhappy", "sad happy"} {
		label, score, scores := emotion.Score(text)
		if label != emotion.Happy || score != 1 || scores[emotion.Sad] != 1 {
			t.Fatalf("Score(%q) = %s %d %v, want happy 1 with sad 1", text, label, score, scores)
		}

		s := newTestState(true)
		s.Detect("wow amazing incredible") // excited
		if got := s.Detect(text); got != emotion.Excited {
			t.Fatalf("Detect(%q) = %s, want emotion unchanged", text, got)
		}
	}
}

func TestDetect_SelfReportBoost(t *testing.T) {
	s := newTestState(true)
	if got := s.Detect("I feel happy today"); got != emotion.Happy {
		t.Fatalf("expected happy, got %s", got)
	}
}

func TestDetect_LearnsNameOnce(t *testing.T) {
	s := newTestState(true)
	s.Detect("my name is Alex")
	if s.UserName() != "Alex" {
		t.Fatalf("expected Alex, got %q", s.UserName())
	}
	mem := s.Memory()
	if len(mem) != 1 || mem[memory.KeyUserName] != "Alex" {
		t.Fatalf("expected {user_name: Alex}, got %v", mem)
	}

	s.Detect("actually my name is Bob")
	if s.UserName() != "Alex" {
		t.Fatalf("name was overwritten with %q", s.UserName())
	}
	if v, _ := s.Remember(memory.KeyUserName); v != "Alex" {
		t.Fatalf("memory was overwritten with %v", v)
	}
}

func TestDetect_NameLearnedWithMemoryDisabled(t *testing.T) {
	s := newTestState(false)
	s.Detect("I'm Dana")
	if v, _ := s.Remember(memory.KeyUserName); v != "Dana" {
		t.Fatalf("expected inferred name to be stored, got %v", v)
	}
}

func TestDetect_UpdatesTimestamp(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewState(Options{Rand: fixedRand{f: 0.99}, Now: func() time.Time { return clock }})
	clock = clock.Add(time.Minute)
	s.Detect("nothing special")
	if !s.LastInteraction().Equal(clock) {
		t.Fatalf("expected %v, got %v", clock, s.LastInteraction())
	}
}

// ══════════════════════════════════════════════
// Embellish / Format
// ══════════════════════════════════════════════

func TestEmbellish_NoRuleFires(t *testing.T) {
	st := Style{Emotion: emotion.Playful, UserName: "Alex", SpeechPatterns: []string{"You know what?"}}
	got := Embellish("That's Wonderful!", st, fixedRand{f: 0.99})
	if got != "That's Wonderful!" {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestEmbellish_AllRulesFire(t *testing.T) {
	st := Style{Emotion: emotion.Playful, UserName: "Alex", SpeechPatterns: []string{"You know what?"}}
	got := Embellish("That's Wonderful!", st, fixedRand{f: 0.0})
	want := "You know what? Alex, that's wonderful! 😄 hehe"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEmbellish_HeyWithoutName(t *testing.T) {
	r := &seqRand{draws: []float64{0.1, 0.9, 0.9}}
	got := Embellish("Good Morning", Style{Emotion: emotion.Warm}, r)
	if got != "Hey, good morning" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestEmbellish_GlyphOnly(t *testing.T) {
	r := &seqRand{draws: []float64{0.5, 0.5, 0.5}}
	got := Embellish("Nice", Style{Emotion: emotion.Happy}, r)
	if got != "Nice 😊" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestEmbellish_DrawCount(t *testing.T) {
	cases := []struct {
		label emotion.Label
		want  int
	}{
		{emotion.Warm, 3},
		{emotion.Playful, 4},
	}
	for _, tc := range cases {
		r := &seqRand{draws: []float64{0.99, 0.99, 0.99, 0.99}}
		Embellish("x", Style{Emotion: tc.label}, r)
		if r.used != tc.want {
			t.Fatalf("%s: expected %d draws, got %d", tc.label, tc.want, r.used)
		}
	}
}

func TestEmbellish_SeededIsReproducible(t *testing.T) {
	st := Style{Emotion: emotion.Playful, UserName: "Alex", SpeechPatterns: []string{"a", "b", "c"}}
	r1, r2 := NewRand(42), NewRand(42)
	for i := 0; i < 20; i++ {
		a := Embellish("Reply", st, r1)
		b := Embellish("Reply", st, r2)
		if a != b {
			t.Fatalf("iteration %d diverged: %q vs %q", i, a, b)
		}
	}
}

func TestState_FormatUsesLearnedName(t *testing.T) {
	s := NewState(Options{Rand: &seqRand{draws: []float64{0.0, 0.9, 0.9}}})
	s.Detect("my name is alex")
	got := s.Format("Sounds GOOD", s.Emotion())
	if got != "Alex, sounds good" {
		t.Fatalf("unexpected %q", got)
	}
}

// ══════════════════════════════════════════════
// Memory / persona through the state
// ══════════════════════════════════════════════

func TestState_SetMemoryDisabled(t *testing.T) {
	s := newTestState(false)
	if err := s.SetMemory("k", "v"); !apperr.IsFeatureDisabled(err) {
		t.Fatalf("expected FeatureDisabled, got %v", err)
	}
}

func TestState_AddTraitTwice(t *testing.T) {
	s := newTestState(true)
	_, _ = s.AddTrait("curious")
	traits, err := s.AddTrait("curious")
	if err != nil {
		t.Fatalf("add trait: %v", err)
	}
	n := 0
	for _, tr := range traits {
		if tr == "curious" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected curious once, got %v", traits)
	}
}

func TestState_Snapshot(t *testing.T) {
	s := newTestState(true)
	s.Detect("I'm sad, my name is Alex")
	_ = s.SetMemory("city", "Lisbon")

	snap := s.Snapshot()
	if snap.Emotion != emotion.Sad || snap.PersonaName != "Nova" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	// "I'm sad" matches the name pattern before "my name is".
	if snap.UserName != "Sad" {
		t.Fatalf("expected first pattern match to win, got %q", snap.UserName)
	}
	if snap.Memory["city"] != "Lisbon" {
		t.Fatalf("missing memory in snapshot: %v", snap.Memory)
	}
}

// ══════════════════════════════════════════════
// Concurrency
// ══════════════════════════════════════════════

func TestState_ConcurrentTurns(t *testing.T) {
	s := NewState(Options{MemoryEnabled: true, Rand: NewRand(1)})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Detect(fmt.Sprintf("my name is user%d and I feel sad", i))
			_ = s.SetMemory(fmt.Sprintf("k%d", i), i)
			_, _ = s.AddTrait("curious")
			_ = s.Format("hello", s.Emotion())
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Emotion != emotion.Sad {
		t.Fatalf("expected sad, got %s", snap.Emotion)
	}
	if !strings.HasPrefix(snap.UserName, "User") {
		t.Fatalf("expected a learned name, got %q", snap.UserName)
	}
	if snap.Memory[memory.KeyUserName] != snap.UserName {
		t.Fatalf("memory and state disagree: %v vs %q", snap.Memory[memory.KeyUserName], snap.UserName)
	}
	if len(snap.Memory) != 51 {
		t.Fatalf("expected 51 memory entries, got %d", len(snap.Memory))
	}
}

// ══════════════════════════════════════════════
// Registry
// ══════════════════════════════════════════════

func TestRegistry_DefaultAndIsolation(t *testing.T) {
	r := NewRegistry(func() *State { return newTestState(true) })
	if r.Get("") != r.Get(DefaultSession) {
		t.Fatal("empty id should resolve to the default session")
	}

	a, b := r.Get("a"), r.Get("b")
	a.Detect("I'm so sad")
	if b.Emotion() != emotion.Warm {
		t.Fatalf("session b picked up session a's emotion: %s", b.Emotion())
	}

	id, s := r.Open()
	if id == "" || r.Get(id) != s {
		t.Fatal("Open should register the new session")
	}
	if r.Len() != 4 {
		t.Fatalf("expected 4 sessions, got %d (%v)", r.Len(), r.IDs())
	}
}
