// Package dispatch implements the conversation orchestrator.
//
// The dispatcher receives requests from transports, runs them against the
// session's engine state and the configured backends, and returns wire
// results. Backend calls never run while a session lock is held.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/audio"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/engine"
	"github.com/nadzzz/nova/internal/generator"
	"github.com/nadzzz/nova/internal/memory"
	"github.com/nadzzz/nova/internal/message"
	"github.com/nadzzz/nova/internal/speech"
	"github.com/nadzzz/nova/internal/transcriber"
)

// FallbackReply is returned when the generator fails or produces nothing.
const FallbackReply = "Oops, my mind went blank for a second. What were we talking about?"

const userMarker = "User says:"

// Settings holds the orchestration knobs taken from config.
type Settings struct {
	Emotions      bool
	Timeout       time.Duration
	MaxTokens     int
	Temperature   float32
	HistoryWindow int
}

// SettingsFrom extracts Settings from the daemon config.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Emotions:      cfg.Features.Emotions,
		Timeout:       cfg.Generator.Timeout,
		MaxTokens:     cfg.Generator.MaxTokens,
		Temperature:   cfg.Generator.Temperature,
		HistoryWindow: cfg.Generator.HistoryWindow,
	}
}

// Dispatcher is the central conversation engine.
type Dispatcher struct {
	settings    Settings
	sessions    *engine.Registry
	generator   generator.Generator
	transcriber transcriber.Transcriber // nil if speech-to-text is disabled
	speech      *speech.Service         // nil if TTS is disabled
}

// New creates a Dispatcher. transcriber and speech may be nil.
func New(settings Settings, sessions *engine.Registry, gen generator.Generator, tr transcriber.Transcriber, sp *speech.Service) *Dispatcher {
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &Dispatcher{
		settings:    settings,
		sessions:    sessions,
		generator:   gen,
		transcriber: tr,
		speech:      sp,
	}
}

// OpenSession creates a new session and returns its id.
func (d *Dispatcher) OpenSession() string {
	id, _ := d.sessions.Open()
	return id
}

// RunTurn processes one user message through the full pipeline:
// detect → generate → format → voice style → (speak).
func (d *Dispatcher) RunTurn(ctx context.Context, req *message.ChatRequest) (*message.TurnResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.Input("text must not be empty")
	}
	if req.Speak && d.speech == nil {
		return nil, apperr.Disabled("voice")
	}

	start := time.Now()
	sessionID := sessionOrDefault(req.SessionID)
	turnID := uuid.New().String()
	logger := slog.With("session_id", sessionID, "turn_id", turnID)
	state := d.sessions.Get(sessionID)

	history := recentHistory(req.History, d.settings.HistoryWindow)

	// Step 1: Classify (may learn the user's name).
	label := state.Emotion()
	if d.settings.Emotions {
		label = state.Detect(text)
	}
	logger.Debug("turn started", "emotion", label, "history", len(history))

	// Step 2: Generate without holding the session lock.
	snap := state.Snapshot()
	prompt := buildContext(snap, label, history, text)
	raw := d.generate(ctx, logger, prompt, text)

	// Step 3: Style the reply.
	final := state.Format(raw, label)

	result := &message.TurnResult{
		ID:            turnID,
		SessionID:     sessionID,
		Text:          final,
		RawResponse:   raw,
		Emotion:       label,
		Description:   label.Description(),
		VoiceStyle:    emotion.StyleFor(label),
		MemoryUpdates: memoryDelta(state, history),
	}

	// Step 4: Optional speech. A failed synthesis does not fail the turn.
	if req.Speak {
		url, _, err := d.speech.Speak(ctx, final, label)
		if err != nil {
			logger.Warn("speech synthesis failed, continuing without audio", "error", err)
		} else {
			result.AudioURL = url
		}
	}

	logger.Info("turn complete", "emotion", label, "duration", time.Since(start), "audio", result.AudioURL != "")
	return result, nil
}

// generate calls the backend once under the configured timeout and reduces
// its output to the reply. Every failure becomes FallbackReply.
func (d *Dispatcher) generate(ctx context.Context, logger *slog.Logger, prompt, userText string) string {
	genCtx, cancel := context.WithTimeout(ctx, d.settings.Timeout)
	defer cancel()

	out, err := d.generator.Generate(genCtx, prompt, generator.Opts{
		MaxTokens:   d.settings.MaxTokens,
		Temperature: d.settings.Temperature,
	})
	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("generation timed out", "timeout", d.settings.Timeout)
		} else {
			logger.Warn("generation failed", "backend", d.generator.Name(), "error", err)
		}
		return FallbackReply
	}

	reply := extractReply(out, userText)
	if reply == "" {
		logger.Warn("generator returned no usable text", "backend", d.generator.Name())
		return FallbackReply
	}
	return reply
}

// buildContext assembles the generator prompt.
func buildContext(snap engine.Snapshot, label emotion.Label, history []message.HistoryEntry, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the user's best friend AI. Your personality: %s. Current emotional context: %s.\n",
		snap.PersonaName, strings.Join(snap.Traits, ", "), label.Description())
	for _, h := range history {
		b.WriteString(h.Line())
		b.WriteByte('\n')
	}
	b.WriteString(userMarker + " " + text)
	return b.String()
}

// extractReply keeps the text after the last user marker and drops an
// echoed copy of the user's words.
func extractReply(generated, userText string) string {
	reply := generated
	if i := strings.LastIndex(reply, userMarker); i >= 0 {
		reply = reply[i+len(userMarker):]
	}
	reply = strings.TrimSpace(reply)
	if rest, ok := strings.CutPrefix(reply, userText); ok {
		reply = strings.TrimSpace(rest)
	}
	return reply
}

// recentHistory returns the last n entries.
func recentHistory(history []message.HistoryEntry, n int) []message.HistoryEntry {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// memoryDelta reports the learned user name when the client's history does
// not already carry it.
func memoryDelta(state *engine.State, history []message.HistoryEntry) map[string]any {
	delta := map[string]any{}
	name, ok := state.Remember(memory.KeyUserName)
	if !ok {
		return delta
	}
	for _, h := range history {
		if _, seen := h[memory.KeyUserName]; seen {
			return delta
		}
	}
	delta[memory.KeyUserName] = name
	return delta
}

// DetectEmotion classifies text against the session state.
func (d *Dispatcher) DetectEmotion(ctx context.Context, req *message.EmotionRequest) (*message.EmotionResponse, error) {
	if !d.settings.Emotions {
		return nil, apperr.Disabled("emotion detection")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.Input("text must not be empty")
	}
	label := d.sessions.Get(req.SessionID).Detect(req.Text)
	return &message.EmotionResponse{Emotion: label, Description: label.Description()}, nil
}

// UpdateMemory stores one fact in the session memory.
func (d *Dispatcher) UpdateMemory(ctx context.Context, req *message.MemoryUpdate) (*message.MemoryUpdateResponse, error) {
	state := d.sessions.Get(req.SessionID)
	if err := state.SetMemory(req.Key, req.Value); err != nil {
		return nil, err
	}
	slog.Info("memory updated", "session_id", sessionOrDefault(req.SessionID), "key", req.Key)
	return &message.MemoryUpdateResponse{Status: "success", UpdatedMemory: state.Memory()}, nil
}

// GetMemory returns the session memory.
func (d *Dispatcher) GetMemory(ctx context.Context, req *message.SessionRequest) (*message.MemoryResponse, error) {
	return &message.MemoryResponse{Memory: d.sessions.Get(req.SessionID).Memory()}, nil
}

// AddPersonaTrait adds a trait to the session persona.
func (d *Dispatcher) AddPersonaTrait(ctx context.Context, req *message.TraitRequest) (*message.TraitResponse, error) {
	traits, err := d.sessions.Get(req.SessionID).AddTrait(req.Trait)
	if err != nil {
		return nil, err
	}
	return &message.TraitResponse{Status: "success", Traits: traits}, nil
}

// Status reports component availability and the session's state.
func (d *Dispatcher) Status(ctx context.Context, req *message.SessionRequest) (*message.StatusResponse, error) {
	state := d.sessions.Get(req.SessionID)
	snap := state.Snapshot()
	return &message.StatusResponse{
		Components: map[string]bool{
			"generator":   d.generator != nil,
			"transcriber": d.transcriber != nil,
			"tts":         d.speech != nil,
		},
		Features: map[string]bool{
			"emotions": d.settings.Emotions,
			"memory":   state.MemoryEnabled(),
			"voice":    d.speech != nil,
		},
		Persona: message.PersonaStatus{
			Name:           snap.PersonaName,
			Traits:         snap.Traits,
			SpeechPatterns: snap.SpeechPatterns,
		},
		CurrentEmotion:  snap.Emotion,
		UserName:        snap.UserName,
		LastInteraction: snap.LastInteraction.UTC().Format(time.RFC3339),
		Sessions:        d.sessions.Len(),
	}, nil
}

// Transcribe converts uploaded audio to text.
func (d *Dispatcher) Transcribe(ctx context.Context, req *message.TranscribeRequest) (*message.TranscribeResponse, error) {
	if d.transcriber == nil {
		return nil, apperr.Disabled("speech-to-text")
	}
	if len(req.Audio) == 0 {
		return nil, apperr.Input("audio must not be empty")
	}

	data, contentType := audio.Normalize(req.Audio, req.ContentType)
	slog.Debug("transcribing audio", "content_type", contentType, "bytes", len(data))

	res, err := d.transcriber.Transcribe(ctx, data, contentType)
	if err != nil {
		slog.Error("transcription failed", "backend", d.transcriber.Name(), "error", err)
		return nil, err
	}
	return &message.TranscribeResponse{Text: res.Text, Language: res.Language}, nil
}

// Speak synthesizes text in the requested emotion, or the session's current
// one when none is given.
func (d *Dispatcher) Speak(ctx context.Context, req *message.SpeechRequest) (*message.SpeechResponse, error) {
	if d.speech == nil {
		return nil, apperr.Disabled("voice")
	}
	label := d.sessions.Get(req.SessionID).Emotion()
	if req.Emotion != "" {
		l, ok := emotion.Parse(string(req.Emotion))
		if !ok {
			return nil, apperr.Input("unknown emotion %q", req.Emotion)
		}
		label = l
	}

	url, cached, err := d.speech.Speak(ctx, req.Text, label)
	if err != nil {
		if !apperr.IsInput(err) {
			slog.Error("speech synthesis failed", "backend", d.speech.Backend(), "error", err)
		}
		return nil, err
	}
	return &message.SpeechResponse{AudioURL: url, Cached: cached}, nil
}

func sessionOrDefault(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return engine.DefaultSession
	}
	return id
}
