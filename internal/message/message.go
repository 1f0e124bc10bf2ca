// Package message defines the request and response types shared by every
// nova transport.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/nadzzz/nova/internal/emotion"
)

// HistoryEntry is one prior exchange supplied by the client, typically with
// "role" and "content" keys. Any other keys (e.g. "user_name") are kept.
type HistoryEntry map[string]string

// UnmarshalJSON accepts either an object or a bare string. A bare string
// becomes a user entry.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*h = HistoryEntry{"role": "user", "content": s}
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("history entry must be a string or an object: %w", err)
	}
	entry := make(HistoryEntry, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			entry[k] = val
		case nil:
			entry[k] = ""
		default:
			entry[k] = fmt.Sprint(val)
		}
	}
	*h = entry
	return nil
}

// Line renders the entry as a transcript line ("role: content").
func (h HistoryEntry) Line() string {
	role := h["role"]
	if role == "" {
		role = "user"
	}
	return role + ": " + h["content"]
}

// ChatRequest is the input to one conversational turn.
type ChatRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Text      string         `json:"text"`
	History   []HistoryEntry `json:"conversation_history,omitempty"`

	// Speak requests a synthesized rendering of the reply.
	Speak bool `json:"speak,omitempty"`
}

// UnmarshalJSON also accepts the history under the short key "history".
// conversation_history wins when both are present.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	type plain ChatRequest
	var aux struct {
		plain
		Short []HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ChatRequest(aux.plain)
	if len(r.History) == 0 {
		r.History = aux.Short
	}
	return nil
}

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"session_id"`
	Text        string             `json:"text"`
	RawResponse string             `json:"raw_response"`
	Emotion     emotion.Label      `json:"emotion"`
	Description string             `json:"emotion_description"`
	VoiceStyle  emotion.VoiceStyle `json:"voice_style"`

	// MemoryUpdates carries facts learned during the turn that the client
	// has not seen yet.
	MemoryUpdates map[string]any `json:"memory_updates"`

	AudioURL string `json:"audio_url,omitempty"`
}

// EmotionRequest asks for the emotion of a text.
type EmotionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

// EmotionResponse is the session's emotion after detection.
type EmotionResponse struct {
	Emotion     emotion.Label `json:"emotion"`
	Description string        `json:"description"`
}

// MemoryUpdate sets one memory fact.
type MemoryUpdate struct {
	SessionID string `json:"session_id,omitempty"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
}

// MemoryUpdateResponse reports the memory after an update.
type MemoryUpdateResponse struct {
	Status        string         `json:"status"`
	UpdatedMemory map[string]any `json:"updated_memory"`
}

// MemoryResponse holds a session's memory.
type MemoryResponse struct {
	Memory map[string]any `json:"memory"`
}

// TraitRequest adds a persona trait.
type TraitRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Trait     string `json:"trait"`
}

// TraitResponse reports the persona traits after an update.
type TraitResponse struct {
	Status string   `json:"status"`
	Traits []string `json:"traits"`
}

// SessionRequest names the session an operation applies to.
type SessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// PersonaStatus describes the active persona.
type PersonaStatus struct {
	Name           string   `json:"name"`
	Traits         []string `json:"traits"`
	SpeechPatterns []string `json:"speech_patterns"`
}

// StatusResponse reports component availability and session state.
type StatusResponse struct {
	Components      map[string]bool `json:"components"`
	Features        map[string]bool `json:"features"`
	Persona         PersonaStatus   `json:"persona"`
	CurrentEmotion  emotion.Label   `json:"current_emotion"`
	UserName        string          `json:"user_name,omitempty"`
	LastInteraction string          `json:"last_interaction"`
	Sessions        int             `json:"sessions"`
}

// TranscribeRequest carries audio for speech-to-text.
type TranscribeRequest struct {
	Audio       []byte `json:"audio"`
	ContentType string `json:"content_type"`
}

// TranscribeResponse is the recognized text.
type TranscribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// SpeechRequest asks for a spoken rendering of text.
type SpeechRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`

	// Emotion overrides the session's current emotion.
	Emotion emotion.Label `json:"emotion,omitempty"`
}

// SpeechResponse locates the synthesized audio.
type SpeechResponse struct {
	AudioURL string `json:"audio_url"`
	Cached   bool   `json:"cached"`
}

// ErrorBody is the error payload returned by every transport.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
