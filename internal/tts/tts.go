// Package tts defines the interface for text-to-speech synthesis.
//
// Nova passes the current emotion and its voice style to the synthesizer
// so backends can pick a matching voice or speaking rate.
package tts

import (
	"context"

	"github.com/nadzzz/nova/internal/emotion"
)

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Emotion is the emotional hint for the utterance.
	Emotion emotion.Label

	// Style is the prosody derived from Emotion.
	Style emotion.VoiceStyle

	// Voice overrides the backend's emotion-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g., "piper", "openai").
	Name() string

	// Synthesize generates audio from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050). Zero when unknown.
	SampleRate int
}
