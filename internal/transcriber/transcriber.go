// Package transcriber defines the interface for speech-to-text backends.
package transcriber

import (
	"context"
	"strings"
)

// Result holds the output of a transcription.
type Result struct {
	// Text is the recognised speech.
	Text string

	// Language is the ISO-639-1 code reported by the backend, if any.
	Language string
}

// Transcriber converts audio to text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Transcribe converts audio bytes of the given MIME type to text.
	// Failures are returned as apperr transcription errors.
	Transcribe(ctx context.Context, audio []byte, contentType string) (*Result, error)

	// Close releases any resources held by the transcriber.
	Close() error
}

// ExtFromContentType maps an audio MIME type to a file extension. Backends
// use it to name multipart uploads.
func ExtFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".wav"
	}
}
