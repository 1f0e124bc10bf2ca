// Package openai implements the Transcriber interface using the OpenAI
// Audio Transcription API (Whisper / gpt-4o-transcribe) through go-openai.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/transcriber"
)

type audioClient interface {
	CreateTranscription(ctx context.Context, req goopenai.AudioRequest) (goopenai.AudioResponse, error)
}

// Transcriber uses an OpenAI-compatible transcription endpoint.
type Transcriber struct {
	client audioClient
	model  string
}

// New creates a new OpenAI transcriber from config.
func New(cfg config.OpenAIConfig) *Transcriber {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}
	model := cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Transcriber{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe uploads audio to the transcription endpoint.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (*transcriber.Result, error) {
	resp, err := t.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    t.model,
		FilePath: "audio" + transcriber.ExtFromContentType(contentType),
		Reader:   bytes.NewReader(audio),
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, apperr.Transcription(fmt.Errorf("transcription (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
		return nil, apperr.Transcription(fmt.Errorf("transcription request: %w", err))
	}

	// OpenAI returns full language names ("english"); normalise to ISO-639-1.
	lang := normalizeLanguage(resp.Language)

	slog.Debug("transcription complete", "text_length", len(resp.Text), "language", lang)
	return &transcriber.Result{Text: resp.Text, Language: lang}, nil
}

// Close is a no-op for the OpenAI transcriber.
func (t *Transcriber) Close() error { return nil }

// normalizeLanguage converts full language names (as returned by OpenAI) to ISO-639-1 codes.
func normalizeLanguage(lang string) string {
	if len(lang) == 2 {
		return strings.ToLower(lang)
	}
	known := map[string]string{
		"english":    "en",
		"french":     "fr",
		"spanish":    "es",
		"german":     "de",
		"italian":    "it",
		"portuguese": "pt",
		"dutch":      "nl",
		"japanese":   "ja",
		"chinese":    "zh",
	}
	if code, ok := known[strings.ToLower(lang)]; ok {
		return code
	}
	return strings.ToLower(lang)
}
