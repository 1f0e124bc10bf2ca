// Package local implements the Transcriber interface using a self-hosted
// Whisper server.
//
// It supports any OpenAI-compatible transcription endpoint (whisper.cpp
// server, faster-whisper) and ahmetoner/whisper-asr-webservice.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/transcriber"
)

// Transcriber talks to a local Whisper deployment.
type Transcriber struct {
	endpoint  string
	flavor    string // "openai" or "asr"
	language  string
	vadFilter bool
	client    *http.Client
}

// New creates a new local transcriber from config.
func New(cfg config.WhisperConfig) *Transcriber {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Transcriber{
		endpoint:  cfg.Endpoint,
		flavor:    flavor,
		language:  cfg.Language,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe sends audio to the configured Whisper endpoint.
//   - "openai": multipart field "file", form fields for options
//   - "asr":    multipart field "audio_file", options in the query string
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (*transcriber.Result, error) {
	field := "file"
	if t.flavor == "asr" {
		field = "audio_file"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "audio"+transcriber.ExtFromContentType(contentType))
	if err != nil {
		return nil, apperr.Transcription(fmt.Errorf("creating form file: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return nil, apperr.Transcription(fmt.Errorf("writing audio: %w", err))
	}

	reqURL := t.endpoint
	if t.flavor == "asr" {
		q := make(url.Values)
		q.Set("task", "transcribe")
		q.Set("output", "json")
		q.Set("encode", "true")
		if t.language != "" {
			q.Set("language", t.language)
		}
		if t.vadFilter {
			q.Set("vad_filter", "true")
		}
		reqURL += "?" + q.Encode()
	} else {
		if t.language != "" {
			_ = writer.WriteField("language", t.language)
		}
		_ = writer.WriteField("response_format", "verbose_json")
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, apperr.Transcription(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, apperr.Transcription(fmt.Errorf("local transcription request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, apperr.Transcription(fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody))
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Transcription(fmt.Errorf("decoding transcription: %w", err))
	}

	slog.Debug("local transcription complete", "flavor", t.flavor, "text_length", len(result.Text), "language", result.Language)
	return &transcriber.Result{Text: result.Text, Language: result.Language}, nil
}

// Close is a no-op for the local transcriber.
func (t *Transcriber) Close() error { return nil }
