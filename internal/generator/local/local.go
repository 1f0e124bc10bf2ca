// Package local implements the Generator interface against a self-hosted
// Ollama server using its native /api/generate endpoint.
//
// Unlike chat endpoints, raw completion models may echo the prompt back in
// their output. The orchestrator strips everything up to the user-text
// marker, so the raw response is returned untouched here.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/generator"
)

// Generator calls an Ollama-compatible generate endpoint.
type Generator struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a new local generator from config.
func New(cfg config.LocalGeneratorConfig) *Generator {
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &Generator{
		endpoint: cfg.Endpoint,
		model:    model,
		client:   &http.Client{},
	}
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "local" }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float32 `json:"temperature"`
}

// Generate sends the prompt to the local model.
func (g *Generator) Generate(ctx context.Context, prompt string, opts generator.Opts) (string, error) {
	bodyBytes, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	})
	if err != nil {
		return "", apperr.Generation(fmt.Errorf("marshalling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", apperr.Generation(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", apperr.Generation(fmt.Errorf("local LLM request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", apperr.Generation(fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Generation(fmt.Errorf("decoding LLM response: %w", err))
	}

	slog.Debug("local generation complete", "model", g.model, "text_length", len(out.Response))
	return out.Response, nil
}

// Close is a no-op for the local generator.
func (g *Generator) Close() error { return nil }
