// Package generator defines the interface for text-generation backends.
//
// A Generator receives a fully assembled context string and returns the
// backend's raw text. Nova ships with two backends: OpenAI-compatible chat
// completions (cloud or any compatible server) and a local Ollama endpoint.
package generator

import "context"

// Opts controls a single generation call.
type Opts struct {
	MaxTokens   int
	Temperature float32
}

// Generator produces text from a context prompt.
type Generator interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Generate returns the raw generated text. Failures are returned as
	// apperr generation errors.
	Generate(ctx context.Context, prompt string, opts Opts) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}
