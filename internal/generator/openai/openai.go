// Package openai implements the Generator interface using the Chat
// Completions API through go-openai.
//
// The base URL is configurable, so the same backend talks to OpenAI, Azure
// style gateways, vLLM or Ollama's OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/generator"
)

// chatClient is the part of *goopenai.Client the generator uses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Generator calls an OpenAI-compatible chat completions endpoint.
type Generator struct {
	client chatClient
	model  string
}

// New creates a new OpenAI generator from config.
func New(cfg config.OpenAIConfig) *Generator {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}
	return &Generator{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Name returns the backend identifier.
func (g *Generator) Name() string { return "openai" }

// Generate sends the prompt as a single user message.
func (g *Generator) Generate(ctx context.Context, prompt string, opts generator.Opts) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", apperr.Generation(fmt.Errorf("chat completion (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
		return "", apperr.Generation(fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Generation(fmt.Errorf("no choices returned from chat API"))
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("generation complete", "model", g.model, "text_length", len(content),
		"completion_tokens", resp.Usage.CompletionTokens)
	return content, nil
}

// Close is a no-op for the OpenAI generator.
func (g *Generator) Close() error { return nil }
