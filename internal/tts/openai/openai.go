// Package openai implements the TTS Synthesizer using the OpenAI speech API.
//
// Emotion maps onto the request's speed; the voice is fixed per deployment
// unless the caller overrides it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/tts"
)

type speechClient interface {
	CreateSpeech(ctx context.Context, req goopenai.CreateSpeechRequest) (goopenai.RawResponse, error)
}

// Synthesizer calls /audio/speech on an OpenAI-compatible API.
type Synthesizer struct {
	client speechClient
	model  string
	voice  string
}

// New creates a new OpenAI synthesizer from config.
func New(cfg config.OpenAIConfig) *Synthesizer {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}
	model := cfg.Model
	if model == "" {
		model = string(goopenai.TTSModel1)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(goopenai.VoiceNova)
	}
	return &Synthesizer{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		voice:  voice,
	}
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "openai" }

// Synthesize requests WAV audio for text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, apperr.Synthesis(fmt.Errorf("empty text for synthesis"))
	}
	voice := s.voice
	if opts.Voice != "" {
		voice = opts.Voice
	}
	speed := opts.Style.SpeedFactor()

	slog.Debug("openai synthesize", "text_length", len(text), "voice", voice, "speed", speed, "emotion", opts.Emotion)

	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(s.model),
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatWav,
		Speed:          speed,
	})
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return nil, apperr.Synthesis(fmt.Errorf("speech (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message))
		}
		return nil, apperr.Synthesis(fmt.Errorf("speech: %w", err))
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, apperr.Synthesis(fmt.Errorf("reading speech response: %w", err))
	}
	if len(data) == 0 {
		return nil, apperr.Synthesis(fmt.Errorf("empty speech response"))
	}
	return &tts.SynthesizeResult{Audio: data, ContentType: "audio/wav"}, nil
}

// Close is a no-op for the OpenAI synthesizer.
func (s *Synthesizer) Close() error { return nil }
