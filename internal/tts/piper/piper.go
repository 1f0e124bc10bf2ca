// Package piper implements the TTS Synthesizer against a Piper server
// speaking the Wyoming protocol (linuxserver/piper listens on TCP 10200).
//
// Piper has no prosody controls, so emotion is expressed by choosing a
// different voice model per emotion.
package piper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/audio"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/tts"
)

const (
	defaultVoice   = "en_US-lessac-medium"
	dialTimeout    = 10 * time.Second
	requestTimeout = 30 * time.Second
)

// Synthesizer implements tts.Synthesizer over Wyoming.
type Synthesizer struct {
	addr   string
	voice  string
	voices map[string]string // emotion label -> voice model
}

// New creates a Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	voices := make(map[string]string, len(cfg.Voices))
	for label, v := range cfg.Voices {
		voices[strings.ToLower(label)] = v
	}
	s := &Synthesizer{
		addr:   strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "tcp://"), "http://"),
		voice:  cfg.Voice,
		voices: voices,
	}
	if s.voice == "" {
		s.voice = defaultVoice
	}
	return s
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "piper" }

// voiceFor resolves the voice: explicit override, then emotion, then default.
func (s *Synthesizer) voiceFor(opts tts.SynthesizeOpts) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	if v, ok := s.voices[string(opts.Emotion)]; ok {
		return v
	}
	return s.voice
}

// Synthesize renders text and returns it as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, apperr.Synthesis(fmt.Errorf("empty text for synthesis"))
	}
	if s.addr == "" {
		return nil, apperr.Synthesis(fmt.Errorf("no piper endpoint configured"))
	}
	voice := s.voiceFor(opts)
	logger := slog.With("backend", "piper", "voice", voice, "emotion", opts.Emotion)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return nil, apperr.Synthesis(fmt.Errorf("connecting to piper at %s: %w", s.addr, err))
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(requestTimeout)
	}
	_ = conn.SetDeadline(deadline)

	req := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, req); err != nil {
		return nil, apperr.Synthesis(fmt.Errorf("sending synthesize: %w", err))
	}

	res, err := collectAudio(newEventReader(conn))
	if err != nil {
		return nil, apperr.Synthesis(err)
	}
	logger.Debug("piper synthesis complete", "text_length", len(text), "bytes", len(res.Audio), "rate", res.SampleRate)
	return res, nil
}

// collectAudio gathers audio-chunk payloads until audio-stop.
func collectAudio(er *eventReader) (*tts.SynthesizeResult, error) {
	var (
		pcm      bytes.Buffer
		rate     = 22050
		width    = 2
		channels = 1
	)
	for {
		e, err := er.next()
		if err != nil {
			return nil, err
		}
		switch e.Type {
		case "audio-start":
			rate = intField(e.Data, "rate", rate)
			width = intField(e.Data, "width", width)
			channels = intField(e.Data, "channels", channels)
		case "audio-chunk":
			pcm.Write(e.Payload)
		case "audio-stop":
			return &tts.SynthesizeResult{
				Audio:       audio.PCMToWAV(pcm.Bytes(), rate, channels, width),
				ContentType: "audio/wav",
				SampleRate:  rate,
			}, nil
		case "error":
			msg, _ := e.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper: %s", msg)
		}
	}
}

// Close is a no-op; connections are per request.
func (s *Synthesizer) Close() error { return nil }
