// Package speech turns replies into cached audio artifacts.
//
// Identical text is synthesized at most once: concurrent requests for the
// same key share one synthesis call and later requests are served from the
// artifact store.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/artifact"
	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/tts"
)

// synthesisTimeout bounds one shared synthesis call.
const synthesisTimeout = 60 * time.Second

// Service synthesizes speech through a Synthesizer and caches the result.
type Service struct {
	synth tts.Synthesizer
	store *artifact.Store
	group singleflight.Group
}

// New returns a speech service.
func New(synth tts.Synthesizer, store *artifact.Store) *Service {
	return &Service{synth: synth, store: store}
}

// Backend returns the synthesizer's name.
func (s *Service) Backend() string { return s.synth.Name() }

// Speak returns the URL of an audio rendering of text in the voice style of
// label. cached is true when the artifact already existed. Callers that
// joined an in-flight synthesis report false. A caller whose ctx ends stops
// waiting; the synthesis itself continues for the others.
func (s *Service) Speak(ctx context.Context, text string, label emotion.Label) (url string, cached bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, apperr.Input("text must not be empty")
	}

	key := artifact.Key(text)
	if s.store.Exists(key) {
		return s.store.URLFor(key), true, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		if s.store.Exists(key) {
			return true, nil
		}
		// The synthesis outlives any single caller; joiners may still be waiting.
		synthCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), synthesisTimeout)
		defer cancel()
		res, err := s.synth.Synthesize(synthCtx, text, tts.SynthesizeOpts{
			Emotion: label,
			Style:   emotion.StyleFor(label),
		})
		if err != nil {
			return false, err
		}
		if err := s.store.Write(key, res.Audio); err != nil {
			return false, apperr.Internal(err)
		}
		slog.Debug("speech artifact written", "key", key, "bytes", len(res.Audio), "emotion", label)
		return false, nil
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			err := r.Err
			var appErr *apperr.Error
			if !errors.As(err, &appErr) {
				err = apperr.Synthesis(err)
			}
			return "", false, err
		}
		hit, _ := r.Val.(bool)
		return s.store.URLFor(key), hit, nil
	}
}

// Close releases the synthesizer.
func (s *Service) Close() error { return s.synth.Close() }
