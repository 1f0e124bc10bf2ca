package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/artifact"
	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/tts"
)

type countingSynth struct {
	calls atomic.Int32
	delay time.Duration
	err   error
	last  atomic.Value // tts.SynthesizeOpts

	// When set, Synthesize signals started and blocks until release.
	started chan struct{}
	release chan struct{}
}

func (c *countingSynth) Name() string { return "counting" }
func (c *countingSynth) Close() error { return nil }
func (c *countingSynth) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	c.calls.Add(1)
	c.last.Store(opts)
	if c.release != nil {
		close(c.started)
		select {
		case <-c.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	time.Sleep(c.delay)
	if c.err != nil {
		return nil, c.err
	}
	return &tts.SynthesizeResult{Audio: []byte("RIFF" + text), ContentType: "audio/wav"}, nil
}

func newService(t *testing.T, synth *countingSynth) (*Service, *artifact.Store) {
	t.Helper()
	store, err := artifact.NewStore(afero.NewMemMapFs(), "audio", "/static/audio")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return New(synth, store), store
}

func TestSpeak_CachesByText(t *testing.T) {
	synth := &countingSynth{}
	svc, store := newService(t, synth)

	url1, cached1, err := svc.Speak(context.Background(), "Hello friend", emotion.Happy)
	if err != nil {
		t.Fatalf("first speak: %v", err)
	}
	url2, cached2, err := svc.Speak(context.Background(), "Hello friend", emotion.Happy)
	if err != nil {
		t.Fatalf("second speak: %v", err)
	}

	if synth.calls.Load() != 1 {
		t.Fatalf("expected exactly one synthesis, got %d", synth.calls.Load())
	}
	if url1 != url2 || url1 != "/static/audio/"+artifact.Key("Hello friend")+".wav" {
		t.Fatalf("unexpected urls %s %s", url1, url2)
	}
	if cached1 || !cached2 {
		t.Fatalf("expected miss then hit, got %v %v", cached1, cached2)
	}
	if data, _ := store.Read(artifact.Key("Hello friend")); string(data) != "RIFFHello friend" {
		t.Fatalf("unexpected artifact %q", data)
	}

	opts := synth.last.Load().(tts.SynthesizeOpts)
	if opts.Emotion != emotion.Happy || opts.Style != emotion.StyleFor(emotion.Happy) {
		t.Fatalf("emotion not passed to synthesizer: %+v", opts)
	}
}

func TestSpeak_ConcurrentCallsShareSynthesis(t *testing.T) {
	synth := &countingSynth{delay: 50 * time.Millisecond}
	svc, _ := newService(t, synth)

	var wg sync.WaitGroup
	var hits atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, cached, err := svc.Speak(context.Background(), "same words", emotion.Warm)
			if err != nil {
				t.Errorf("speak: %v", err)
			}
			if cached {
				hits.Add(1)
			}
		}()
	}
	wg.Wait()

	if synth.calls.Load() != 1 {
		t.Fatalf("expected one synthesis for concurrent requests, got %d", synth.calls.Load())
	}
	// Only callers that arrived after the artifact existed may report a hit.
	if hits.Load() == 8 {
		t.Fatal("every caller reported cached although one synthesis ran")
	}
	if _, cached, _ := svc.Speak(context.Background(), "same words", emotion.Warm); !cached {
		t.Fatal("expected cached after synthesis")
	}
}

func TestSpeak_SharedSynthesisSurvivesCallerCancel(t *testing.T) {
	synth := &countingSynth{started: make(chan struct{}), release: make(chan struct{})}
	svc, store := newService(t, synth)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, _, err := svc.Speak(ctxA, "hello", emotion.Warm)
		errA <- err
	}()
	<-synth.started

	type result struct {
		url    string
		cached bool
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		url, cached, err := svc.Speak(context.Background(), "hello", emotion.Warm)
		resB <- result{url, cached, err}
	}()
	time.Sleep(20 * time.Millisecond) // let B join the flight

	cancelA()
	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancelled caller to see context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(synth.release)
	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("joined caller failed: %v", r.err)
		}
		if r.cached || r.url != store.URLFor(artifact.Key("hello")) {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("joined caller did not return")
	}
	if synth.calls.Load() != 1 {
		t.Fatalf("expected one synthesis, got %d", synth.calls.Load())
	}
	if !store.Exists(artifact.Key("hello")) {
		t.Fatal("artifact missing after shared synthesis")
	}
}

func TestSpeak_Failure(t *testing.T) {
	synth := &countingSynth{err: errors.New("piper down")}
	svc, store := newService(t, synth)

	_, _, err := svc.Speak(context.Background(), "hello", emotion.Sad)
	if !apperr.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if store.Exists(artifact.Key("hello")) {
		t.Fatal("failed synthesis must not leave an artifact")
	}
}

func TestSpeak_EmptyText(t *testing.T) {
	svc, _ := newService(t, &countingSynth{})
	if _, _, err := svc.Speak(context.Background(), "   ", emotion.Warm); !apperr.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}
