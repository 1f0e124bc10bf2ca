package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/tts"
)

func TestSynthesize(t *testing.T) {
	var got struct {
		Model          string  `json:"model"`
		Input          string  `json:"input"`
		Voice          string  `json:"voice"`
		ResponseFormat string  `json:"response_format"`
		Speed          float64 `json:"speed"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFFfake"))
	}))
	defer srv.Close()

	s := New(config.OpenAIConfig{APIKey: "k", APIBase: srv.URL + "/v1", Model: "tts-1", Voice: "nova"})
	res, err := s.Synthesize(context.Background(), "Wow!", tts.SynthesizeOpts{
		Emotion: emotion.Excited,
		Style:   emotion.StyleFor(emotion.Excited),
	})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(res.Audio) != "RIFFfake" || res.ContentType != "audio/wav" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got.Input != "Wow!" || got.Voice != "nova" || got.ResponseFormat != "wav" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Speed != emotion.StyleFor(emotion.Excited).SpeedFactor() {
		t.Fatalf("expected excited speed, got %v", got.Speed)
	}
}

func TestSynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad voice","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	s := New(config.OpenAIConfig{APIKey: "k", APIBase: srv.URL + "/v1"})
	_, err := s.Synthesize(context.Background(), "hi", tts.SynthesizeOpts{})
	if !apperr.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
