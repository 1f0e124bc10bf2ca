package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/generator"
)

func TestGenerate(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"That's wonderful!"}}],"usage":{"completion_tokens":3}}`))
	}))
	defer srv.Close()

	g := New(config.OpenAIConfig{APIKey: "test-key", APIBase: srv.URL + "/v1", Model: "gpt-4"})
	out, err := g.Generate(context.Background(), "User says: hi", generator.Opts{MaxTokens: 150, Temperature: 0.7})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "That's wonderful!" {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "gpt-4" || got.MaxTokens != 150 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "User says: hi" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	g := New(config.OpenAIConfig{APIKey: "k", APIBase: srv.URL + "/v1", Model: "gpt-4"})
	_, err := g.Generate(context.Background(), "hi", generator.Opts{})
	if !apperr.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
