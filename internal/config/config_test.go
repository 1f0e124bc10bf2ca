package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transports.HTTP.Port != 8000 || !cfg.Transports.HTTP.Enabled {
		t.Fatalf("unexpected http config %+v", cfg.Transports.HTTP)
	}
	if cfg.Generator.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.Generator.Timeout)
	}
	if cfg.Generator.HistoryWindow != 6 || cfg.Generator.MaxTokens != 150 {
		t.Fatalf("unexpected generator config %+v", cfg.Generator)
	}
	if cfg.Generator.OpenAI.APIKey != "sk-test" {
		t.Fatalf("env reference not resolved: %q", cfg.Generator.OpenAI.APIKey)
	}
	if !cfg.Features.Memory || !cfg.Features.Emotions {
		t.Fatalf("features should default on: %+v", cfg.Features)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("file value not applied: %q", cfg.Logging.Level)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
generator:
  backend: local
  timeout: 5s
features:
  memory: false
persona:
  name: Iris
  traits: [calm, witty]
tts:
  piper:
    voices:
      sad: en_US-amy-low
`)
	t.Setenv("NOVA_TRANSPORTS_HTTP_PORT", "9000")
	t.Setenv("AI_MODEL", "gpt-4o-mini")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generator.Backend != "local" || cfg.Generator.Timeout != 5*time.Second {
		t.Fatalf("unexpected generator config %+v", cfg.Generator)
	}
	if cfg.Features.Memory {
		t.Fatal("memory should be disabled by file")
	}
	if cfg.Transports.HTTP.Port != 9000 {
		t.Fatalf("env override not applied: %d", cfg.Transports.HTTP.Port)
	}
	if cfg.Generator.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("legacy AI_MODEL not applied: %q", cfg.Generator.OpenAI.Model)
	}
	if cfg.Persona.Name != "Iris" || len(cfg.Persona.Traits) != 2 {
		t.Fatalf("unexpected persona %+v", cfg.Persona)
	}
	if cfg.TTS.Piper.Voices["sad"] != "en_US-amy-low" {
		t.Fatalf("unexpected piper voices %v", cfg.TTS.Piper.Voices)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "generator:\n  backend: carrier-pigeon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("NOVA_TEST_SECRET", "s3cret")
	if got := resolveEnvRef("${NOVA_TEST_SECRET}"); got != "s3cret" {
		t.Fatalf("expected s3cret, got %q", got)
	}
	if got := resolveEnvRef("${NOVA_TEST_UNSET_VAR}"); got != "" {
		t.Fatalf("expected empty for unset var, got %q", got)
	}
	if got := resolveEnvRef("plain"); got != "plain" {
		t.Fatalf("expected plain, got %q", got)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nova.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
