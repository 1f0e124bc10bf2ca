// Package config handles loading and validating the nova configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for the nova daemon.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	Generator   GeneratorConfig   `mapstructure:"generator"`
	Transcriber TranscriberConfig `mapstructure:"transcriber"`
	TTS         TTSConfig         `mapstructure:"tts"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Features    FeaturesConfig    `mapstructure:"features"`
	Persona     PersonaConfig     `mapstructure:"persona"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// GeneratorConfig selects and configures the text-generation backend.
type GeneratorConfig struct {
	Backend       string               `mapstructure:"backend"` // "openai" or "local"
	Timeout       time.Duration        `mapstructure:"timeout"`
	MaxTokens     int                  `mapstructure:"max_tokens"`
	Temperature   float32              `mapstructure:"temperature"`
	HistoryWindow int                  `mapstructure:"history_window"`
	OpenAI        OpenAIConfig         `mapstructure:"openai"`
	Local         LocalGeneratorConfig `mapstructure:"local"`
}

// OpenAIConfig holds settings for any OpenAI-compatible API.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	APIBase string `mapstructure:"api_base"`
	Model   string `mapstructure:"model"`
	Voice   string `mapstructure:"voice"` // speech backend only
}

// LocalGeneratorConfig holds Ollama settings.
type LocalGeneratorConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"` // Ollama model name (e.g., "llama3.2:1b")
}

// TranscriberConfig selects and configures the speech-to-text backend.
type TranscriberConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend"` // "openai" or "local"
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Local   WhisperConfig `mapstructure:"local"`
}

// WhisperConfig holds self-hosted Whisper settings.
type WhisperConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Type      string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	VADFilter bool   `mapstructure:"vad_filter"`
	Language  string `mapstructure:"language"` // ISO-639-1 default language (e.g., "en", "fr")
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Backend string       `mapstructure:"backend"` // "piper" or "openai"
	Piper   PiperConfig  `mapstructure:"piper"`
	OpenAI  OpenAIConfig `mapstructure:"openai"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// Voice is used for every emotion that has no entry in Voices.
type PiperConfig struct {
	Endpoint string            `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
	Voice    string            `mapstructure:"voice"`
	Voices   map[string]string `mapstructure:"voices"` // emotion label -> Piper voice model name
}

// StorageConfig locates generated audio artifacts.
type StorageConfig struct {
	AudioDir  string `mapstructure:"audio_dir"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// FeaturesConfig toggles engine features.
type FeaturesConfig struct {
	Emotions bool `mapstructure:"emotions"`
	Memory   bool `mapstructure:"memory"`
}

// PersonaConfig overrides the default persona.
type PersonaConfig struct {
	Name           string   `mapstructure:"name"`
	Traits         []string `mapstructure:"traits"`
	SpeechPatterns []string `mapstructure:"speech_patterns"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from .env, file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./nova.yaml, ./configs/nova.yaml, /etc/nova/nova.yaml.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	v := viper.New()
	setDefaults(v)

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nova")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/nova")
	}

	// Environment variables: NOVA_SERVER_HEALTH_PORT, NOVA_GENERATOR_BACKEND, etc.
	v.SetEnvPrefix("NOVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names understood by earlier deployments.
	_ = v.BindEnv("generator.openai.model", "NOVA_GENERATOR_OPENAI_MODEL", "AI_MODEL")
	_ = v.BindEnv("generator.openai.api_base", "NOVA_GENERATOR_OPENAI_API_BASE", "API_BASE")

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.Generator.OpenAI.APIKey = resolveEnvRef(cfg.Generator.OpenAI.APIKey)
	cfg.Transcriber.OpenAI.APIKey = resolveEnvRef(cfg.Transcriber.OpenAI.APIKey)
	cfg.TTS.OpenAI.APIKey = resolveEnvRef(cfg.TTS.OpenAI.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8000)
	v.SetDefault("transports.http.cors_origins", []string{"*"})
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)

	v.SetDefault("generator.backend", "openai")
	v.SetDefault("generator.timeout", "30s")
	v.SetDefault("generator.max_tokens", 150)
	v.SetDefault("generator.temperature", 0.7)
	v.SetDefault("generator.history_window", 6)
	v.SetDefault("generator.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("generator.openai.api_base", "https://api.openai.com/v1")
	v.SetDefault("generator.openai.model", "gpt-4")
	v.SetDefault("generator.local.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("generator.local.model", "llama3")

	v.SetDefault("transcriber.enabled", true)
	v.SetDefault("transcriber.backend", "openai")
	v.SetDefault("transcriber.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("transcriber.openai.api_base", "https://api.openai.com/v1")
	v.SetDefault("transcriber.openai.model", "whisper-1")
	v.SetDefault("transcriber.local.endpoint", "http://localhost:9000/v1/audio/transcriptions")
	v.SetDefault("transcriber.local.type", "openai")
	v.SetDefault("transcriber.local.vad_filter", false)
	v.SetDefault("transcriber.local.language", "en")

	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("tts.piper.voice", "en_US-lessac-medium")
	v.SetDefault("tts.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("tts.openai.api_base", "https://api.openai.com/v1")
	v.SetDefault("tts.openai.model", "tts-1")
	v.SetDefault("tts.openai.voice", "nova")

	v.SetDefault("storage.audio_dir", "static/audio")
	v.SetDefault("storage.url_prefix", "/static/audio")

	v.SetDefault("features.emotions", true)
	v.SetDefault("features.memory", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	switch c.Generator.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("unknown generator backend %q", c.Generator.Backend)
	}
	if c.Transcriber.Enabled {
		switch c.Transcriber.Backend {
		case "openai", "local":
		default:
			return fmt.Errorf("unknown transcriber backend %q", c.Transcriber.Backend)
		}
	}
	if c.TTS.Enabled {
		switch c.TTS.Backend {
		case "piper", "openai":
		default:
			return fmt.Errorf("unknown tts backend %q", c.TTS.Backend)
		}
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be positive, got %s", c.Generator.Timeout)
	}
	if c.Generator.HistoryWindow < 0 {
		return fmt.Errorf("generator.history_window must not be negative")
	}
	if !strings.HasPrefix(c.Storage.URLPrefix, "/") {
		return fmt.Errorf("storage.url_prefix must start with '/', got %q", c.Storage.URLPrefix)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
