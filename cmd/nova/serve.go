package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nadzzz/nova/internal/artifact"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/dispatch"
	"github.com/nadzzz/nova/internal/engine"
	"github.com/nadzzz/nova/internal/generator"
	localgen "github.com/nadzzz/nova/internal/generator/local"
	openaigen "github.com/nadzzz/nova/internal/generator/openai"
	"github.com/nadzzz/nova/internal/health"
	"github.com/nadzzz/nova/internal/speech"
	"github.com/nadzzz/nova/internal/transcriber"
	localstt "github.com/nadzzz/nova/internal/transcriber/local"
	openaistt "github.com/nadzzz/nova/internal/transcriber/openai"
	"github.com/nadzzz/nova/internal/transport"
	grpctransport "github.com/nadzzz/nova/internal/transport/grpc"
	httptransport "github.com/nadzzz/nova/internal/transport/http"
	"github.com/nadzzz/nova/internal/tts"
	openaitts "github.com/nadzzz/nova/internal/tts/openai"
	"github.com/nadzzz/nova/internal/tts/piper"
)

func serveCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the nova daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			config.SetupLogging(cfg.Logging)
			slog.Info("nova starting", "version", version)

			// Create root context with signal handling for graceful shutdown.
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/nova.yaml)")
	return cmd
}

func newGenerator(cfg config.GeneratorConfig) generator.Generator {
	switch cfg.Backend {
	case "local":
		slog.Info("using local generator", "endpoint", cfg.Local.Endpoint, "model", cfg.Local.Model)
		return localgen.New(cfg.Local)
	default:
		slog.Info("using OpenAI generator", "model", cfg.OpenAI.Model, "api_base", cfg.OpenAI.APIBase)
		return openaigen.New(cfg.OpenAI)
	}
}

func newTranscriber(cfg config.TranscriberConfig) transcriber.Transcriber {
	if !cfg.Enabled {
		slog.Info("speech-to-text disabled")
		return nil
	}
	switch cfg.Backend {
	case "local":
		slog.Info("using local transcriber", "endpoint", cfg.Local.Endpoint, "type", cfg.Local.Type)
		return localstt.New(cfg.Local)
	default:
		slog.Info("using OpenAI transcriber", "model", cfg.OpenAI.Model)
		return openaistt.New(cfg.OpenAI)
	}
}

func newSynthesizer(cfg config.TTSConfig) tts.Synthesizer {
	switch cfg.Backend {
	case "openai":
		slog.Info("using OpenAI TTS", "model", cfg.OpenAI.Model, "voice", cfg.OpenAI.Voice)
		return openaitts.New(cfg.OpenAI)
	default:
		slog.Info("using Piper TTS", "endpoint", cfg.Piper.Endpoint, "voice", cfg.Piper.Voice, "emotion_voices", len(cfg.Piper.Voices))
		return piper.New(cfg.Piper)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	gen := newGenerator(cfg.Generator)
	defer gen.Close()

	stt := newTranscriber(cfg.Transcriber)
	if stt != nil {
		defer stt.Close()
	}

	var (
		store        *artifact.Store
		voice        *speech.Service
		healthServer = health.New(cfg.Server.HealthPort)
	)
	if cfg.TTS.Enabled {
		var err error
		store, err = artifact.NewOsStore(cfg.Storage.AudioDir, cfg.Storage.URLPrefix)
		if err != nil {
			return err
		}
		voice = speech.New(newSynthesizer(cfg.TTS), store)
		defer voice.Close()
		healthServer.AddCheck("artifacts", store.Check)
	} else {
		slog.Info("voice disabled")
	}

	sessions := engine.NewRegistry(func() *engine.State {
		return engine.NewState(engine.Options{
			MemoryEnabled:  cfg.Features.Memory,
			Name:           cfg.Persona.Name,
			Traits:         cfg.Persona.Traits,
			SpeechPatterns: cfg.Persona.SpeechPatterns,
		})
	})
	dispatcher := dispatch.New(dispatch.SettingsFrom(cfg), sessions, gen, stt, voice)

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, store))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if len(transports) == 0 {
		return fmt.Errorf("no transports enabled, enable at least one in config")
	}

	// Start health check server.
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("nova ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"emotions", cfg.Features.Emotions,
		"memory", cfg.Features.Memory)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("nova stopped")
	return nil
}
