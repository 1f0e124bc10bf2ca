// Package http implements the HTTP/WebSocket transport for nova.
//
// This transport exposes the REST turn API, a WebSocket endpoint for
// conversational sessions, the generated audio artifacts and the Swagger UI.
// It is best suited for web clients, phones, and services that prefer
// HTTP-based communication.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/spf13/afero"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/nova/internal/artifact"
	"github.com/nadzzz/nova/internal/config"
	"github.com/nadzzz/nova/internal/transport"
)

const (
	maxJSONBody  = 1 << 20
	maxAudioBody = 25 << 20
)

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port        int
	corsOrigins []string
	artifacts   *artifact.Store // nil when TTS is disabled
	server      *http.Server
	sockets     *socketSet
}

// New creates a new HTTP transport. artifacts may be nil.
func New(cfg config.HTTPConfig, artifacts *artifact.Store) *Transport {
	return &Transport{
		port:        cfg.Port,
		corsOrigins: cfg.CORSOrigins,
		artifacts:   artifacts,
		sockets:     newSocketSet(),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the routing table for svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	h := &handlers{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("POST /detect-emotion", h.detectEmotion)
	mux.HandleFunc("POST /update-memory", h.updateMemory)
	mux.HandleFunc("GET /get-memory", h.getMemory)
	mux.HandleFunc("POST /update-personality", h.updatePersonality)
	mux.HandleFunc("GET /system-status", h.systemStatus)
	mux.HandleFunc("POST /speech-to-text", h.speechToText)
	mux.HandleFunc("POST /text-to-speech", h.textToSpeech)

	// GET /ws — conversational WebSocket sessions.
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.serveWS(w, r, svc)
	})

	// Generated audio, served read-only from the artifact store.
	if t.artifacts != nil {
		prefix := t.artifacts.URLPrefix()
		files := http.FileServer(afero.NewHttpFs(t.artifacts.FS()))
		mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix, files))
	}

	// Swagger UI — serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return t.cors(mux)
}

// Listen starts the HTTP server and serves requests with svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked WebSocket connections are not closed by Shutdown.
	t.server.RegisterOnShutdown(t.sockets.closeAll)

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// originAllowed reports whether origin may call the API from a browser.
func (t *Transport) originAllowed(origin string) bool {
	return slices.Contains(t.corsOrigins, "*") || slices.Contains(t.corsOrigins, origin)
}

// cors answers preflight requests and sets the allow headers.
func (t *Transport) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && t.originAllowed(origin) {
			allow := origin
			if slices.Contains(t.corsOrigins, "*") {
				allow = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", allow)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
