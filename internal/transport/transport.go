// Package transport defines the contract between nova's network front ends
// and the conversation engine.
//
// Each transport (HTTP/WebSocket, gRPC) implements Transport and is handed
// the same Service. Transports only decode requests, call the Service and
// map errors to their protocol; they hold no conversational state.
package transport

import (
	"context"

	"github.com/nadzzz/nova/internal/message"
)

// Service is the turn API every transport exposes.
type Service interface {
	// OpenSession creates a fresh session and returns its id.
	OpenSession() string

	RunTurn(ctx context.Context, req *message.ChatRequest) (*message.TurnResult, error)
	DetectEmotion(ctx context.Context, req *message.EmotionRequest) (*message.EmotionResponse, error)
	UpdateMemory(ctx context.Context, req *message.MemoryUpdate) (*message.MemoryUpdateResponse, error)
	GetMemory(ctx context.Context, req *message.SessionRequest) (*message.MemoryResponse, error)
	AddPersonaTrait(ctx context.Context, req *message.TraitRequest) (*message.TraitResponse, error)
	Status(ctx context.Context, req *message.SessionRequest) (*message.StatusResponse, error)
	Transcribe(ctx context.Context, req *message.TranscribeRequest) (*message.TranscribeResponse, error)
	Speak(ctx context.Context, req *message.SpeechRequest) (*message.SpeechResponse, error)
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and serves them with svc.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, svc Service) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
