package grpc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/dispatch"
	"github.com/nadzzz/nova/internal/emotion"
	"github.com/nadzzz/nova/internal/engine"
	"github.com/nadzzz/nova/internal/generator"
	"github.com/nadzzz/nova/internal/message"
	"github.com/nadzzz/nova/internal/transport"
)

type replyGenerator struct{ reply string }

func (g replyGenerator) Name() string { return "reply" }
func (g replyGenerator) Close() error { return nil }
func (g replyGenerator) Generate(context.Context, string, generator.Opts) (string, error) {
	return g.reply, nil
}

type quietRand struct{}

func (quietRand) Float64() float64 { return 0.99 }
func (quietRand) Intn(int) int     { return 0 }

func startServer(t *testing.T, settings dispatch.Settings) (*Client, *grpc.ClientConn) {
	t.Helper()
	registry := engine.NewRegistry(func() *engine.State {
		return engine.NewState(engine.Options{MemoryEnabled: false, Rand: quietRand{}})
	})
	svc := dispatch.New(settings, registry, replyGenerator{reply: "That's wonderful!"}, nil, nil)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(svc)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn), conn
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunTurn(t *testing.T) {
	client, _ := startServer(t, dispatch.Settings{Emotions: true, Timeout: time.Second, HistoryWindow: 6})

	res, err := client.RunTurn(testCtx(t), &message.ChatRequest{
		SessionID: "g1",
		Text:      "I feel happy today",
		History:   []message.HistoryEntry{{"role": "user", "content": "hi"}},
	})
	if err != nil {
		t.Fatalf("run turn: %v", err)
	}
	if res.Text != "That's wonderful!" || res.Emotion != emotion.Happy || res.SessionID != "g1" {
		t.Fatalf("unexpected result %+v", res)
	}

	st, err := client.Status(testCtx(t), &message.SessionRequest{SessionID: "g1"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.CurrentEmotion != emotion.Happy {
		t.Fatalf("expected session emotion happy, got %s", st.CurrentEmotion)
	}
}

func TestErrorCodes(t *testing.T) {
	client, conn := startServer(t, dispatch.Settings{Emotions: false, Timeout: time.Second})

	_, err := client.RunTurn(testCtx(t), &message.ChatRequest{Text: ""})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	_, err = client.DetectEmotion(testCtx(t), &message.EmotionRequest{Text: "haha"})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}

	// Memory is disabled in this registry.
	var resp message.MemoryUpdateResponse
	err = conn.Invoke(testCtx(t), "/"+ServiceName+"/UpdateMemory",
		&message.MemoryUpdate{Key: "k", Value: "v"}, &resp, grpc.CallContentSubtype(codecName))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{apperr.Input("bad"), codes.InvalidArgument},
		{apperr.Disabled("voice"), codes.FailedPrecondition},
		{apperr.Generation(errors.New("x")), codes.Unavailable},
		{errors.New("secret detail"), codes.Internal},
	}
	for _, tt := range tests {
		st, _ := status.FromError(toStatus(tt.err))
		if st.Code() != tt.code {
			t.Fatalf("%v: expected %s, got %s", tt.err, tt.code, st.Code())
		}
		if tt.code == codes.Internal && st.Message() != apperr.CodeInternal+": internal error" {
			t.Fatalf("internal detail leaked: %q", st.Message())
		}
	}
}

// brokenService fails Status with an unclassified error.
type brokenService struct{ transport.Service }

func (brokenService) Status(context.Context, *message.SessionRequest) (*message.StatusResponse, error) {
	return nil, errors.New("disk full")
}

func TestInternalErrorLoggedWithCause(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	desc := unary("Status", transport.Service.Status)
	_, err := desc.Handler(brokenService{}, context.Background(), func(any) error { return nil }, logRequests)

	st, _ := status.FromError(err)
	if st.Code() != codes.Internal || strings.Contains(st.Message(), "disk full") {
		t.Fatalf("expected redacted internal status, got %v", err)
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("cause missing from log: %q", buf.String())
	}
}
