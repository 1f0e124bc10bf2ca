// Package grpc implements the gRPC transport for nova.
//
// The service nova.v1.Companion exposes the unary turn API. Messages are
// the JSON types from the message package, carried by a registered "json"
// codec, so clients set the content subtype instead of compiling protos.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/message"
	"github.com/nadzzz/nova/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nova.v1.Companion"

// serviceDesc describes nova.v1.Companion.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*transport.Service)(nil),
	Methods: []grpc.MethodDesc{
		unary("RunTurn", transport.Service.RunTurn),
		unary("DetectEmotion", transport.Service.DetectEmotion),
		unary("UpdateMemory", transport.Service.UpdateMemory),
		unary("GetMemory", transport.Service.GetMemory),
		unary("AddPersonaTrait", transport.Service.AddPersonaTrait),
		unary("Status", transport.Service.Status),
		unary("Speak", transport.Service.Speak),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nova/v1/companion",
}

// unary adapts a Service method to a gRPC method handler.
func unary[Req, Resp any](name string, call func(transport.Service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
			}
			svc := srv.(transport.Service)
			handler := func(ctx context.Context, r any) (any, error) {
				return call(svc, ctx, r.(*Req))
			}
			var (
				resp any
				err  error
			)
			if interceptor == nil {
				resp, err = handler(ctx, req)
			} else {
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
				resp, err = interceptor(ctx, req, info, handler)
			}
			if err != nil {
				return nil, toStatus(err)
			}
			return resp, nil
		},
	}
}

// toStatus maps an error to a gRPC status. Unclassified errors that
// already carry a status pass through.
func toStatus(err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		if st, ok := status.FromError(err); ok {
			return st.Err()
		}
	}
	e := apperr.From(err)
	code, msg := apperr.Public(err)

	var c codes.Code
	switch e.Kind {
	case apperr.KindInput:
		c = codes.InvalidArgument
	case apperr.KindFeatureDisabled:
		c = codes.FailedPrecondition
	case apperr.KindUpstream:
		c = codes.Unavailable
	default:
		c = codes.Internal
	}
	return status.Error(c, code+": "+msg)
}

// logRequests logs every call with its duration and outcome. It runs before
// errors are converted to statuses, so internal failures are logged with
// their cause.
func logRequests(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	switch {
	case err == nil:
		slog.Debug("grpc call", "method", info.FullMethod, "code", codes.OK.String(), "duration", time.Since(start))
	case apperr.KindOf(err) == apperr.KindInternal:
		slog.Error("grpc call failed", "method", info.FullMethod, "error", err, "duration", time.Since(start))
	default:
		slog.Debug("grpc call", "method", info.FullMethod, "code", apperr.From(err).Code, "duration", time.Since(start))
	}
	return resp, err
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// NewServer builds a gRPC server with nova.v1.Companion registered for svc.
func NewServer(svc transport.Service) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(logRequests))
	s.RegisterService(&serviceDesc, svc)
	return s
}

// Listen starts the gRPC server and serves requests with svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	t.server = NewServer(svc)

	slog.Info("grpc transport listening", "port", t.port, "service", ServiceName)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.server.GracefulStop()
	}()

	return t.server.Serve(lis)
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

// Client calls nova.v1.Companion on a remote server.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp, grpc.CallContentSubtype(codecName))
}

// RunTurn runs one conversational turn remotely.
func (c *Client) RunTurn(ctx context.Context, req *message.ChatRequest) (*message.TurnResult, error) {
	resp := new(message.TurnResult)
	if err := c.invoke(ctx, "RunTurn", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DetectEmotion classifies text remotely.
func (c *Client) DetectEmotion(ctx context.Context, req *message.EmotionRequest) (*message.EmotionResponse, error) {
	resp := new(message.EmotionResponse)
	if err := c.invoke(ctx, "DetectEmotion", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Status fetches the remote status.
func (c *Client) Status(ctx context.Context, req *message.SessionRequest) (*message.StatusResponse, error) {
	resp := new(message.StatusResponse)
	if err := c.invoke(ctx, "Status", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
