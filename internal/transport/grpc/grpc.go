// Package grpc implements the gRPC transport for voicecart.
//
// The service voicecart.v1.VoiceCart exposes two unary methods, Interpret
// and Dispatch, for kiosks and backend services. Messages are JSON encoded
// (content-subtype "json") using the same types as the HTTP API, so no
// generated stubs are needed. The standard gRPC health service is served
// alongside with the default protobuf codec.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "voicecart.v1.VoiceCart"

// Codec encodes messages as JSON. Clients select it with
// grpc.CallContentSubtype(Codec{}.Name()).
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return "json" }

func init() {
	encoding.RegisterCodec(Codec{})
}

// Transport implements transport.Transport over gRPC. The server is built
// up front so Close never races with Serve.
type Transport struct {
	port   int
	server *grpc.Server
	health *grpchealth.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	t := &Transport{
		port:   port,
		server: grpc.NewServer(),
		health: grpchealth.NewServer(),
	}
	healthpb.RegisterHealthServer(t.server, t.health)
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve runs the server on lis until ctx is cancelled. It may be called
// once per Transport.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.server.RegisterService(&serviceDesc, &server{handler: handler})
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		t.server.GracefulStop()
	}()

	if err := t.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.health.Shutdown()
	t.server.GracefulStop()
	return nil
}

// voiceCartServer is the service contract checked by RegisterService.
type voiceCartServer interface {
	Interpret(context.Context, *message.InterpretRequest) (*message.VoiceCommand, error)
	Dispatch(context.Context, *message.Message) (*message.DispatchResult, error)
}

type server struct {
	handler transport.Handler
}

func (s *server) Interpret(_ context.Context, req *message.InterpretRequest) (*message.VoiceCommand, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}
	cmd := s.handler.Interpret(req.Text, req.Language)
	return &cmd, nil
}

func (s *server) Dispatch(ctx context.Context, msg *message.Message) (*message.DispatchResult, error) {
	if msg.Source == "" {
		msg.Source = "grpc"
	}
	result, err := s.handler.Handle(ctx, msg)
	if err != nil {
		slog.Error("dispatch failed", "error", err)
		return nil, status.Errorf(codes.Internal, "dispatch: %v", err)
	}
	return result, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*voiceCartServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Interpret", Handler: interpretHandler},
		{MethodName: "Dispatch", Handler: dispatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voicecart/v1/voicecart.proto",
}

func interpretHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.InterpretRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(voiceCartServer).Interpret(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Interpret"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(voiceCartServer).Interpret(ctx, req.(*message.InterpretRequest))
	})
}

func dispatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Message)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(voiceCartServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Dispatch"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(voiceCartServer).Dispatch(ctx, req.(*message.Message))
	})
}
