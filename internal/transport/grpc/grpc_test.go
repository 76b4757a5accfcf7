package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nadzzz/voicecart/internal/dispatch"
	"github.com/nadzzz/voicecart/internal/interpreter"
	"github.com/nadzzz/voicecart/internal/message"
)

func newClient(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	tr := New(0)
	d := dispatch.New(interpreter.Rules{}, nil, nil, "")
	done := make(chan error, 1)
	go func() { done <- tr.Serve(ctx, lis, d) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return conn
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, in, out any) error {
	return conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out,
		grpc.CallContentSubtype(Codec{}.Name()))
}

func TestInterpret(t *testing.T) {
	conn := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cmd message.VoiceCommand
	err := invoke(ctx, conn, "Interpret", &message.InterpretRequest{Text: "get 5 packs of noodles"}, &cmd)
	require.NoError(t, err)
	assert.Equal(t, message.ActionAdd, cmd.Action)
	assert.Equal(t, "noodles", cmd.ProductName)
	assert.Equal(t, 5, cmd.Quantity)
	assert.Equal(t, "pack", cmd.Unit)
	assert.Equal(t, "en-US", cmd.Language)
}

func TestInterpret_EmptyText(t *testing.T) {
	conn := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cmd message.VoiceCommand
	err := invoke(ctx, conn, "Interpret", &message.InterpretRequest{Text: " "}, &cmd)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDispatch(t *testing.T) {
	conn := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var res message.DispatchResult
	err := invoke(ctx, conn, "Dispatch", &message.Message{ID: "m-7", Text: "3 kilo pol danna", Language: "si-LK"}, &res)
	require.NoError(t, err)
	assert.Equal(t, "m-7", res.MessageID)
	require.NotNil(t, res.Command)
	assert.Equal(t, "pol", res.Command.ProductName)
	assert.Equal(t, 3, res.Command.Quantity)
	assert.Equal(t, "kg", res.Command.Unit)

	err = invoke(ctx, conn, "Dispatch", &message.Message{Audio: []byte{0x1}}, &res)
	require.NoError(t, err)
	assert.Equal(t, "voice input is not available on this server", res.Error)
}

func TestHealth(t *testing.T) {
	conn := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestCloseBeforeServe(t *testing.T) {
	tr := New(0)
	require.NoError(t, tr.Close())

	d := dispatch.New(interpreter.Rules{}, nil, nil, "")
	assert.NoError(t, tr.Serve(context.Background(), bufconn.Listen(1<<10), d))
}

func TestCloseWhileServing(t *testing.T) {
	tr := New(0)
	d := dispatch.New(interpreter.Rules{}, nil, nil, "")

	done := make(chan error, 1)
	go func() { done <- tr.Serve(context.Background(), bufconn.Listen(1<<10), d) }()

	require.NoError(t, tr.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
