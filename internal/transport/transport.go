// Package transport defines the interface for pluggable client transports.
//
// Each transport (HTTP/WebSocket, gRPC) implements this interface and is
// handed the dispatcher when it starts listening. The dispatcher doesn't care
// how messages arrive; transports only work with the Handler contract.
package transport

import (
	"context"

	"github.com/nadzzz/voicecart/internal/dispatch"
	"github.com/nadzzz/voicecart/internal/message"
)

// Handler is the pipeline a transport feeds. *dispatch.Dispatcher implements it.
type Handler interface {
	// Handle processes a text or audio message and returns its outcome.
	Handle(ctx context.Context, msg *message.Message) (*message.DispatchResult, error)

	// Interpret classifies a transcript without touching the storefront.
	Interpret(transcript, lang string) message.VoiceCommand

	// Listen runs one listening session, typically on a client-fed recognizer.
	Listen(ctx context.Context, req dispatch.SessionRequest) *message.DispatchResult

	// Cart operations pass straight through to the storefront.
	Cart(ctx context.Context) (*message.Cart, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (*message.Cart, error)
	RemoveCartItem(ctx context.Context, itemID string) (*message.Cart, error)
	ClearCart(ctx context.Context) (*message.Cart, error)
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts accepting requests and passes them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}

var _ Handler = (*dispatch.Dispatcher)(nil)
