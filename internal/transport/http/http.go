// Package http implements the HTTP/WebSocket transport for voicecart.
//
// This transport exposes a REST API for interpretation and dispatch, and a
// WebSocket endpoint that runs listening sessions fed by a browser-side
// speech recognizer. It is what the web storefront talks to.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/voicecart/internal/config"
	"github.com/nadzzz/voicecart/internal/dispatch"
	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/storefront"
	"github.com/nadzzz/voicecart/internal/transport"
)

// maxAudioBytes caps raw audio uploads.
const maxAudioBytes = 25 << 20

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port     int
	upgrader websocket.Upgrader

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a new HTTP transport from its config.
func New(cfg config.HTTPConfig) *Transport {
	t := &Transport{port: cfg.Port}
	t.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
	}
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(handler),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.server = srv
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Routes builds the request multiplexer.
func (t *Transport) Routes(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /interpret", func(w http.ResponseWriter, r *http.Request) {
		handleInterpret(w, r, handler)
	})
	mux.HandleFunc("POST /dispatch", func(w http.ResponseWriter, r *http.Request) {
		handleDispatch(w, r, handler)
	})
	mux.HandleFunc("GET /languages", handleLanguages)
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		handleGetCart(w, r, handler)
	})
	mux.HandleFunc("DELETE /cart", func(w http.ResponseWriter, r *http.Request) {
		handleClearCart(w, r, handler)
	})
	mux.HandleFunc("PUT /cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleUpdateCartItem(w, r, handler)
	})
	mux.HandleFunc("DELETE /cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		handleRemoveCartItem(w, r, handler)
	})
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleSession(w, r, handler)
	})

	// Swagger UI serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// handleInterpret processes a POST /interpret request.
//
// @Summary     Interpret a transcript
// @Description Classifies a final transcript into a shopping command without touching the storefront.
// @Description Unsupported languages fall back to English rules; the request never fails on content.
// @Tags        interpret
// @Accept      json
// @Produce     json
// @Param       request  body      message.InterpretRequest  true  "Transcript and language"
// @Success     200      {object}  message.VoiceCommand
// @Failure     400      {string}  string  "Invalid request body"
// @Router      /interpret [post]
func handleInterpret(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var req message.InterpretRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, handler.Interpret(req.Text, req.Language))
}

// handleDispatch processes a POST /dispatch request.
//
// @Summary     Dispatch a voice or text command
// @Description Accepts a JSON message (with a final transcript or base64 audio) or raw audio bytes.
// @Description The message is interpreted and add/search commands are applied to the storefront.
// @Description Processing failures are reported in the result's error field.
// @Tags        dispatch
// @Accept      json
// @Accept      audio/wav
// @Accept      audio/webm
// @Produce     json
// @Param       message  body      message.Message  true  "Dispatch request (JSON). For raw audio, POST the bytes directly with the appropriate Content-Type."
// @Param       X-Voicecart-Language  header  string  false  "Locale selector (used with raw audio uploads)"
// @Param       X-Voicecart-Source    header  string  false  "Sender identifier (used with raw audio uploads)"
// @Param       X-Voicecart-Dry-Run   header  bool    false  "Interpret only (used with raw audio uploads)"
// @Success     200  {object}  message.DispatchResult
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     500  {string}  string  "Internal processing error"
// @Router      /dispatch [post]
func handleDispatch(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var msg message.Message

	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(io.LimitReader(r.Body, 2*maxAudioBytes)).Decode(&msg); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	default:
		// Treat body as raw audio; the rest comes from headers.
		audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
		if err != nil {
			http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(audio) == 0 {
			http.Error(w, "empty audio body", http.StatusBadRequest)
			return
		}
		msg.Audio = audio
		msg.ContentType = contentType
		msg.Language = r.Header.Get("X-Voicecart-Language")
		msg.Source = r.Header.Get("X-Voicecart-Source")
		msg.DryRun = r.Header.Get("X-Voicecart-Dry-Run") == "true"
	}
	if msg.Source == "" {
		msg.Source = "http"
	}

	result, err := handler.Handle(r.Context(), &msg)
	if err != nil {
		slog.Error("dispatch failed", "error", err)
		http.Error(w, "dispatch error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// handleLanguages processes a GET /languages request.
//
// @Summary     List supported languages
// @Tags        languages
// @Produce     json
// @Success     200  {array}  language.Profile
// @Router      /languages [get]
func handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, language.Profiles())
}

// handleGetCart processes a GET /cart request.
//
// @Summary     Get the cart
// @Tags        cart
// @Produce     json
// @Success     200  {object}  message.Cart
// @Failure     502  {string}  string  "Storefront error"
// @Failure     503  {string}  string  "Storefront disabled or unavailable"
// @Router      /cart [get]
func handleGetCart(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	writeCart(w, "get cart")(handler.Cart(r.Context()))
}

// handleClearCart processes a DELETE /cart request.
//
// @Summary     Clear the cart
// @Tags        cart
// @Produce     json
// @Success     200  {object}  message.Cart
// @Failure     502  {string}  string  "Storefront error"
// @Failure     503  {string}  string  "Storefront disabled or unavailable"
// @Router      /cart [delete]
func handleClearCart(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	writeCart(w, "clear cart")(handler.ClearCart(r.Context()))
}

// handleUpdateCartItem processes a PUT /cart/{id} request.
//
// @Summary     Set a cart line quantity
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       id       path      string                      true  "Cart item ID"
// @Param       request  body      message.CartUpdateRequest  true  "New quantity (at least 1)"
// @Success     200      {object}  message.Cart
// @Failure     400      {string}  string  "Invalid request body or quantity"
// @Failure     502      {string}  string  "Storefront error"
// @Failure     503      {string}  string  "Storefront disabled or unavailable"
// @Router      /cart/{id} [put]
func handleUpdateCartItem(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var req message.CartUpdateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeCart(w, "update cart item")(handler.UpdateCartItem(r.Context(), r.PathValue("id"), req.Quantity))
}

// handleRemoveCartItem processes a DELETE /cart/{id} request.
//
// @Summary     Remove a cart line
// @Tags        cart
// @Produce     json
// @Param       id   path      string  true  "Cart item ID"
// @Success     200  {object}  message.Cart
// @Failure     502  {string}  string  "Storefront error"
// @Failure     503  {string}  string  "Storefront disabled or unavailable"
// @Router      /cart/{id} [delete]
func handleRemoveCartItem(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	writeCart(w, "remove cart item")(handler.RemoveCartItem(r.Context(), r.PathValue("id")))
}

// writeCart returns a sink for a cart operation's results.
func writeCart(w http.ResponseWriter, op string) func(*message.Cart, error) {
	return func(cart *message.Cart, err error) {
		if err != nil {
			code := cartStatus(err)
			if code >= 500 {
				slog.Error("cart operation failed", "op", op, "error", err)
			}
			http.Error(w, err.Error(), code)
			return
		}
		writeJSON(w, cart)
	}
}

// cartStatus maps a cart operation error to a response code. Storefront
// client errors pass through; server-side failures become 502.
func cartStatus(err error) int {
	var apiErr *storefront.APIError
	switch {
	case errors.Is(err, dispatch.ErrInvalidQuantity), errors.Is(err, dispatch.ErrMissingItem):
		return http.StatusBadRequest
	case errors.Is(err, dispatch.ErrNoStorefront), errors.Is(err, storefront.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}

// checkOrigin returns nil (same host only) when no origins are configured.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Close gracefully shuts down the HTTP server. A transport closed before
// Listen never starts serving.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	srv := t.server
	t.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
