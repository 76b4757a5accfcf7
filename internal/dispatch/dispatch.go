// Package dispatch implements the voice command pipeline.
//
// The dispatcher receives messages from transports, obtains a final
// transcript (from the message text or by running a listening session on
// the server-side recognizer), interprets it and applies the resulting
// command to the storefront: add commands are resolved against the catalog
// and added to the cart, search commands run a catalog search. The sender
// always receives the result, including failures, in the DispatchResult.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/voicecart/internal/interpreter"
	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/metrics"
	"github.com/nadzzz/voicecart/internal/recognizer"
	"github.com/nadzzz/voicecart/internal/session"
)

// Storefront is the storefront API the dispatcher drives. *storefront.Client
// implements it.
type Storefront interface {
	SearchProducts(ctx context.Context, query string) ([]message.Product, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*message.Cart, error)
	GetCart(ctx context.Context) (*message.Cart, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) (*message.Cart, error)
	RemoveItem(ctx context.Context, itemID string) (*message.Cart, error)
	ClearCart(ctx context.Context) (*message.Cart, error)
}

var (
	// ErrNoStorefront is returned by cart operations when the storefront is disabled.
	ErrNoStorefront = errors.New("storefront is not enabled")

	// ErrInvalidQuantity rejects cart updates below one unit; use RemoveCartItem instead.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrMissingItem rejects cart line operations without an item ID.
	ErrMissingItem = errors.New("cart item id is required")
)

// Dispatcher is the central pipeline.
type Dispatcher struct {
	interpreter     interpreter.Interpreter
	recognizer      recognizer.Recognizer
	store           Storefront // nil when the storefront is disabled
	defaultLanguage string
}

// New creates a Dispatcher. rec is used for audio messages and may be
// recognizer.Unsupported; store may be nil to only interpret.
func New(interp interpreter.Interpreter, rec recognizer.Recognizer, store Storefront, defaultLanguage string) *Dispatcher {
	if rec == nil {
		rec = recognizer.Unsupported{}
	}
	if defaultLanguage == "" {
		defaultLanguage = language.Default
	}
	return &Dispatcher{
		interpreter:     interp,
		recognizer:      rec,
		store:           store,
		defaultLanguage: defaultLanguage,
	}
}

// Recognizer returns the server-side recognizer.
func (d *Dispatcher) Recognizer() recognizer.Recognizer { return d.recognizer }

// Language returns lang, or the configured default when lang is blank.
func (d *Dispatcher) Language(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return d.defaultLanguage
	}
	return lang
}

// Interpret classifies a final transcript without side effects.
func (d *Dispatcher) Interpret(transcript, lang string) message.VoiceCommand {
	cmd := d.interpreter.Interpret(transcript, d.Language(lang))
	metrics.CommandsInterpreted.WithLabelValues(language.Resolve(cmd.Language).Code, string(cmd.Action)).Inc()
	return cmd
}

// Handle processes a single message through the full pipeline.
func (d *Dispatcher) Handle(ctx context.Context, msg *message.Message) (*message.DispatchResult, error) {
	start := time.Now()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = start
	}
	lang := d.Language(msg.Language)
	logger := slog.With("message_id", msg.ID, "source", msg.Source, "language", lang)
	logger.Info("dispatch started", "audio", msg.HasAudio(), "dry_run", msg.DryRun)

	result := &message.DispatchResult{MessageID: msg.ID}
	defer func() {
		metrics.DispatchDuration.WithLabelValues(inputLabel(msg)).Observe(time.Since(start).Seconds())
	}()

	switch {
	case msg.HasAudio():
		result = d.Listen(ctx, SessionRequest{
			MessageID:  msg.ID,
			Transport:  "dispatch",
			Recognizer: d.recognizer,
			Input: recognizer.Input{
				Locale:      lang,
				Audio:       bytes.NewReader(msg.Audio),
				ContentType: msg.ContentType,
			},
			DryRun: msg.DryRun,
		})

	case strings.TrimSpace(msg.Text) != "":
		cmd := d.Interpret(msg.Text, lang)
		result.Command = &cmd
		result.Transcript = msg.Text
		if !msg.DryRun {
			if err := d.Apply(ctx, cmd, result); err != nil {
				result.Error = Describe(err)
				logger.Error("applying command failed", "error", err)
			}
		}

	default:
		result.Error = "message has no audio and no text"
		return result, nil
	}

	logger.Info("dispatch complete",
		"duration", time.Since(start),
		"action", actionOf(result.Command),
		"matched", result.Matched)
	return result, nil
}

// SessionRequest describes one listening session.
type SessionRequest struct {
	MessageID string

	// Transport labels the session in metrics ("dispatch", "websocket").
	Transport string

	// Recognizer produces the transcript. Nil selects the server-side recognizer.
	Recognizer recognizer.Recognizer

	Input    recognizer.Input
	DryRun   bool
	Observer session.Observer
}

// Listen runs one listening session and applies the resulting command
// unless the request is a dry run. Failures are reported in the result.
func (d *Dispatcher) Listen(ctx context.Context, req SessionRequest) *message.DispatchResult {
	if req.MessageID == "" {
		req.MessageID = uuid.NewString()
	}
	if req.Recognizer == nil {
		req.Recognizer = d.recognizer
	}
	req.Input.Locale = d.Language(req.Input.Locale)
	result := &message.DispatchResult{MessageID: req.MessageID}

	opts := []session.Option{}
	if !req.DryRun {
		opts = append(opts, session.WithConsumer(d.consumer(result)))
	}
	if req.Observer != nil {
		opts = append(opts, session.WithObserver(req.Observer))
	}

	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	s := session.New(req.Recognizer, countingInterpreter{d}, opts...)
	cmd, err := s.Run(ctx, req.Input)
	if cmd != nil {
		result.Command = cmd
		result.Transcript = cmd.OriginalText
	}
	if err != nil {
		result.Error = Describe(err)
		slog.Warn("listening session failed",
			"message_id", req.MessageID,
			"recognizer", req.Recognizer.Name(),
			"error", err)
	}
	metrics.SessionsTotal.WithLabelValues(req.Transport, outcome(err)).Inc()
	return result
}

func (d *Dispatcher) consumer(result *message.DispatchResult) session.Consumer {
	return session.ConsumerFunc(func(ctx context.Context, cmd message.VoiceCommand) error {
		return d.Apply(ctx, cmd, result)
	})
}

// Apply performs the storefront side of a command. The unit is only a
// display hint and never converts the quantity.
func (d *Dispatcher) Apply(ctx context.Context, cmd message.VoiceCommand, result *message.DispatchResult) error {
	if d.store == nil {
		return nil
	}

	switch cmd.Action {
	case message.ActionAdd:
		products, err := d.store.SearchProducts(ctx, cmd.ProductName)
		if err != nil {
			return fmt.Errorf("searching catalog: %w", err)
		}
		product := bestMatch(products, cmd.ProductName)
		if product == nil {
			// Nothing to add; show what the search found instead.
			result.Products = products
			return nil
		}
		cart, err := d.store.AddToCart(ctx, product.ID, cmd.Quantity)
		if err != nil {
			return fmt.Errorf("adding %q to cart: %w", product.Name, err)
		}
		result.Matched = true
		result.Product = product
		result.Cart = cart

	case message.ActionSearch:
		products, err := d.store.SearchProducts(ctx, cmd.ProductName)
		if err != nil {
			return fmt.Errorf("searching catalog: %w", err)
		}
		result.Products = products
	}
	return nil
}

// Cart returns the customer's current cart.
func (d *Dispatcher) Cart(ctx context.Context) (*message.Cart, error) {
	if d.store == nil {
		return nil, ErrNoStorefront
	}
	return d.store.GetCart(ctx)
}

// UpdateCartItem sets the quantity of one cart line.
func (d *Dispatcher) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*message.Cart, error) {
	switch {
	case d.store == nil:
		return nil, ErrNoStorefront
	case strings.TrimSpace(itemID) == "":
		return nil, ErrMissingItem
	case quantity < 1:
		return nil, ErrInvalidQuantity
	}
	cart, err := d.store.UpdateItem(ctx, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("updating cart item %s: %w", itemID, err)
	}
	slog.Info("cart item updated", "item_id", itemID, "quantity", quantity)
	return cart, nil
}

// RemoveCartItem deletes one cart line.
func (d *Dispatcher) RemoveCartItem(ctx context.Context, itemID string) (*message.Cart, error) {
	switch {
	case d.store == nil:
		return nil, ErrNoStorefront
	case strings.TrimSpace(itemID) == "":
		return nil, ErrMissingItem
	}
	cart, err := d.store.RemoveItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("removing cart item %s: %w", itemID, err)
	}
	slog.Info("cart item removed", "item_id", itemID)
	return cart, nil
}

// ClearCart empties the cart.
func (d *Dispatcher) ClearCart(ctx context.Context) (*message.Cart, error) {
	if d.store == nil {
		return nil, ErrNoStorefront
	}
	cart, err := d.store.ClearCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("clearing cart: %w", err)
	}
	slog.Info("cart cleared")
	return cart, nil
}

// bestMatch prefers an exact name match, then a name containing the
// query, then the first hit.
func bestMatch(products []message.Product, name string) *message.Product {
	if len(products) == 0 {
		return nil
	}
	for i := range products {
		if strings.EqualFold(products[i].Name, name) {
			return &products[i]
		}
	}
	query := strings.ToLower(name)
	for i := range products {
		if strings.Contains(strings.ToLower(products[i].Name), query) {
			return &products[i]
		}
	}
	return &products[0]
}

// countingInterpreter records interpretation metrics for session-driven commands.
type countingInterpreter struct{ d *Dispatcher }

func (c countingInterpreter) Interpret(transcript, lang string) message.VoiceCommand {
	return c.d.Interpret(transcript, lang)
}

// Describe renders an error for a DispatchResult or a client frame.
func Describe(err error) string {
	var recErr *recognizer.Error
	switch {
	case errors.Is(err, recognizer.ErrUnsupported):
		return "voice input is not available on this server"
	case errors.Is(err, recognizer.ErrPermissionDenied):
		return "microphone access denied"
	case errors.As(err, &recErr):
		return fmt.Sprintf("speech recognition failed: %s", recErr.Code)
	case errors.Is(err, session.ErrNoResult):
		return "no speech was recognized, try again"
	case errors.Is(err, context.Canceled):
		return "listening cancelled"
	}
	return err.Error()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, session.ErrNoResult):
		return "no_result"
	}
	return "error"
}

func actionOf(cmd *message.VoiceCommand) string {
	if cmd == nil {
		return ""
	}
	return string(cmd.Action)
}

func inputLabel(msg *message.Message) string {
	switch {
	case msg.HasAudio():
		return "audio"
	case msg.Text != "":
		return "text"
	}
	return "empty"
}
