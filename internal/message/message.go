// Package message defines the core data types flowing through the voicecart pipeline.
package message

import (
	"time"
)

// Action is the shopping intent classified from a transcript.
type Action string

const (
	// ActionAdd asks for the product to be added to the cart.
	ActionAdd Action = "add"

	// ActionSearch asks for a catalog search. It is the default intent
	// for utterances without a recognized trigger word.
	ActionSearch Action = "search"

	// ActionUnknown is reserved. The interpreter never produces it.
	ActionUnknown Action = "unknown"
)

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionSearch, ActionUnknown:
		return true
	}
	return false
}

// DefaultUnit is the unit assumed when a transcript names none.
const DefaultUnit = "pcs"

// VoiceCommand is the structured intent extracted from one final transcript.
// Values are never mutated after the interpreter returns them.
type VoiceCommand struct {
	// Action is the classified intent.
	Action Action `json:"action"`

	// ProductName is the best-effort item name, punctuation and keywords stripped.
	ProductName string `json:"product_name"`

	// Quantity is always >= 1.
	Quantity int `json:"quantity"`

	// Unit is a canonical unit code ("kg", "pack", ...) or the lower-cased
	// token when unrecognized. It is a display hint, never a conversion.
	Unit string `json:"unit"`

	// OriginalText is the verbatim transcript.
	OriginalText string `json:"original_text"`

	// Language is the locale selector active when the transcript was captured.
	Language string `json:"language"`
}

// Message represents an incoming dispatch request from any transport.
type Message struct {
	// ID is a unique identifier for this message (UUID). Assigned on receipt when empty.
	ID string `json:"id"`

	// Source identifies the sender (e.g., "web-storefront", "kiosk-02").
	Source string `json:"source"`

	// Language is the locale selector (e.g., "en-US", "ta-IN").
	Language string `json:"language"`

	// Audio is the raw audio payload. Nil if the message is text-only.
	Audio []byte `json:"audio,omitempty"`

	// ContentType is the MIME type of the audio (e.g., "audio/wav", "audio/webm").
	ContentType string `json:"content_type,omitempty"`

	// Text is a final transcript produced by a client-side recognizer.
	Text string `json:"text,omitempty"`

	// DryRun interprets the message without touching the storefront.
	DryRun bool `json:"dry_run,omitempty"`

	// Timestamp is when the message was received.
	Timestamp time.Time `json:"timestamp"`
}

// HasAudio returns true if the message contains an audio payload.
func (m *Message) HasAudio() bool {
	return len(m.Audio) > 0
}

// Product is a catalog entry as returned by the storefront API.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Stock    int     `json:"stock,omitempty"`
	Category string  `json:"category,omitempty"`
}

// CartItem is one line in a cart.
type CartItem struct {
	ID       string `json:"_id,omitempty"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Cart is the signed-in customer's cart.
type Cart struct {
	ID        string     `json:"_id"`
	User      string     `json:"user"`
	Items     []CartItem `json:"items"`
	CreatedAt string     `json:"createdAt,omitempty"`
	UpdatedAt string     `json:"updatedAt,omitempty"`
}

// CartUpdateRequest sets the quantity of one cart line.
type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// DispatchResult is the outcome of processing a message through the pipeline.
type DispatchResult struct {
	// MessageID is the original message ID.
	MessageID string `json:"message_id"`

	// Transcript is the final transcript that was interpreted.
	Transcript string `json:"transcript,omitempty"`

	// Command is the interpreted command. Nil when no transcript was obtained.
	Command *VoiceCommand `json:"command,omitempty"`

	// Matched is true when an add command resolved to a catalog product.
	Matched bool `json:"matched"`

	// Product is the catalog entry an add command resolved to.
	Product *Product `json:"product,omitempty"`

	// Products holds search hits (search commands and unmatched adds).
	Products []Product `json:"products,omitempty"`

	// Cart is the cart after a successful add.
	Cart *Cart `json:"cart,omitempty"`

	// Error is set if processing failed at any stage.
	Error string `json:"error,omitempty"`
}

// InterpretRequest asks for a transcript to be classified without side effects.
type InterpretRequest struct {
	// Text is the final transcript.
	Text string `json:"text"`

	// Language is the locale selector. Empty selects the configured default.
	Language string `json:"language,omitempty"`
}
