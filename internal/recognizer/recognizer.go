// Package recognizer defines the speech-recognition capability that feeds
// transcripts to the interpreter.
//
// A recognizer is started for one listening session in a given locale and
// emits a stream of events: any number of interim transcripts, at most one
// final transcript, an optional error and an end-of-session marker. The
// capability is optional; callers check Available before offering voice input.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// EventKind classifies recognizer events.
type EventKind string

const (
	// EventInterim carries a transcript that may still be revised.
	EventInterim EventKind = "interim"

	// EventFinal carries the settled transcript for the session.
	EventFinal EventKind = "final"

	// EventError reports a recognition failure. See Event.Code.
	EventError EventKind = "error"

	// EventEnd marks the end of the session.
	EventEnd EventKind = "end"
)

// ErrorCode names the class of a recognition failure. Values follow the
// Web Speech API error names so browser events can be relayed unchanged.
type ErrorCode string

const (
	CodePermissionDenied ErrorCode = "not-allowed"
	CodeNoSpeech         ErrorCode = "no-speech"
	CodeNetwork          ErrorCode = "network"
	CodeAborted          ErrorCode = "aborted"
	CodeUnknown          ErrorCode = "unknown"
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrUnsupported      = errors.New("speech recognition is not supported")
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoSpeech         = errors.New("no speech detected")
)

// Error is a recognition failure reported by the engine.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "speech recognition failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", msg, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is maps error codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Code == CodePermissionDenied
	case ErrNoSpeech:
		return e.Code == CodeNoSpeech
	}
	return false
}

// Event is one update from a running recognizer.
type Event struct {
	Kind       EventKind
	Transcript string

	// Err is set for EventError.
	Err *Error
}

// Input describes one listening session.
type Input struct {
	// Locale is the BCP 47 recognition locale (e.g., "ta-IN").
	Locale string

	// Audio is the recorded utterance for server-side engines. Client-fed
	// recognizers ignore it.
	Audio io.Reader

	// ContentType is the MIME type of Audio (e.g., "audio/webm").
	ContentType string
}

// Recognizer is a speech-to-text source.
type Recognizer interface {
	// Name returns the backend identifier (e.g., "whisper", "browser").
	Name() string

	// Available reports whether the capability exists in this environment.
	Available() bool

	// Start begins a listening session. The returned channel is closed after
	// the last event. Cancelling ctx stops the session.
	Start(ctx context.Context, in Input) (<-chan Event, error)
}

// Unsupported is the Recognizer used when no speech engine is configured.
type Unsupported struct{}

// Name returns the backend identifier.
func (Unsupported) Name() string { return "none" }

// Available always reports false.
func (Unsupported) Available() bool { return false }

// Start always fails with ErrUnsupported.
func (Unsupported) Start(context.Context, Input) (<-chan Event, error) {
	return nil, ErrUnsupported
}
