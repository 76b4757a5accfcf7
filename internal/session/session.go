// Package session runs voice listening sessions.
//
// A session starts a recognizer in the selected language, relays interim
// transcripts for live display, interprets the first final transcript and
// hands the resulting command to a consumer. Its observable lifecycle is
//
//	idle → listening → processing → success | error → idle
//
// Interim results never reach the interpreter. A session cancelled before a
// final result returns to idle without interpreting anything.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nadzzz/voicecart/internal/interpreter"
	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/recognizer"
)

// State is the externally observable session state.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// ErrNoResult is returned when the recognizer ends without a final transcript.
var ErrNoResult = errors.New("session ended without a final transcript")

// ErrBusy is returned when Run is called on a session that is already running.
var ErrBusy = errors.New("session already running")

// Consumer receives interpreted commands, e.g. the storefront applier.
type Consumer interface {
	Consume(ctx context.Context, cmd message.VoiceCommand) error
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(ctx context.Context, cmd message.VoiceCommand) error

// Consume calls f.
func (f ConsumerFunc) Consume(ctx context.Context, cmd message.VoiceCommand) error {
	return f(ctx, cmd)
}

// Observer is notified of progress. All methods are called from the
// goroutine running the session.
type Observer interface {
	StateChanged(State)
	Interim(transcript string)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State) {}
func (nopObserver) Interim(string)     {}

// Session drives listening sessions against one recognizer. A Session may
// be reused sequentially; concurrent Run calls fail with ErrBusy.
type Session struct {
	recognizer  recognizer.Recognizer
	interpreter interpreter.Interpreter
	consumer    Consumer
	observer    Observer

	mu      sync.Mutex
	state   State
	running bool
}

// Option configures a Session.
type Option func(*Session)

// WithConsumer sets the command consumer.
func WithConsumer(c Consumer) Option {
	return func(s *Session) { s.consumer = c }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// New creates a session on the given recognizer and interpreter.
func New(rec recognizer.Recognizer, interp interpreter.Interpreter, opts ...Option) *Session {
	s := &Session{
		recognizer:  rec,
		interpreter: interp,
		observer:    nopObserver{},
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.observer.StateChanged(st)
}

// Run performs one listening session and returns the interpreted command.
// The session is back in StateIdle when Run returns.
func (s *Session) Run(ctx context.Context, in recognizer.Input) (*message.VoiceCommand, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if !s.recognizer.Available() {
		return nil, recognizer.ErrUnsupported
	}

	logger := slog.With("recognizer", s.recognizer.Name(), "language", in.Locale)

	// Stopping the recognizer is cancelling its context.
	recCtx, stop := context.WithCancel(ctx)
	defer stop()

	events, err := s.recognizer.Start(recCtx, in)
	if err != nil {
		return nil, fmt.Errorf("starting recognizer: %w", err)
	}
	s.setState(StateListening)
	logger.Debug("listening")

	transcript, err := s.await(ctx, events)
	stop()
	go drain(events)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrNoResult) {
			logger.Debug("session ended without result", "reason", err)
			s.setState(StateIdle)
			return nil, err
		}
		logger.Warn("recognition failed", "error", err)
		s.setState(StateError)
		s.setState(StateIdle)
		return nil, err
	}

	s.setState(StateProcessing)
	cmd := s.interpreter.Interpret(transcript, in.Locale)
	logger.Info("command interpreted",
		"action", cmd.Action,
		"product", cmd.ProductName,
		"quantity", cmd.Quantity,
		"unit", cmd.Unit)

	if s.consumer != nil {
		if err := s.consumer.Consume(ctx, cmd); err != nil {
			logger.Error("command consumer failed", "error", err)
			s.setState(StateError)
			s.setState(StateIdle)
			return &cmd, fmt.Errorf("applying command: %w", err)
		}
	}

	s.setState(StateSuccess)
	s.setState(StateIdle)
	return &cmd, nil
}

// await returns the first non-blank final transcript.
func (s *Session) await(ctx context.Context, events <-chan recognizer.Event) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				// Recognizers close their stream when cancelled.
				if err := ctx.Err(); err != nil {
					return "", err
				}
				return "", ErrNoResult
			}
			switch ev.Kind {
			case recognizer.EventInterim:
				s.observer.Interim(ev.Transcript)
			case recognizer.EventFinal:
				if t := strings.TrimSpace(ev.Transcript); t != "" {
					return t, nil
				}
			case recognizer.EventError:
				if ev.Err == nil {
					return "", &recognizer.Error{Code: recognizer.CodeUnknown}
				}
				return "", ev.Err
			case recognizer.EventEnd:
				return "", ErrNoResult
			}
		}
	}
}

// drain discards events until the recognizer closes the stream.
func drain(events <-chan recognizer.Event) {
	for range events {
	}
}
