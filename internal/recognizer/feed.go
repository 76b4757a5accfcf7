package recognizer

import (
	"context"
	"errors"
	"sync"
)

// ErrFeedStarted is returned when a Feed is started twice.
var ErrFeedStarted = errors.New("feed already started")

// ErrFeedClosed is returned when pushing to a finished Feed.
var ErrFeedClosed = errors.New("feed closed")

// Feed is a Recognizer driven by events pushed from elsewhere, typically a
// browser running the Web Speech API and relaying its results over a
// WebSocket. A Feed serves a single session.
type Feed struct {
	events chan Event

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewFeed creates a Feed buffering up to size pending events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 16
	}
	return &Feed{events: make(chan Event, size)}
}

// Name returns the backend identifier.
func (f *Feed) Name() string { return "browser" }

// Available always reports true; the client has already checked for its engine.
func (f *Feed) Available() bool { return true }

// Start returns the event stream. Input is ignored. The stream is closed
// when ctx is done.
func (f *Feed) Start(ctx context.Context, _ Input) (<-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return nil, ErrFeedStarted
	}
	f.started = true
	go func() {
		<-ctx.Done()
		f.Close()
	}()
	return f.events, nil
}

// Push delivers an event to the session. An EventEnd closes the feed.
// Push blocks while the buffer is full, until ctx is done.
func (f *Feed) Push(ctx context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFeedClosed
	}
	select {
	case f.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}
	if ev.Kind == EventEnd {
		f.closed = true
		close(f.events)
	}
	return nil
}

// Close ends the feed without an EventEnd. It is safe to call more than once.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
}
