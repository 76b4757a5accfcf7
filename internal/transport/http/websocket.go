package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/voicecart/internal/dispatch"
	"github.com/nadzzz/voicecart/internal/message"
	"github.com/nadzzz/voicecart/internal/recognizer"
	"github.com/nadzzz/voicecart/internal/session"
	"github.com/nadzzz/voicecart/internal/transport"
)

// Client frame types. The browser runs the speech engine and relays its
// events; "stop" cancels the running session.
const (
	frameStart   = "start"
	frameInterim = "interim"
	frameFinal   = "final"
	frameError   = "error"
	frameEnd     = "end"
	frameStop    = "stop"

	frameState  = "state"
	frameResult = "result"
)

const writeTimeout = 10 * time.Second

type clientFrame struct {
	Type       string `json:"type"`
	Language   string `json:"language,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

type serverFrame struct {
	Type       string                  `json:"type"`
	State      session.State           `json:"state,omitempty"`
	Transcript string                  `json:"transcript,omitempty"`
	Result     *message.DispatchResult `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// wsConn serializes writes to one connection and relays session progress.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
	wg   sync.WaitGroup // running sessions
}

func (c *wsConn) send(f serverFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(f); err != nil {
		slog.Debug("websocket write failed", "type", f.Type, "error", err)
	}
}

func (c *wsConn) sendError(msg string) {
	c.send(serverFrame{Type: frameError, Error: msg})
}

// StateChanged implements session.Observer.
func (c *wsConn) StateChanged(st session.State) {
	c.send(serverFrame{Type: frameState, State: st})
}

// Interim implements session.Observer.
func (c *wsConn) Interim(transcript string) {
	c.send(serverFrame{Type: frameInterim, Transcript: transcript})
}

type activeSession struct {
	feed   *recognizer.Feed
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// handleSession serves GET /ws. One connection runs at most one listening
// session at a time; sessions may follow each other on the same connection.
//
// @Summary     Voice listening session
// @Description Upgrades to a WebSocket. The client sends {"type":"start","language":"ta-IN"} and then relays
// @Description its recognizer events as interim, final, error and end frames. The server pushes state and
// @Description interim frames while listening and a result frame once the session ends.
// @Tags        session
// @Success     101  {string}  string  "Switching Protocols"
// @Router      /ws [get]
func (t *Transport) handleSession(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &wsConn{conn: conn}
	logger := slog.With("remote", r.RemoteAddr)
	logger.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan clientFrame)
	go c.readLoop(ctx, frames)

	var active *activeSession
	defer func() {
		if active != nil {
			active.cancel()
		}
		c.wg.Wait()
		logger.Debug("websocket disconnected")
	}()

	for {
		var done chan struct{}
		if active != nil {
			done = active.done
		}

		select {
		case <-ctx.Done():
			return
		case <-done:
			active = nil
		case f, ok := <-frames:
			if !ok {
				return
			}
			active = c.handleFrame(ctx, f, active, handler)
		}
	}
}

func (c *wsConn) readLoop(ctx context.Context, frames chan<- clientFrame) {
	defer close(frames)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.sendError("invalid frame: " + err.Error())
			continue
		}
		select {
		case frames <- f:
		case <-ctx.Done():
			return
		}
	}
}

func (c *wsConn) handleFrame(ctx context.Context, f clientFrame, active *activeSession, handler transport.Handler) *activeSession {
	switch f.Type {
	case frameStart:
		if active != nil {
			select {
			case <-active.done:
			default:
				c.sendError("session already running")
				return active
			}
		}
		return c.start(ctx, f, handler)

	case frameInterim, frameFinal, frameError, frameEnd:
		// Browsers keep sending events after the final result; they are dropped.
		if active == nil {
			slog.Debug("dropping recognizer event without session", "type", f.Type)
			return nil
		}
		err := active.feed.Push(active.ctx, toEvent(f))
		if err != nil && !errors.Is(err, recognizer.ErrFeedClosed) && !errors.Is(err, context.Canceled) {
			slog.Warn("relaying recognizer event failed", "type", f.Type, "error", err)
		}

	case frameStop:
		if active != nil {
			active.cancel()
		}

	default:
		c.sendError(fmt.Sprintf("unknown frame type %q", f.Type))
	}
	return active
}

func (c *wsConn) start(ctx context.Context, f clientFrame, handler transport.Handler) *activeSession {
	sctx, cancel := context.WithCancel(ctx)
	a := &activeSession{
		feed:   recognizer.NewFeed(32),
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result := handler.Listen(sctx, dispatch.SessionRequest{
			Transport:  "websocket",
			Recognizer: a.feed,
			Input:      recognizer.Input{Locale: f.Language},
			DryRun:     f.DryRun,
			Observer:   c,
		})
		cancel()
		// A client may start the next session as soon as it sees the result.
		close(a.done)
		c.send(serverFrame{Type: frameResult, Result: result})
	}()
	return a
}

func toEvent(f clientFrame) recognizer.Event {
	switch f.Type {
	case frameInterim:
		return recognizer.Event{Kind: recognizer.EventInterim, Transcript: f.Transcript}
	case frameFinal:
		return recognizer.Event{Kind: recognizer.EventFinal, Transcript: f.Transcript}
	case frameError:
		code := recognizer.ErrorCode(f.Code)
		if code == "" {
			code = recognizer.CodeUnknown
		}
		return recognizer.Event{Kind: recognizer.EventError, Err: &recognizer.Error{Code: code, Message: f.Message}}
	}
	return recognizer.Event{Kind: recognizer.EventEnd}
}
