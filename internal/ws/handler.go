package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	applog "launchrates/internal/log"
)

// Handler upgrades requests to websocket sessions.
type Handler struct {
	launches   LaunchDashboard
	currencies CurrencyDashboard
	logger     *applog.Logger
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	closed   bool
	active   atomic.Int64
	sessions atomic.Int64
	events   atomic.Int64
}

// Stats counts sessions and handled events.
type Stats struct {
	Active   int64 `json:"active"`
	Sessions int64 `json:"sessions"`
	Events   int64 `json:"events"`
}

func NewHandler(l LaunchDashboard, c CurrencyDashboard, logger *applog.Logger) *Handler {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Handler{
		launches:   l,
		currencies: c,
		logger:     logger.WithComponent(applog.ComponentWS),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// sameOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeHTTP runs one session until the client disconnects. One goroutine
// reads frames, one owns all writes, and events are handled in order on this
// goroutine with a context that ends when either pump stops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", applog.FieldError, err)
		return
	}
	if !h.track(conn) {
		conn.Close()
		return
	}
	defer h.untrack(conn)

	sessionID := uuid.New().String()
	logger := h.logger.With(applog.FieldSessionID, sessionID)
	ctx, cancel := context.WithCancel(applog.NewContext(context.Background(), logger))
	defer cancel()

	h.active.Add(1)
	h.sessions.Add(1)
	defer h.active.Add(-1)
	logger.InfoContext(ctx, "Session started", applog.FieldClientIP, r.RemoteAddr)

	send := make(chan Reply, sendBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		writePump(conn, send)
	}()

	frames := make(chan []byte, frameBuffer)
	go readPump(ctx, cancel, conn, frames)

	s := newSession(h.launches, h.currencies)
	if h.reply(ctx, send, s.initial(ctx)) {
		h.process(ctx, s, frames, send)
	}
	close(send)
	<-done
	logger.InfoContext(ctx, "Session ended")
}

// readPump forwards frames until the connection fails, then cancels the session.
func readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames chan<- []byte) {
	defer close(frames)
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				applog.FromContext(ctx).WarnContext(ctx, "Websocket read failed", applog.FieldError, err)
			}
			return
		}
		select {
		case frames <- message:
		case <-ctx.Done():
			return
		}
	}
}

// process handles frames one at a time until the reader stops or the
// session context ends.
func (h *Handler) process(ctx context.Context, s *session, frames <-chan []byte, send chan<- Reply) {
	logger := applog.FromContext(ctx)
	for message := range frames {
		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil {
			if !h.reply(ctx, send, []Reply{{Type: ReplyError, Message: "malformed event"}}) {
				return
			}
			continue
		}
		h.events.Add(1)
		logger.DebugContext(ctx, "Session event", applog.FieldEvent, ev.Type)

		if !h.reply(ctx, send, s.handle(ctx, ev)) {
			return
		}
	}
}

// reply queues replies for the writer. It reports false once the session
// has ended.
func (h *Handler) reply(ctx context.Context, send chan<- Reply, replies []Reply) bool {
	for _, r := range replies {
		if ctx.Err() != nil {
			return false
		}
		select {
		case send <- r:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// writePump serializes replies and keeps the connection alive with pings.
func writePump(conn *websocket.Conn, send <-chan Reply) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case reply, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(reply); err != nil {
				drain(send)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				drain(send)
				return
			}
		}
	}
}

// drain discards replies after a write failure so queued sends never block.
func drain(send <-chan Reply) {
	go func() {
		for range send {
		}
	}()
}

func (h *Handler) track(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Close rejects new sessions and closes open connections, which ends their
// read loops.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.conns {
		conn.Close()
	}
	return nil
}

func (h *Handler) Stats() Stats {
	return Stats{
		Active:   h.active.Load(),
		Sessions: h.sessions.Load(),
		Events:   h.events.Load(),
	}
}
