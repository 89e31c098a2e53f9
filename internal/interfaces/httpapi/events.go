package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	eventWriteWait     = 10 * time.Second
	eventPongWait      = 60 * time.Second
	eventPingPeriod    = eventPongWait * 9 / 10
	eventReadLimit     = 512
	eventClientBacklog = 16
)

// EventHub pushes refresh signals to websocket subscribers. Clients that
// fall behind are disconnected instead of blocking the publisher.
type EventHub struct {
	upgrader websocket.Upgrader
	clock    clockwork.Clock
	logger   *logging.Logger

	mu      sync.RWMutex
	clients map[*eventClient]struct{}
	closed  bool
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *eventClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func NewEventHub(allowedOrigins []string, clock clockwork.Clock, logger *logging.Logger) *EventHub {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}

	hub := &EventHub{
		clock:   clock,
		logger:  logger.Named("event_hub"),
		clients: make(map[*eventClient]struct{}),
	}
	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return hub
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowAll := len(allowedOrigins) == 0
	allowMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "*" {
			allowAll = true
		}
		if candidate != "" {
			allowMap[candidate] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if allowAll || origin == "" {
			return true
		}
		_, ok := allowMap[origin]
		return ok
	}
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "Events")
	defer span.End()

	if h.events == nil {
		writeError(ctx, w, fmt.Errorf("%w: event stream is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	h.events.ServeHTTP(w, r.WithContext(ctx))
}

func (e *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.WarnContext(r.Context(), "websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := &eventClient{conn: conn, send: make(chan []byte, eventClientBacklog)}
	if !e.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(eventWriteWait))
		_ = conn.Close()
		return
	}
	e.logger.Debug("websocket client connected", "remote_addr", r.RemoteAddr, "clients", e.Clients())

	go e.writePump(client)
	e.readPump(client)
}

// PublishRefresh broadcasts flags to every connected client. Empty flags
// are not sent.
func (e *EventHub) PublishRefresh(ctx context.Context, flags usecase.RefreshFlags) error {
	if !flags.Any() {
		return nil
	}

	payload, err := encodeEvent(usecase.NewRefreshEvent(flags, e.clock.Now()))
	if err != nil {
		return fmt.Errorf("encode refresh event: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	dropped := 0
	for client := range e.clients {
		select {
		case client.send <- payload:
		default:
			delete(e.clients, client)
			client.close()
			dropped++
		}
	}
	if dropped > 0 {
		e.logger.WarnContext(ctx, "dropped slow websocket clients", "dropped", dropped)
	}
	return nil
}

func (e *EventHub) Clients() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}

// Close disconnects every client and rejects new ones.
func (e *EventHub) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for client := range e.clients {
		delete(e.clients, client)
		client.close()
	}
}

func (e *EventHub) register(client *eventClient) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.clients[client] = struct{}{}
	return true
}

func (e *EventHub) unregister(client *eventClient) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.clients[client]; ok {
		delete(e.clients, client)
		client.close()
	}
}

// readPump only services control frames; subscribers never send data.
func (e *EventHub) readPump(client *eventClient) {
	defer func() {
		e.unregister(client)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(eventReadLimit)
	_ = client.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				e.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
	}
}

// writePump pings on the hub clock. Socket deadlines stay on wall time since
// the network stack enforces them.
func (e *EventHub) writePump(client *eventClient) {
	ticker := e.clock.NewTicker(eventPingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.Chan():
			_ = client.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeEvent(event usecase.RefreshEvent) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}
