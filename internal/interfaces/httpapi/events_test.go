package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
)

func dialEvents(t *testing.T, hub *EventHub) (*websocket.Conn, func()) {
	t.Helper()

	server := httptest.NewServer(hub)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial websocket: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, func() {
		_ = conn.Close()
		server.Close()
	}
}

func TestEventHub_BroadcastsRefreshEvents(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	hub := NewEventHub(nil, clockwork.NewFakeClockAt(at), logging.NewNop())
	conn, cleanup := dialEvents(t, hub)
	defer cleanup()

	ctx := context.Background()
	if err := hub.PublishRefresh(ctx, usecase.RefreshFlags{}); err != nil {
		t.Fatalf("publish empty flags: %v", err)
	}
	if err := hub.PublishRefresh(ctx, usecase.RefreshFlags{Rankings: true, Trophies: true}); err != nil {
		t.Fatalf("publish flags: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}

	var event usecase.RefreshEvent
	if err := sonic.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != usecase.RefreshEventType || !event.Flags.Rankings || !event.Flags.Trophies || event.Flags.Matches {
		t.Fatalf("empty flags must be skipped and the next event delivered: %+v", event)
	}
	if !event.At.Equal(at) {
		t.Fatalf("unexpected event time: got=%v want=%v", event.At, at)
	}
}

func TestEventHub_CloseDisconnectsClients(t *testing.T) {
	t.Parallel()

	hub := NewEventHub([]string{"*"}, clockwork.NewFakeClock(), logging.NewNop())
	conn, cleanup := dialEvents(t, hub)
	defer cleanup()

	hub.Close()
	if hub.Clients() != 0 {
		t.Fatalf("close must drop every client, got %d", hub.Clients())
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the connection to be closed")
	}
}

func TestEventHub_PingsOnHubClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	hub := NewEventHub(nil, clock, logging.NewNop())
	conn, cleanup := dialEvents(t, hub)
	defer cleanup()

	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ping ticker never started: %v", err)
	}
	clock.Advance(eventPingPeriod)

	select {
	case <-pinged:
	case <-ctx.Done():
		t.Fatalf("no ping after advancing the hub clock by %v", eventPingPeriod)
	}
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	check := originChecker([]string{"https://prode.example.com"})
	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://prode.example.com", want: true},
		{origin: "https://evil.example.com", want: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Fatalf("origin %q: got=%v want=%v", tt.origin, got, tt.want)
		}
	}
}
