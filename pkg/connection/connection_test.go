package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moor84/reversi/internal/apperror"
)

// captureHandler records lifecycle notifications on channels so tests can
// wait for them.
type captureHandler struct {
	opened   chan struct{}
	closed   chan error
	messages chan []byte
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{
		opened:   make(chan struct{}, 4),
		closed:   make(chan error, 4),
		messages: make(chan []byte, 16),
	}
}

func (h *captureHandler) OnOpen()               { h.opened <- struct{}{} }
func (h *captureHandler) OnMessage(data []byte) { h.messages <- data }
func (h *captureHandler) OnClose(err error)     { h.closed <- err }

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

var upgrader = websocket.Upgrader{}

// echoServer upgrades incoming connections and echoes every frame back.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			msgType, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if err := ws.WriteMessage(msgType, msg); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnection_SendBeforeConnect(t *testing.T) {
	handler := newCaptureHandler()
	conn := NewConnection(Config{URL: "ws://localhost:0/ws"}, handler, zap.NewNop())

	err := conn.Send([]byte(`{"event":"move","data":{}}`))
	assert.ErrorIs(t, err, apperror.ErrNotConnected)
	assert.Equal(t, StateClosed, conn.State())
}

func TestConnection_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	handler := newCaptureHandler()
	conn := NewConnection(Config{URL: wsURL(srv)}, handler, zap.NewNop())
	defer conn.Close()

	require.NoError(t, conn.Connect(context.Background()))
	waitFor(t, handler.opened, "open notification")
	assert.Equal(t, StateOpen, conn.State())

	payload := []byte(`{"event":"start_new_game","data":{}}`)
	require.NoError(t, conn.Send(payload))

	echoed := waitFor(t, handler.messages, "echoed message")
	assert.Equal(t, payload, echoed)
}

func TestConnection_Reconnect(t *testing.T) {
	var connects atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the first connection right away, keep later ones alive.
		if connects.Add(1) == 1 {
			ws.Close()
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	handler := newCaptureHandler()
	conn := NewConnection(Config{URL: wsURL(srv), Reconnect: true}, handler, zap.NewNop())
	defer conn.Close()

	require.NoError(t, conn.Connect(context.Background()))

	// First connect, server-side drop, transparent reconnect.
	waitFor(t, handler.opened, "first open")
	waitFor(t, handler.closed, "close after server drop")
	waitFor(t, handler.opened, "open after reconnect")

	assert.Equal(t, StateOpen, conn.State())
	assert.GreaterOrEqual(t, connects.Load(), int32(2))

	// The recovered link is usable.
	assert.NoError(t, conn.Send([]byte(`{"event":"join_game","data":{}}`)))
}

func TestConnection_NoReconnectWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))
	defer srv.Close()

	handler := newCaptureHandler()
	conn := NewConnection(Config{URL: wsURL(srv)}, handler, zap.NewNop())
	defer conn.Close()

	require.NoError(t, conn.Connect(context.Background()))
	waitFor(t, handler.opened, "open notification")
	waitFor(t, handler.closed, "close notification")

	assert.Eventually(t, func() bool {
		return conn.State() == StateClosed
	}, time.Second, 10*time.Millisecond)

	// Sends fail fast rather than queue while the link is down.
	assert.ErrorIs(t, conn.Send([]byte(`{}`)), apperror.ErrNotConnected)

	select {
	case <-handler.opened:
		t.Fatal("unexpected reconnect with reconnection disabled")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConnection_CloseSuppressesNotifications(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	handler := newCaptureHandler()
	conn := NewConnection(Config{URL: wsURL(srv), Reconnect: true}, handler, zap.NewNop())

	require.NoError(t, conn.Connect(context.Background()))
	waitFor(t, handler.opened, "open notification")

	conn.Close()
	assert.Equal(t, StateClosed, conn.State())

	select {
	case err := <-handler.closed:
		t.Fatalf("unexpected close notification after Close: %v", err)
	case <-handler.opened:
		t.Fatal("unexpected reconnect after Close")
	case <-time.After(300 * time.Millisecond):
	}
}
