// Package connection owns the WebSocket link to the game server: dialing,
// lifecycle notifications, reconnection and raw message send/receive.
package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/moor84/reversi/internal/apperror"
)

// Handler receives connection lifecycle and message notifications. For
// every successful (re)connection exactly one OnOpen fires; for every
// disconnection exactly one OnClose, never both for the same transition.
type Handler interface {
	OnOpen()
	OnMessage(data []byte)
	OnClose(err error)
}

// Config holds the transport settings.
type Config struct {
	// URL is the full WebSocket endpoint, e.g. "ws://localhost:8888/ws".
	URL string
	// Reconnect enables automatic redialing with exponential backoff after
	// an unexpected close. Reconnection is transparent to callers except as
	// a repeated OnClose/OnOpen pair; outbound messages sent while
	// disconnected fail fast and are never replayed.
	Reconnect bool
}

type Connection struct {
	ID uuid.UUID

	cfg     Config
	handler Handler
	logger  *zap.Logger

	mu    sync.Mutex // guards ws, state and writes to ws
	ws    *websocket.Conn
	state State

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a connection manager for the given endpoint. The
// handler must be set before Connect; it is invoked from the read loop
// goroutine.
func NewConnection(cfg Config, handler Handler, logger *zap.Logger) *Connection {
	return &Connection{
		ID:      uuid.New(),
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		state:   StateClosed,
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the server and starts the read loop. When reconnection is
// enabled the initial dial also retries with backoff until ctx is
// canceled or Close is called.
func (c *Connection) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.setState(StateConnecting)

	ws, err := c.dial(ctx)
	if err != nil {
		c.setState(StateClosed)
		return fmt.Errorf("connect %s: %w", c.cfg.URL, err)
	}

	c.mu.Lock()
	c.ws = ws
	c.state = StateOpen
	c.mu.Unlock()

	c.logger.Info("connected",
		zap.String("connection_id", c.ID.String()),
		zap.String("url", c.cfg.URL))

	c.handler.OnOpen()
	go c.readLoop(ctx, ws)

	return nil
}

// Send writes a single text frame. It fails with ErrNotConnected unless
// the connection is open; commands must not queue silently while
// disconnected, or stale commands would apply out of order after a
// reconnect.
func (c *Connection) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen || c.ws == nil {
		return apperror.ErrNotConnected
	}

	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// Close shuts the connection down and stops any retry loop. No further
// handler notifications fire after Close.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		ws := c.ws
		c.ws = nil
		c.mu.Unlock()

		if c.cancel != nil {
			c.cancel()
		}
		if ws != nil {
			ws.Close()
		}

		c.logger.Info("connection closed", zap.String("connection_id", c.ID.String()))
	})
}

func (c *Connection) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Connection) dial(ctx context.Context) (*websocket.Conn, error) {
	if c.cfg.Reconnect {
		return c.redial(ctx)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	return ws, err
}

// redial keeps dialing with exponential backoff until it succeeds or the
// context is canceled.
func (c *Connection) redial(ctx context.Context) (*websocket.Conn, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0 // retry until canceled

	var ws *websocket.Conn
	operation := func() error {
		var err error
		ws, _, err = websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		return err
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warn("dial failed, retrying",
			zap.String("url", c.cfg.URL),
			zap.Duration("next_attempt_in", next),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, err
	}

	return ws, nil
}

// readLoop pumps inbound frames to the handler until the link drops. Only
// text frames are handled.
func (c *Connection) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		msgType, msg, err := ws.ReadMessage()
		if err != nil {
			c.handleDisconnect(ctx, err)
			return
		}

		if msgType == websocket.TextMessage {
			c.handler.OnMessage(msg)
		}
	}
}

// handleDisconnect reports the lost link and, when enabled, redials until
// the server is back.
func (c *Connection) handleDisconnect(ctx context.Context, cause error) {
	c.mu.Lock()
	if c.state == StateClosed {
		// Close() already tore the link down; the read error is just the
		// local socket shutting.
		c.mu.Unlock()
		return
	}
	reconnect := c.cfg.Reconnect && ctx.Err() == nil
	if reconnect {
		c.state = StateReconnecting
	} else {
		c.state = StateClosed
	}
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	c.mu.Unlock()

	c.logger.Warn("connection lost",
		zap.String("connection_id", c.ID.String()),
		zap.Error(cause))

	c.handler.OnClose(cause)

	if !reconnect {
		return
	}

	ws, err := c.redial(ctx)
	if err != nil {
		// Only happens when the context was canceled mid-retry.
		c.setState(StateClosed)
		return
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.state = StateOpen
	c.mu.Unlock()

	c.logger.Info("reconnected",
		zap.String("connection_id", c.ID.String()),
		zap.String("url", c.cfg.URL))

	c.handler.OnOpen()
	go c.readLoop(ctx, ws)
}
