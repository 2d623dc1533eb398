// Package client runs the event loop that drives the session state
// machine from connection notifications, decoded server events and user
// intents.
//
// All three trigger kinds funnel into one goroutine, so session and
// position state are mutated without locks and the render sink always
// observes a consistent snapshot at the end of each transition.
package client

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/moor84/reversi/internal/apperror"
	"github.com/moor84/reversi/pkg/events"
	"github.com/moor84/reversi/pkg/protocol"
	"github.com/moor84/reversi/pkg/session"
)

// RenderSink consumes board snapshots. It is implemented by the
// presentation layer; the core only calls Render and does so
// synchronously at the end of every transition that changes displayable
// state.
type RenderSink interface {
	Render(snapshot session.Snapshot)
}

// transport is the outbound half of the connection manager.
type transport interface {
	Send(payload []byte) error
}

// lifecycleNote is a connection open/close notification queued for the
// run loop.
type lifecycleNote struct {
	open bool
	err  error
}

type intentKind int

const (
	intentStartNewGame intentKind = iota
	intentJoinGame
	intentBoardClick
)

// intent is a user action queued for the run loop.
type intent struct {
	kind intentKind
	row  int
	col  int
}

// Client wires the connection manager, codec, session state machine,
// render sink and event publisher together.
type Client struct {
	transport transport
	codec     *protocol.Codec
	session   *session.Session
	sink      RenderSink
	publisher *events.Publisher
	logger    *zap.Logger

	lifecycle chan lifecycleNote
	inbound   chan []byte
	intents   chan intent
}

// New creates a client. The transport is attached separately because the
// connection manager needs the client as its handler.
func New(
	codec *protocol.Codec,
	sess *session.Session,
	sink RenderSink,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Client {
	return &Client{
		codec:     codec,
		session:   sess,
		sink:      sink,
		publisher: publisher,
		logger:    logger,
		lifecycle: make(chan lifecycleNote, 8),
		inbound:   make(chan []byte, 64),
		intents:   make(chan intent, 16),
	}
}

// SetTransport attaches the outbound message channel. Must be called
// before Run.
func (c *Client) SetTransport(t transport) {
	c.transport = t
}

// OnOpen implements connection.Handler.
func (c *Client) OnOpen() {
	c.lifecycle <- lifecycleNote{open: true}
}

// OnClose implements connection.Handler.
func (c *Client) OnClose(err error) {
	c.lifecycle <- lifecycleNote{open: false, err: err}
}

// OnMessage implements connection.Handler.
func (c *Client) OnMessage(data []byte) {
	c.inbound <- data
}

// StartNewGame queues the user intent to host a new game.
func (c *Client) StartNewGame() {
	c.intents <- intent{kind: intentStartNewGame}
}

// JoinGame queues the user intent to join a waiting game.
func (c *Client) JoinGame() {
	c.intents <- intent{kind: intentJoinGame}
}

// ClickBoard queues a board click at (row, col).
func (c *Client) ClickBoard(row, col int) {
	c.intents <- intent{kind: intentBoardClick, row: row, col: col}
}

// Run is the main execution of the client. It processes exactly one
// trigger at a time until the context is canceled.
func (c *Client) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case note := <-c.lifecycle:
			c.handleLifecycle(note)
		case raw := <-c.inbound:
			c.handleInbound(raw)
		case in := <-c.intents:
			c.handleIntent(in)
		}
	}
}

func (c *Client) handleLifecycle(note lifecycleNote) {
	if note.open {
		c.apply(c.session.HandleConnected())
		return
	}
	c.apply(c.session.HandleDisconnected(note.err))
}

// handleInbound decodes one frame and applies the resulting transition.
// Malformed and unknown messages are logged and discarded; the connection
// stays alive and the session is untouched.
func (c *Client) handleInbound(raw []byte) {
	ev, err := c.codec.Decode(raw)
	if err != nil {
		var unknown *apperror.UnknownEventError
		switch {
		case errors.As(err, &unknown):
			c.logger.Error("discarding unknown server event",
				zap.String("event", unknown.Event))
		case errors.Is(err, apperror.ErrMalformedMessage):
			c.logger.Error("discarding malformed server message", zap.Error(err))
		default:
			c.logger.Error("decode error", zap.Error(err))
		}
		return
	}

	c.apply(c.session.HandleServerEvent(ev))
}

func (c *Client) handleIntent(in intent) {
	switch in.kind {
	case intentStartNewGame:
		c.apply(c.session.StartNewGame())
	case intentJoinGame:
		c.apply(c.session.JoinGame())
	case intentBoardClick:
		c.apply(c.session.HandleBoardClick(in.row, in.col))
	}
}

// apply executes the side-effect intents of one transition, in order.
func (c *Client) apply(effects []session.Effect) {
	for _, effect := range effects {
		switch effect := effect.(type) {
		case session.Send:
			c.send(effect.Command)
		case session.Render:
			if c.sink != nil {
				c.sink.Render(effect.Snapshot)
			}
		case session.Publish:
			c.publisher.Publish(effect.Event)
		}
	}
}

// send encodes and transmits one fire-and-forget command. A command that
// cannot be sent because the link is down is surfaced to the user and
// dropped, never queued.
func (c *Client) send(cmd protocol.Command) {
	payload, err := c.codec.Encode(cmd, c.session.GameID())
	if err != nil {
		c.logger.Error("encode command",
			zap.String("event", cmd.Event()),
			zap.Error(err))
		return
	}

	if err := c.transport.Send(payload); err != nil {
		if errors.Is(err, apperror.ErrNotConnected) {
			c.logger.Warn("command dropped, not connected",
				zap.String("event", cmd.Event()))
			c.publisher.Publish(events.Event{
				Type:    events.EventCommandDropped,
				Payload: events.CommandDroppedPayload{Event: cmd.Event()},
			})
			return
		}
		c.logger.Error("send command",
			zap.String("event", cmd.Event()),
			zap.Error(err))
	}
}
