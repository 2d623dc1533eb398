package session

import (
	"github.com/moor84/reversi/pkg/board"
	"github.com/moor84/reversi/pkg/events"
	"github.com/moor84/reversi/pkg/protocol"
)

// Snapshot is what render sinks consume. Position is nil before the first
// server snapshot of a game.
type Snapshot struct {
	Position *board.Position
}

// Effect is a side-effect intent produced by a transition. The state
// machine performs no I/O itself; the run loop executes the intents in
// order, which keeps every transition testable without a live connection.
type Effect interface {
	effect()
}

// Send carries an outbound command to encode and put on the wire.
type Send struct {
	Command protocol.Command
}

// Render carries the snapshot to hand to the render sink.
type Render struct {
	Snapshot Snapshot
}

// Publish carries a user-facing notification.
type Publish struct {
	Event events.Event
}

func (Send) effect()    {}
func (Render) effect()  {}
func (Publish) effect() {}
