// Package events carries user-facing notifications from the session core
// to the presentation layer.
package events

import "sync"

// EventType represents the type of event
type EventType string

// Define event types
const (
	EventConnected        EventType = "CONNECTED"
	EventDisconnected     EventType = "DISCONNECTED"
	EventGameStarted      EventType = "GAME_STARTED"
	EventJoinedGame       EventType = "JOINED_GAME"
	EventOpponentJoined   EventType = "OPPONENT_JOINED"
	EventScoreUpdated     EventType = "SCORE_UPDATED"
	EventTurnChanged      EventType = "TURN_CHANGED"
	EventGameOver         EventType = "GAME_OVER"
	EventInvalidMove      EventType = "INVALID_MOVE"
	EventCommandDropped   EventType = "COMMAND_DROPPED"
	EventSessionAbandoned EventType = "SESSION_ABANDONED"
)

// Game outcomes reported with EventGameOver.
const (
	ResultWon  = "won"
	ResultLost = "lost"
	ResultTie  = "tie"
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	GameID  string // Optional, can be empty for non-game events
	Payload interface{}
}

// SessionPayload describes the session a notification refers to.
type SessionPayload struct {
	GameID          string
	PlayerID        string
	PlayerAddress   string
	OpponentAddress string
	Color           string
}

// ScorePayload carries the score line of a position update.
type ScorePayload struct {
	Mine      int
	Opponents int
}

// TurnPayload reports whose turn it is after a position update.
type TurnPayload struct {
	Mine bool
}

// OutcomePayload reports the final result of a game.
type OutcomePayload struct {
	Result    string // ResultWon, ResultLost or ResultTie
	Mine      int
	Opponents int
}

// InvalidMovePayload reports a click on a cell that is not playable.
type InvalidMovePayload struct {
	Row int
	Col int
}

// CommandDroppedPayload reports a command lost because the connection was
// not open. Fire-and-forget commands are never queued or retried.
type CommandDroppedPayload struct {
	Event string
}

// DisconnectedPayload carries the close reason of a lost connection.
type DisconnectedPayload struct {
	Reason string
}

// Handler is a function that processes events
type Handler func(event Event)

// Publisher is the central event publisher
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
}

// NewPublisher creates a new event publisher
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (p *Publisher) Subscribe(eventType EventType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers[eventType] = append(p.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (p *Publisher) SubscribeAll(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Special event type for "all events"
	p.subscribers["*"] = append(p.subscribers["*"], handler)
}

// Publish broadcasts an event to all subscribers including "all events"
// handlers. Dispatch is synchronous on the caller's goroutine so that
// notifications observe transitions in order.
func (p *Publisher) Publish(event Event) {
	p.mu.RLock()
	handlers := p.subscribers[event.Type]
	allHandlers := p.subscribers["*"]
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}

	for _, handler := range allHandlers {
		handler(event)
	}
}
