// Package protocol translates between wire messages and typed client-side
// events and commands.
//
// Every message in both directions is a JSON envelope of the shape
// {"event": <name>, "data": <object>, "game_id": <id, optional>}. Inbound
// dispatch goes through an explicit finite registry of event decoders; an
// event name outside the registry is an error, never silently dropped.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/moor84/reversi/internal/apperror"
)

// Options feature-gate the encoding differences between protocol revisions.
type Options struct {
	// SendPlayerID includes the local player id in move payloads.
	SendPlayerID bool
	// LegacyMoveKeys encodes move coordinates as {"a","b"} instead of
	// {"x","y"}. Implies no player id on the wire.
	LegacyMoveKeys bool
}

// Codec encodes outbound commands and decodes inbound events.
type Codec struct {
	opts Options
}

// NewCodec creates a codec with the given encoding options.
func NewCodec(opts Options) *Codec {
	return &Codec{opts: opts}
}

// envelope is the outbound wire shape. GameID is omitted unless a session
// is active.
type envelope struct {
	Event  string `json:"event"`
	Data   any    `json:"data"`
	GameID string `json:"game_id,omitempty"`
}

// serverEnvelope is the inbound wire shape before payload dispatch.
type serverEnvelope struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	GameID string          `json:"game_id,omitempty"`
}

// Encode produces the canonical JSON envelope for a command. gameID is
// included only when non-empty, i.e. while a session is active.
func (c *Codec) Encode(cmd Command, gameID string) ([]byte, error) {
	env := envelope{
		Event:  cmd.Event(),
		GameID: gameID,
	}

	switch cmd := cmd.(type) {
	case StartNewGame, JoinGame:
		env.Data = emptyPayload{}
	case Move:
		env.Data = c.encodeMove(cmd)
	default:
		return nil, fmt.Errorf("unsupported command %q", cmd.Event())
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", cmd.Event(), err)
	}

	return payload, nil
}

func (c *Codec) encodeMove(cmd Move) any {
	if c.opts.LegacyMoveKeys {
		return legacyMovePayload{A: cmd.Row, B: cmd.Col}
	}

	payload := movePayload{X: cmd.Row, Y: cmd.Col}
	if c.opts.SendPlayerID {
		payload.PlayerID = cmd.PlayerID
	}
	return payload
}

// eventDecoders is the closed registry of inbound events. Dispatch is an
// explicit map lookup; there is no fallback handler.
var eventDecoders = map[string]func(json.RawMessage) (ServerEvent, error){
	EventGameStarted:      decodeInto[GameStarted],
	EventJoinedGame:       decodeInto[JoinedGame],
	EventPlayerJoinedGame: decodeInto[PlayerJoinedGame],
	EventPositionChanged:  decodeInto[PositionChanged],
	EventGameOver:         decodeInto[GameOver],
}

func decodeInto[T ServerEvent](data json.RawMessage) (ServerEvent, error) {
	var ev T
	if len(data) == 0 {
		return nil, fmt.Errorf("missing data object")
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Decode parses an inbound frame into a typed server event. Malformed JSON
// yields ErrMalformedMessage; a well-formed envelope with an unregistered
// event name yields an UnknownEventError.
func (c *Codec) Decode(raw []byte) (ServerEvent, error) {
	var env serverEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrMalformedMessage, err)
	}

	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", apperror.ErrMalformedMessage)
	}

	decode, ok := eventDecoders[env.Event]
	if !ok {
		return nil, &apperror.UnknownEventError{Event: env.Event}
	}

	ev, err := decode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", apperror.ErrMalformedMessage, env.Event, err)
	}

	return ev, nil
}
