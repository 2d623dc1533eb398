// Package session tracks game identity, player identity, turn ownership
// and lifecycle, driven by inbound protocol events and outbound user
// intents.
//
// The session never derives game state locally: the board position and
// turn ownership come exclusively from server snapshots, and a move is
// only pre-filtered against the last snapshot before being sent. The
// server remains authoritative and may still reject it.
package session

import (
	"go.uber.org/zap"

	"github.com/moor84/reversi/pkg/board"
	"github.com/moor84/reversi/pkg/events"
	"github.com/moor84/reversi/pkg/protocol"
)

// State identifies the lifecycle phase of the client session.
type State int

// Session lifecycle states. There is no distinct "over" state: game over
// returns the session to idle with the final position still on display.
const (
	StateIdle State = iota
	StateAwaitingOpponent
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingOpponent:
		return "awaiting_opponent"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// PlayerIdentity is the server-assigned identity of the local player.
type PlayerIdentity struct {
	ID      string
	Address string
}

// GameSession describes the single active game. Starting or joining while
// a session exists discards the prior one; there is no queuing.
type GameSession struct {
	GameID          string
	LocalPlayerID   string
	OpponentAddress string
	Color           board.CellState
}

// Session is the client-side session state machine. It is not safe for
// concurrent use; the owning run loop invokes one transition at a time.
type Session struct {
	state    State
	game     *GameSession
	player   *PlayerIdentity
	position *board.Position
	myTurn   bool

	logger *zap.Logger
}

// New creates an idle session.
func New(logger *zap.Logger) *Session {
	return &Session{
		state:  StateIdle,
		logger: logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// GameID returns the active game id, or "" when no session exists. The
// codec omits empty game ids from outbound envelopes.
func (s *Session) GameID() string {
	if s.game == nil {
		return ""
	}
	return s.game.GameID
}

// Position returns the last server snapshot, or nil before any game.
func (s *Session) Position() *board.Position { return s.position }

// MyTurn reports turn ownership. Only meaningful while the session is
// active.
func (s *Session) MyTurn() bool { return s.myTurn }

func (s *Session) snapshot() Snapshot {
	return Snapshot{Position: s.position}
}

// reset clears session, identity, position and turn state.
func (s *Session) reset() {
	s.state = StateIdle
	s.game = nil
	s.player = nil
	s.position = nil
	s.myTurn = false
}

// StartNewGame discards any current session and asks the server to create
// a game with us as host. No session state is recorded until the server
// confirms with game_started.
func (s *Session) StartNewGame() []Effect {
	s.reset()
	s.logger.Info("starting new game")

	return []Effect{
		Send{Command: protocol.StartNewGame{}},
		Render{Snapshot: s.snapshot()},
	}
}

// JoinGame discards any current session and asks the server to join us to
// a waiting game. Same no-optimism policy as StartNewGame.
func (s *Session) JoinGame() []Effect {
	s.reset()
	s.logger.Info("joining a game")

	return []Effect{
		Send{Command: protocol.JoinGame{}},
		Render{Snapshot: s.snapshot()},
	}
}

// HandleServerEvent applies one decoded inbound event and returns the
// side effects of the transition.
func (s *Session) HandleServerEvent(ev protocol.ServerEvent) []Effect {
	switch ev := ev.(type) {
	case protocol.GameStarted:
		return s.onGameStarted(ev)
	case protocol.JoinedGame:
		return s.onJoinedGame(ev)
	case protocol.PlayerJoinedGame:
		return s.onPlayerJoinedGame(ev)
	case protocol.PositionChanged:
		return s.onPositionChanged(ev)
	case protocol.GameOver:
		return s.onGameOver(ev)
	default:
		s.logger.Error("unhandled server event", zap.Any("event", ev))
		return nil
	}
}

// onGameStarted records the new session and identity. The host plays
// black by convention; no position exists until the opponent joins.
func (s *Session) onGameStarted(ev protocol.GameStarted) []Effect {
	s.reset()
	s.state = StateAwaitingOpponent
	s.game = &GameSession{
		GameID:        ev.GameID,
		LocalPlayerID: ev.Player.ID,
		Color:         board.Black,
	}
	s.player = &PlayerIdentity{ID: ev.Player.ID, Address: ev.Player.IP}

	s.logger.Info("game started, waiting for opponent",
		zap.String("game_id", ev.GameID),
		zap.String("player_id", ev.Player.ID))

	return []Effect{
		Publish{Event: events.Event{
			Type:   events.EventGameStarted,
			GameID: ev.GameID,
			Payload: events.SessionPayload{
				GameID:        ev.GameID,
				PlayerID:      ev.Player.ID,
				PlayerAddress: ev.Player.IP,
				Color:         board.Black.String(),
			},
		}},
	}
}

// onJoinedGame records the session for the joining side. The joiner
// always plays white; turn ownership is established by the next
// position_changed, not by this event.
func (s *Session) onJoinedGame(ev protocol.JoinedGame) []Effect {
	s.reset()
	s.state = StateActive
	s.game = &GameSession{
		GameID:          ev.GameID,
		LocalPlayerID:   ev.Player.ID,
		OpponentAddress: ev.HostIP,
		Color:           board.White,
	}
	s.player = &PlayerIdentity{ID: ev.Player.ID}

	s.logger.Info("joined game",
		zap.String("game_id", ev.GameID),
		zap.String("player_id", ev.Player.ID),
		zap.String("host_ip", ev.HostIP))

	return []Effect{
		Publish{Event: events.Event{
			Type:   events.EventJoinedGame,
			GameID: ev.GameID,
			Payload: events.SessionPayload{
				GameID:          ev.GameID,
				PlayerID:        ev.Player.ID,
				OpponentAddress: ev.HostIP,
				Color:           board.White.String(),
			},
		}},
	}
}

// onPlayerJoinedGame moves the host into the active game once the second
// player connected.
func (s *Session) onPlayerJoinedGame(ev protocol.PlayerJoinedGame) []Effect {
	if s.game == nil {
		s.logger.Warn("player_joined_game without a session, discarding")
		return nil
	}
	if s.state != StateAwaitingOpponent {
		s.logger.Warn("player_joined_game in unexpected state",
			zap.String("state", s.state.String()))
	}

	s.state = StateActive
	s.game.OpponentAddress = ev.Player.IP

	s.logger.Info("opponent joined",
		zap.String("game_id", s.game.GameID),
		zap.String("opponent_ip", ev.Player.IP))

	return []Effect{
		Publish{Event: events.Event{
			Type:   events.EventOpponentJoined,
			GameID: s.game.GameID,
			Payload: events.SessionPayload{
				GameID:          s.game.GameID,
				PlayerID:        s.game.LocalPlayerID,
				OpponentAddress: ev.Player.IP,
				Color:           s.game.Color.String(),
			},
		}},
	}
}

// onPositionChanged replaces the whole position and takes turn ownership
// from the payload. This event is the sole source of truth for both.
func (s *Session) onPositionChanged(ev protocol.PositionChanged) []Effect {
	if s.game == nil {
		s.logger.Warn("position_changed without a session, discarding")
		return nil
	}

	pos := ev.Position
	s.position = &pos
	s.myTurn = ev.MyTurn

	s.logger.Info("position changed",
		zap.String("game_id", s.game.GameID),
		zap.Int("my_score", ev.MyScore),
		zap.Int("opponents_score", ev.OpponentsScore),
		zap.Bool("my_turn", ev.MyTurn))

	return []Effect{
		Publish{Event: events.Event{
			Type:    events.EventScoreUpdated,
			GameID:  s.game.GameID,
			Payload: events.ScorePayload{Mine: ev.MyScore, Opponents: ev.OpponentsScore},
		}},
		Publish{Event: events.Event{
			Type:    events.EventTurnChanged,
			GameID:  s.game.GameID,
			Payload: events.TurnPayload{Mine: ev.MyTurn},
		}},
		Render{Snapshot: s.snapshot()},
	}
}

// onGameOver replaces the position one final time, clears the session and
// identity, and reports the outcome. The final position stays on display.
func (s *Session) onGameOver(ev protocol.GameOver) []Effect {
	gameID := s.GameID()
	if s.game == nil {
		s.logger.Warn("game_over without a session")
	}

	pos := ev.Position
	s.position = &pos
	s.game = nil
	s.player = nil
	s.myTurn = false
	s.state = StateIdle

	result := events.ResultTie
	switch {
	case ev.IWon:
		result = events.ResultWon
	case ev.OpponentWon:
		result = events.ResultLost
	}

	s.logger.Info("game over",
		zap.String("game_id", gameID),
		zap.String("result", result),
		zap.Int("my_score", ev.MyScore),
		zap.Int("opponents_score", ev.OpponentsScore))

	return []Effect{
		Publish{Event: events.Event{
			Type:   events.EventGameOver,
			GameID: gameID,
			Payload: events.OutcomePayload{
				Result:    result,
				Mine:      ev.MyScore,
				Opponents: ev.OpponentsScore,
			},
		}},
		Render{Snapshot: s.snapshot()},
	}
}

// HandleBoardClick turns a board click into a move command when the click
// passes the optimistic filter: a session and position exist, the local
// identity is known, it is our turn and the server marked the cell
// playable. Anything else is a no-op or an invalid-move notification.
func (s *Session) HandleBoardClick(row, col int) []Effect {
	if s.state != StateActive || s.game == nil || s.position == nil {
		return nil
	}
	if s.player == nil || !s.myTurn {
		return nil
	}

	if !s.position.IsPossibleMove(row, col) {
		s.logger.Info("invalid move",
			zap.String("game_id", s.game.GameID),
			zap.Int("row", row),
			zap.Int("col", col))

		return []Effect{
			Publish{Event: events.Event{
				Type:    events.EventInvalidMove,
				GameID:  s.game.GameID,
				Payload: events.InvalidMovePayload{Row: row, Col: col},
			}},
		}
	}

	return []Effect{
		Send{Command: protocol.Move{Row: row, Col: col, PlayerID: s.player.ID}},
	}
}

// HandleConnected is invoked for every successful (re)connection. A
// session that predates the reconnect is abandoned: the server keeps no
// resumable state, so returning to idle beats trusting a game the server
// may have discarded.
func (s *Session) HandleConnected() []Effect {
	connected := Publish{Event: events.Event{Type: events.EventConnected}}

	if s.game == nil {
		return []Effect{connected}
	}

	gameID := s.game.GameID
	s.reset()

	s.logger.Warn("abandoning session after reconnect", zap.String("game_id", gameID))

	return []Effect{
		connected,
		Publish{Event: events.Event{Type: events.EventSessionAbandoned, GameID: gameID}},
		Render{Snapshot: s.snapshot()},
	}
}

// HandleDisconnected reports a lost connection. Session state is kept;
// its fate is settled when the connection comes back (see
// HandleConnected).
func (s *Session) HandleDisconnected(err error) []Effect {
	reason := ""
	if err != nil {
		reason = err.Error()
	}

	return []Effect{
		Publish{Event: events.Event{
			Type:    events.EventDisconnected,
			GameID:  s.GameID(),
			Payload: events.DisconnectedPayload{Reason: reason},
		}},
	}
}
