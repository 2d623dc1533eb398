package protocol

import (
	"github.com/moor84/reversi/pkg/board"
)

// Server event names. The set is closed: an inbound event outside this
// list is a protocol violation.
const (
	EventGameStarted      = "game_started"
	EventJoinedGame       = "joined_game"
	EventPlayerJoinedGame = "player_joined_game"
	EventPositionChanged  = "position_changed"
	EventGameOver         = "game_over"
)

// Player identifies a participant as reported by the server.
type Player struct {
	ID string `json:"id"`
	IP string `json:"ip"`
}

// ServerEvent is the tagged union of decoded inbound events.
type ServerEvent interface {
	serverEvent()
}

// GameStarted is sent to the host after the server created a game. The
// host then waits for a second player.
type GameStarted struct {
	GameID string `json:"game_id"`
	Player Player `json:"player"`
}

// JoinedGame is sent to the second player after joining. The joiner always
// plays white.
type JoinedGame struct {
	GameID string `json:"game_id"`
	Player Player `json:"player"`
	HostIP string `json:"host_ip"`
}

// PlayerJoinedGame notifies the host that the second player connected.
type PlayerJoinedGame struct {
	Player Player `json:"player"`
}

// PositionChanged carries a full board snapshot. It is the sole source of
// truth for the position and for whose turn it is.
type PositionChanged struct {
	Position       board.Position `json:"position"`
	MyScore        int            `json:"my_score"`
	OpponentsScore int            `json:"opponents_score"`
	MyTurn         bool           `json:"my_turn"`
}

// GameOver carries the final position and the outcome. Exactly one of
// IWon/OpponentWon is true, or neither for a tie.
type GameOver struct {
	Position       board.Position `json:"position"`
	MyScore        int            `json:"my_score"`
	OpponentsScore int            `json:"opponents_score"`
	IWon           bool           `json:"i_won"`
	OpponentWon    bool           `json:"opponent_won"`
}

func (GameStarted) serverEvent()      {}
func (JoinedGame) serverEvent()       {}
func (PlayerJoinedGame) serverEvent() {}
func (PositionChanged) serverEvent()  {}
func (GameOver) serverEvent()         {}
