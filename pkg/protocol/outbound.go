package protocol

// Client command names.
const (
	CommandStartNewGame = "start_new_game"
	CommandJoinGame     = "join_game"
	CommandMove         = "move"
)

// Command is an outbound client intent ready for encoding.
type Command interface {
	// Event returns the wire event name of the command.
	Event() string
}

// StartNewGame asks the server to create a game with the sender as host.
type StartNewGame struct{}

// JoinGame asks the server to join the sender to a waiting game.
type JoinGame struct{}

// Move attempts to place a tile at (Row, Col). PlayerID is included on the
// wire only when the codec is configured to send it.
type Move struct {
	Row      int
	Col      int
	PlayerID string
}

func (StartNewGame) Event() string { return CommandStartNewGame }
func (JoinGame) Event() string     { return CommandJoinGame }
func (Move) Event() string         { return CommandMove }

// emptyPayload is the data object of commands that carry no parameters.
type emptyPayload struct{}

// movePayload is the default move encoding.
type movePayload struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	PlayerID string `json:"player_id,omitempty"`
}

// legacyMovePayload is the coordinate encoding used by early protocol
// revisions, which carry no player identity.
type legacyMovePayload struct {
	A int `json:"a"`
	B int `json:"b"`
}
