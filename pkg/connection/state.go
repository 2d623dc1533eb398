package connection

// State describes the lifecycle of the server link. It is independent of
// the session lifecycle: the connection may be open while no game exists.
type State int

// Connection lifecycle states.
const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
