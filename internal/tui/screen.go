// Package tui is the terminal presentation layer: it renders board
// snapshots and turns mouse and key input into user intents. It is a
// render sink for the client core and holds no game state of its own
// beyond what it last displayed.
package tui

import (
	"fmt"
	"sync"

	"github.com/nsf/termbox-go"
	"go.uber.org/zap"

	"github.com/moor84/reversi/pkg/board"
	"github.com/moor84/reversi/pkg/events"
	"github.com/moor84/reversi/pkg/session"
)

// Board geometry in terminal cells.
const (
	boardTop  = 2
	boardLeft = 3
	cellW     = 4
	cellH     = 2

	maxStatusLines = 6
)

// Callbacks are the user-input hooks the core registers once. OnClick
// receives raw terminal coordinates and is reserved; OnBoardClicked
// receives board cell coordinates.
type Callbacks struct {
	OnBoardClicked func(row, col int)
	OnClick        func(x, y int)
	OnStartNewGame func()
	OnJoinGame     func()
	OnQuit         func()
}

// Screen draws the board and a status area and polls terminal input.
type Screen struct {
	mu        sync.Mutex
	callbacks Callbacks
	snapshot  session.Snapshot
	title     string
	status    []string
	logger    *zap.Logger
}

// New initializes the terminal. Callers must Close the screen to restore
// the terminal state.
func New(logger *zap.Logger) (*Screen, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)

	s := &Screen{
		title:  "Reversi",
		logger: logger,
	}
	s.mu.Lock()
	s.redraw()
	s.mu.Unlock()

	return s, nil
}

// Bind registers the input callbacks. Called once before Loop.
func (s *Screen) Bind(callbacks Callbacks) {
	s.mu.Lock()
	s.callbacks = callbacks
	s.mu.Unlock()
}

// Close restores the terminal.
func (s *Screen) Close() {
	termbox.Close()
}

// Render implements client.RenderSink.
func (s *Screen) Render(snapshot session.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.redraw()
}

// HandleEvent translates user-facing notifications into status lines and
// title changes. Subscribed to all event types.
func (s *Screen) HandleEvent(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case events.EventConnected:
		s.pushStatus("Connected")
	case events.EventDisconnected:
		if payload, ok := ev.Payload.(events.DisconnectedPayload); ok && payload.Reason != "" {
			s.pushStatus("Connection lost: " + payload.Reason)
		} else {
			s.pushStatus("Connection lost")
		}
	case events.EventGameStarted:
		payload, _ := ev.Payload.(events.SessionPayload)
		s.pushStatus("Game started: " + payload.GameID)
		s.pushStatus(fmt.Sprintf("Your player id: %s (%s)", payload.PlayerID, payload.PlayerAddress))
		s.pushStatus("Waiting for the second player...")
	case events.EventJoinedGame:
		payload, _ := ev.Payload.(events.SessionPayload)
		s.pushStatus("Joined game: " + payload.GameID)
		s.pushStatus(fmt.Sprintf("Your opponent (black): (%s)", payload.OpponentAddress))
		s.pushStatus("You play white tiles")
		s.title = "Reversi: White"
	case events.EventOpponentJoined:
		payload, _ := ev.Payload.(events.SessionPayload)
		s.pushStatus("Player joined the game")
		s.pushStatus(fmt.Sprintf("Your opponent (white): (%s)", payload.OpponentAddress))
		s.pushStatus("You play black tiles")
		s.title = "Reversi: Black"
	case events.EventScoreUpdated:
		payload, _ := ev.Payload.(events.ScorePayload)
		s.pushStatus(fmt.Sprintf("Your score: %d. Opponent's score: %d", payload.Mine, payload.Opponents))
	case events.EventTurnChanged:
		payload, _ := ev.Payload.(events.TurnPayload)
		if payload.Mine {
			s.pushStatus("Your turn")
		} else {
			s.pushStatus("Opponent's turn...")
		}
	case events.EventGameOver:
		payload, _ := ev.Payload.(events.OutcomePayload)
		switch payload.Result {
		case events.ResultWon:
			s.pushStatus("Congrats! You're the winner! :)")
		case events.ResultLost:
			s.pushStatus("Sorry, you've lost the game :(")
		default:
			s.pushStatus("The game was a tie!")
		}
		s.title = "Reversi"
	case events.EventInvalidMove:
		s.pushStatus("Invalid move")
	case events.EventCommandDropped:
		s.pushStatus("Not connected, command dropped")
	case events.EventSessionAbandoned:
		s.pushStatus("Reconnected, game " + ev.GameID + " was abandoned")
		s.title = "Reversi"
	}

	s.redraw()
}

// Loop polls terminal input until the user quits. Runs on the caller's
// goroutine.
func (s *Screen) Loop() {
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			if s.handleKey(ev) {
				return
			}
		case termbox.EventMouse:
			s.handleMouse(ev)
		case termbox.EventResize:
			s.mu.Lock()
			s.redraw()
			s.mu.Unlock()
		case termbox.EventInterrupt:
			return
		case termbox.EventError:
			s.logger.Error("terminal event error", zap.Error(ev.Err))
			return
		}
	}
}

// Interrupt unblocks Loop. Used on shutdown signals arriving outside the
// terminal.
func (s *Screen) Interrupt() {
	termbox.Interrupt()
}

// handleKey dispatches one key event and reports whether to quit.
func (s *Screen) handleKey(ev termbox.Event) bool {
	s.mu.Lock()
	callbacks := s.callbacks
	s.mu.Unlock()

	switch {
	case ev.Ch == 'n':
		if callbacks.OnStartNewGame != nil {
			callbacks.OnStartNewGame()
		}
	case ev.Ch == 'j':
		if callbacks.OnJoinGame != nil {
			callbacks.OnJoinGame()
		}
	case ev.Ch == 'q', ev.Key == termbox.KeyEsc, ev.Key == termbox.KeyCtrlC:
		if callbacks.OnQuit != nil {
			callbacks.OnQuit()
		}
		return true
	}
	return false
}

func (s *Screen) handleMouse(ev termbox.Event) {
	if ev.Key != termbox.MouseLeft {
		return
	}

	s.mu.Lock()
	callbacks := s.callbacks
	s.mu.Unlock()

	if callbacks.OnClick != nil {
		callbacks.OnClick(ev.MouseX, ev.MouseY)
	}

	row, col, ok := cellAt(ev.MouseX, ev.MouseY)
	if ok && callbacks.OnBoardClicked != nil {
		callbacks.OnBoardClicked(row, col)
	}
}

// cellAt maps terminal coordinates to a board cell.
func cellAt(x, y int) (row, col int, ok bool) {
	if x < boardLeft || y < boardTop {
		return 0, 0, false
	}
	row = (y - boardTop) / cellH
	col = (x - boardLeft) / cellW
	if row >= board.Size || col >= board.Size {
		return 0, 0, false
	}
	return row, col, true
}

// pushStatus appends a status line, keeping the most recent ones. Caller
// holds the mutex.
func (s *Screen) pushStatus(line string) {
	s.status = append(s.status, line)
	if len(s.status) > maxStatusLines {
		s.status = s.status[len(s.status)-maxStatusLines:]
	}
}

// redraw repaints the whole screen. Caller holds the mutex.
func (s *Screen) redraw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	drawText(boardLeft, 0, s.title, termbox.ColorWhite|termbox.AttrBold, termbox.ColorDefault)

	s.drawBoard()

	statusTop := boardTop + board.Size*cellH + 1
	for i, line := range s.status {
		drawText(boardLeft, statusTop+i, line, termbox.ColorDefault, termbox.ColorDefault)
	}

	help := "n: new game   j: join game   q: quit   click: place tile"
	drawText(boardLeft, statusTop+maxStatusLines+1, help, termbox.ColorCyan, termbox.ColorDefault)

	termbox.Flush()
}

// drawBoard paints the 8x8 grid; cells are cellW x cellH terminal cells.
func (s *Screen) drawBoard() {
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			s.drawCell(row, col)
		}
	}
}

func (s *Screen) drawCell(row, col int) {
	top := boardTop + row*cellH
	left := boardLeft + col*cellW

	// Alternate two board shades so the grid reads without border lines.
	bg := termbox.ColorGreen
	if (row+col)%2 == 1 {
		bg = termbox.ColorGreen | termbox.AttrBold
	}

	for y := 0; y < cellH; y++ {
		for x := 0; x < cellW; x++ {
			termbox.SetCell(left+x, top+y, ' ', termbox.ColorDefault, bg)
		}
	}

	if s.snapshot.Position == nil {
		return
	}

	state, err := s.snapshot.Position.CellAt(row, col)
	if err != nil {
		return
	}

	ch, fg := ' ', termbox.ColorDefault
	switch state {
	case board.White:
		ch, fg = '●', termbox.ColorWhite|termbox.AttrBold
	case board.Black:
		ch, fg = '●', termbox.ColorBlack
	case board.PossibleMove:
		ch, fg = '·', termbox.ColorYellow|termbox.AttrBold
	default:
		return
	}

	termbox.SetCell(left+cellW/2-1, top+cellH/2, ch, fg, bg)
}

func drawText(x, y int, text string, fg, bg termbox.Attribute) {
	for i, ch := range []rune(text) {
		termbox.SetCell(x+i, y, ch, fg, bg)
	}
}
