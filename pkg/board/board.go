// Package board holds the client's view of the 8x8 Reversi position.
//
// The position is a verbatim echo of the last server snapshot. Replacing
// the whole grid is the only mutation; individual cells are never edited
// client-side.
package board

import (
	"encoding/json"
	"fmt"

	"github.com/moor84/reversi/internal/apperror"
)

// Size is the board edge length. The server always sends a Size x Size grid.
const Size = 8

// CellState is the state of a single board cell.
type CellState int

// Cell states as encoded on the wire.
const (
	Empty CellState = iota
	White
	Black
	PossibleMove
)

func (c CellState) String() string {
	switch c {
	case Empty:
		return "empty"
	case White:
		return "white"
	case Black:
		return "black"
	case PossibleMove:
		return "possible_move"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// Position is the 8x8 grid of cell states, row-major.
type Position [Size][Size]CellState

// UnmarshalJSON decodes a server position payload, rejecting anything that
// is not an exact 8x8 grid of known cell states.
func (p *Position) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode position grid: %w", err)
	}

	if len(rows) != Size {
		return fmt.Errorf("position has %d rows, want %d", len(rows), Size)
	}

	for i, row := range rows {
		if len(row) != Size {
			return fmt.Errorf("position row %d has %d cells, want %d", i, len(row), Size)
		}
		for j, cell := range row {
			if cell < int(Empty) || cell > int(PossibleMove) {
				return fmt.Errorf("position cell (%d,%d) has unknown state %d", i, j, cell)
			}
			p[i][j] = CellState(cell)
		}
	}

	return nil
}

// CellAt returns the state of the cell at (row, col).
func (p *Position) CellAt(row, col int) (CellState, error) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return Empty, fmt.Errorf("%w: (%d,%d)", apperror.ErrOutOfBounds, row, col)
	}
	return p[row][col], nil
}

// IsPossibleMove reports whether the cell at (row, col) is a move the
// server marked as playable. Out-of-bounds coordinates are not playable.
func (p *Position) IsPossibleMove(row, col int) bool {
	state, err := p.CellAt(row, col)
	if err != nil {
		return false
	}
	return state == PossibleMove
}
