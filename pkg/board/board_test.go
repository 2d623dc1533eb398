package board

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moor84/reversi/internal/apperror"
)

// startingPosition is the opening position the server sends after both
// players have connected.
const startingPosition = `[
	[0, 0, 0, 0, 0, 0, 0, 0],
	[0, 0, 0, 0, 0, 0, 0, 0],
	[0, 0, 0, 3, 0, 0, 0, 0],
	[0, 0, 3, 1, 2, 0, 0, 0],
	[0, 0, 0, 2, 1, 3, 0, 0],
	[0, 0, 0, 0, 3, 0, 0, 0],
	[0, 0, 0, 0, 0, 0, 0, 0],
	[0, 0, 0, 0, 0, 0, 0, 0]
]`

func TestPosition_UnmarshalJSON(t *testing.T) {
	t.Run("decodes the starting position", func(t *testing.T) {
		var pos Position
		err := json.Unmarshal([]byte(startingPosition), &pos)
		require.NoError(t, err)

		assert.Equal(t, White, pos[3][3])
		assert.Equal(t, Black, pos[3][4])
		assert.Equal(t, Black, pos[4][3])
		assert.Equal(t, White, pos[4][4])
		assert.Equal(t, PossibleMove, pos[2][3])
		assert.Equal(t, Empty, pos[0][0])
	})

	t.Run("rejects a grid with too few rows", func(t *testing.T) {
		var pos Position
		err := json.Unmarshal([]byte(`[[0,0,0,0,0,0,0,0]]`), &pos)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rows")
	})

	t.Run("rejects a row with the wrong width", func(t *testing.T) {
		short := `[
			[0,0,0,0,0,0,0,0],
			[0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0]
		]`
		var pos Position
		err := json.Unmarshal([]byte(short), &pos)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 1")
	})

	t.Run("rejects unknown cell states", func(t *testing.T) {
		bad := `[
			[9,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0],
			[0,0,0,0,0,0,0,0]
		]`
		var pos Position
		err := json.Unmarshal([]byte(bad), &pos)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown state")
	})

	t.Run("rejects a non-array payload", func(t *testing.T) {
		var pos Position
		err := json.Unmarshal([]byte(`"not a grid"`), &pos)
		require.Error(t, err)
	})
}

func TestPosition_CellAt(t *testing.T) {
	var pos Position
	require.NoError(t, json.Unmarshal([]byte(startingPosition), &pos))

	t.Run("returns the cell state inside the board", func(t *testing.T) {
		state, err := pos.CellAt(3, 3)
		require.NoError(t, err)
		assert.Equal(t, White, state)
	})

	t.Run("fails outside the board", func(t *testing.T) {
		for _, coords := range [][2]int{{-1, 0}, {0, -1}, {8, 0}, {0, 8}} {
			_, err := pos.CellAt(coords[0], coords[1])
			assert.ErrorIs(t, err, apperror.ErrOutOfBounds)
		}
	})
}

func TestPosition_IsPossibleMove(t *testing.T) {
	var pos Position
	require.NoError(t, json.Unmarshal([]byte(startingPosition), &pos))

	t.Run("true for a cell the server marked playable", func(t *testing.T) {
		assert.True(t, pos.IsPossibleMove(2, 3))
	})

	t.Run("false for empty and occupied cells", func(t *testing.T) {
		assert.False(t, pos.IsPossibleMove(0, 0))
		assert.False(t, pos.IsPossibleMove(3, 3))
	})

	t.Run("false outside the board", func(t *testing.T) {
		assert.False(t, pos.IsPossibleMove(-1, 5))
		assert.False(t, pos.IsPossibleMove(8, 8))
	})
}

func TestCellState_String(t *testing.T) {
	assert.Equal(t, "white", White.String())
	assert.Equal(t, "black", Black.String())
	assert.Equal(t, "possible_move", PossibleMove.String())
	assert.Equal(t, "empty", Empty.String())
}
