package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

const (
	DefaultWidth  = 3
	DefaultHeight = 3
)

var (
	ErrOutOfBounds       = errors.New("location is out of bounds")
	ErrInvalidDimensions = errors.New("invalid board dimensions")
)

// Board - a fixed width x height grid of cells stored row-major.
// Get and Set panic on locations outside the grid: callers take locations from
// EmptyCells or check them with InBounds first.
type Board struct {
	width  int
	height int
	cells  []Cell

	// winning lines as cell indexes, derived from the dimensions
	lines [][]int
}

func NewBoard() *Board {
	return NewBoardSize(DefaultWidth, DefaultHeight)
}

func NewBoardSize(width, height int) *Board {
	if width <= 0 || height <= 0 {
		panic(fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height))
	}

	return &Board{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		lines:  winLines(width, height),
	}
}

// winLines - every row, every column and, for square boards, both diagonals.
func winLines(width, height int) [][]int {
	lines := make([][]int, 0, width+height+2)

	for row := 0; row < height; row++ {
		line := make([]int, 0, width)
		for col := 0; col < width; col++ {
			line = append(line, row*width+col)
		}
		lines = append(lines, line)
	}

	for col := 0; col < width; col++ {
		line := make([]int, 0, height)
		for row := 0; row < height; row++ {
			line = append(line, row*width+col)
		}
		lines = append(lines, line)
	}

	if width != height {
		return lines
	}

	negative := make([]int, 0, width)
	positive := make([]int, 0, width)
	for i := 0; i < width; i++ {
		negative = append(negative, i*width+i)
		positive = append(positive, i*width+(width-1-i))
	}

	return append(lines, negative, positive)
}

func (that *Board) Width() int {
	return that.width
}

func (that *Board) Height() int {
	return that.height
}

func (that *Board) Size() int {
	return len(that.cells)
}

func (that *Board) InBounds(loc Loc) bool {
	return loc.Col >= 0 && loc.Col < that.width && loc.Row >= 0 && loc.Row < that.height
}

func (that *Board) index(loc Loc) int {
	if !that.InBounds(loc) {
		panic(fmt.Errorf("%w: %s on %dx%d board", ErrOutOfBounds, loc, that.width, that.height))
	}

	return loc.Row*that.width + loc.Col
}

func (that *Board) Get(loc Loc) Cell {
	return that.cells[that.index(loc)]
}

// Set - overwrites the cell at loc. It does not check that the cell was empty.
func (that *Board) Set(loc Loc, value Cell) {
	if !value.IsValid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidCell, uint8(value)))
	}

	that.cells[that.index(loc)] = value
}

// EmptyCells - empty locations in row-major order (row by row, columns left to right).
func (that *Board) EmptyCells() []Loc {
	empty := make([]Loc, 0, len(that.cells))

	for row := 0; row < that.height; row++ {
		for col := 0; col < that.width; col++ {
			if that.cells[row*that.width+col] == Empty {
				empty = append(empty, Loc{Col: col, Row: row})
			}
		}
	}

	return empty
}

func (that *Board) Occupied() int {
	count := 0
	for _, cell := range that.cells {
		if cell != Empty {
			count++
		}
	}

	return count
}

// Winner - the mark filling a whole line, or Empty when there is none.
func (that *Board) Winner() Cell {
	for _, line := range that.lines {
		first := that.cells[line[0]]
		if first == Empty {
			continue
		}

		won := true
		for _, idx := range line[1:] {
			if that.cells[idx] != first {
				won = false
				break
			}
		}

		if won {
			return first
		}
	}

	return Empty
}

func (that *Board) IsFull() bool {
	return len(that.EmptyCells()) == 0
}

func (that *Board) Outcome() Outcome {
	if winner := that.Winner(); winner != Empty {
		return Outcome{State: OutcomeWin, Winner: winner}
	}

	if that.IsFull() {
		return Outcome{State: OutcomeDraw}
	}

	return Outcome{State: OutcomeInProgress}
}

func (that *Board) Reset() {
	clear(that.cells)
}

func (that *Board) Clone() *Board {
	return &Board{
		width:  that.width,
		height: that.height,
		cells:  slices.Clone(that.cells),
		lines:  that.lines,
	}
}

func (that *Board) Equal(other *Board) bool {
	if other == nil {
		return false
	}

	return that.width == other.width && that.height == other.height && slices.Equal(that.cells, other.cells)
}

func (that *Board) String() string {
	out := make([]byte, 0, len(that.cells)+that.height)

	for row := 0; row < that.height; row++ {
		for col := 0; col < that.width; col++ {
			switch cell := that.cells[row*that.width+col]; cell {
			case Empty:
				out = append(out, '.')
			default:
				out = append(out, cell.String()...)
			}
		}

		if row < that.height-1 {
			out = append(out, '/')
		}
	}

	return string(out)
}

type boardJSON struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []Cell `json:"cells"`
}

func (that *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{
		Width:  that.width,
		Height: that.height,
		Cells:  that.cells,
	})
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if raw.Width <= 0 || raw.Height <= 0 || len(raw.Cells) != raw.Width*raw.Height {
		return fmt.Errorf("%w: %dx%d with %d cells", ErrInvalidDimensions, raw.Width, raw.Height, len(raw.Cells))
	}

	that.width = raw.Width
	that.height = raw.Height
	that.cells = raw.Cells
	that.lines = winLines(raw.Width, raw.Height)

	return nil
}
