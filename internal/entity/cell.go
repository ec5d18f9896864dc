package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidCell = errors.New("invalid cell value")

// Cell - the content of a single board square.
type Cell uint8

const (
	Empty Cell = iota
	MarkX
	MarkO
)

func (that Cell) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

func (that Cell) IsValid() bool {
	return that <= MarkO
}

func (that Cell) IsMark() bool {
	return that == MarkX || that == MarkO
}

// Opponent - returns the other side's mark, Empty stays Empty.
func (that Cell) Opponent() Cell {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return Empty
	}
}

func ParseCell(value string) (Cell, error) {
	switch value {
	case "":
		return Empty, nil
	case "X":
		return MarkX, nil
	case "O":
		return MarkO, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidCell, value)
	}
}

func (that Cell) MarshalJSON() ([]byte, error) {
	if !that.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCell, uint8(that))
	}

	return json.Marshal(that.String())
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to unmarshal cell: %w", err)
	}

	cell, err := ParseCell(value)
	if err != nil {
		return err
	}

	*that = cell

	return nil
}

// Loc - zero-based (column, row) coordinate on a board.
type Loc struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (that Loc) String() string {
	return fmt.Sprintf("(%d,%d)", that.Col, that.Row)
}
