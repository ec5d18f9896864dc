package entity

type OutcomeState string

const (
	OutcomeInProgress OutcomeState = "in_progress"
	OutcomeWin        OutcomeState = "win"
	OutcomeDraw       OutcomeState = "draw"
)

// Outcome - the terminal state of a board, recomputed on demand by Board.Outcome.
type Outcome struct {
	State  OutcomeState `json:"state"`
	Winner Cell         `json:"winner"`
}

func (that Outcome) IsTerminal() bool {
	return that.State == OutcomeWin || that.State == OutcomeDraw
}
