// Package minimax selects the automated opponent's move with an exhaustive
// minimax search and alpha-beta pruning.
//
// The search explores by placing marks on the caller's board and undoing them,
// so the board must not be touched by anyone else while a search runs. On return
// the board is identical to what it was before the call.
package minimax

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	ScoreLoss = -1
	ScoreDraw = 0
	ScoreWin  = 1
)

var ErrNoMark = errors.New("searcher needs a mark to play")

// BestPlay - a move and the score it leads to. Move is nil when the search did not
// record one: the board was terminal, or no move beat the initial window edge.
type BestPlay struct {
	Move  *entity.Loc `json:"move,omitempty"`
	Score int         `json:"score"`
}

func (that BestPlay) HasMove() bool {
	return that.Move != nil
}

// Searcher - scores boards from the point of view of the automated opponent.
type Searcher struct {
	bot   entity.Cell
	human entity.Cell
}

func New(bot entity.Cell) *Searcher {
	if !bot.IsMark() {
		panic(fmt.Errorf("%w: got %d", ErrNoMark, uint8(bot)))
	}

	return &Searcher{
		bot:   bot,
		human: bot.Opponent(),
	}
}

func (that *Searcher) Bot() entity.Cell {
	return that.bot
}

func (that *Searcher) Human() entity.Cell {
	return that.human
}

// Best - the automated opponent's move on board, searched over the full window.
func (that *Searcher) Best(board *entity.Board) BestPlay {
	return that.FindBestMove(board, true, ScoreLoss, ScoreWin)
}

// Score - terminal score of board: +1 if the bot has won, -1 if the human has, 0 otherwise.
func (that *Searcher) Score(board *entity.Board) int {
	switch board.Winner() {
	case that.bot:
		return ScoreWin
	case that.human:
		return ScoreLoss
	default:
		return ScoreDraw
	}
}

// FindBestMove - minimax with alpha-beta pruning. maximizing is true when the bot is
// to move. Ties keep the first move in board.EmptyCells order.
func (that *Searcher) FindBestMove(board *entity.Board, maximizing bool, alpha, beta int) BestPlay {
	empty := board.EmptyCells()
	if board.Winner() != entity.Empty || len(empty) == 0 {
		return BestPlay{Score: that.Score(board)}
	}

	best := BestPlay{Score: beta}
	mark := that.human
	if maximizing {
		best.Score = alpha
		mark = that.bot
	}

	for _, loc := range empty {
		loc := loc
		response := that.probe(board, loc, mark, !maximizing, alpha, beta)

		switch {
		case maximizing && response.Score > best.Score:
			best = BestPlay{Move: &loc, Score: response.Score}
			alpha = response.Score
		case !maximizing && response.Score < best.Score:
			best = BestPlay{Move: &loc, Score: response.Score}
			beta = response.Score
		}

		if alpha >= beta {
			return best
		}
	}

	return best
}

// probe - places mark at loc, searches the reply and clears the cell again.
func (that *Searcher) probe(board *entity.Board, loc entity.Loc, mark entity.Cell, maximizing bool, alpha, beta int) BestPlay {
	board.Set(loc, mark)
	defer board.Set(loc, entity.Empty)

	return that.FindBestMove(board, maximizing, alpha, beta)
}
