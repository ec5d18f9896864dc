package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	MessageGameOn   = "Game on!"
	MessageYourTurn = "Your turn!"
	MessageYouLose  = "You lose. Play again?"
	MessageYouWin   = "You win! Play again?"
	MessageTied     = "Game tied! Play again?"
)

// Start - resets the board for a new round. The side moving first plays X.
func Start(gameInstance *entity.Game, first entity.FirstMover) {
	gameInstance.Board.Reset()

	if first == entity.FirstHuman {
		gameInstance.HumanMark, gameInstance.BotMark = entity.MarkX, entity.MarkO
	} else {
		gameInstance.HumanMark, gameInstance.BotMark = entity.MarkO, entity.MarkX
	}

	gameInstance.Turn = entity.MarkX
	gameInstance.Status = entity.StatusOngoing
	gameInstance.Outcome = entity.Outcome{State: entity.OutcomeInProgress}
	gameInstance.LastBotMove = nil
	gameInstance.Message = MessageGameOn
}

func MakeTurn(gameInstance *entity.Game, mark entity.Cell, loc entity.Loc) error {
	if err := gameInstance.ConfirmOngoingState(); err != nil {
		return err
	}

	if err := validateMove(gameInstance, mark, loc); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	gameInstance.Board.Set(loc, mark)
	updateGameStatus(gameInstance, mark)

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(gameInstance *entity.Game, mark entity.Cell, loc entity.Loc) error {
	if !gameInstance.Board.InBounds(loc) {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidCell, loc)
	}

	if gameInstance.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if gameInstance.Board.Get(loc) != entity.Empty {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(gameInstance *entity.Game, mark entity.Cell) {
	outcome := gameInstance.Board.Outcome()
	gameInstance.Outcome = outcome

	if !outcome.IsTerminal() {
		gameInstance.Turn = mark.Opponent()
		if gameInstance.Turn == gameInstance.HumanMark {
			gameInstance.Message = MessageYourTurn
		}

		return
	}

	gameInstance.Status = entity.StatusFinished
	gameInstance.Turn = entity.Empty

	switch outcome.Winner {
	case gameInstance.BotMark:
		gameInstance.Message = MessageYouLose
	case gameInstance.HumanMark:
		gameInstance.Message = MessageYouWin
	default:
		gameInstance.Message = MessageTied
	}
}
