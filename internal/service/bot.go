package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
)

var ErrNoAvailableMoves = errors.New("no available moves")

type BotService interface {
	MakeTurn(game *entity.Game) (entity.Loc, error)
	Hint(game *entity.Game) minimax.BestPlay
}

type botService struct {
	logger *slog.Logger
}

func NewBotService(logger *slog.Logger) BotService {
	return &botService{
		logger: logger.With("component", "bot"),
	}
}

// MakeTurn - searches the bot's best move on the game board and plays it.
func (that *botService) MakeTurn(game *entity.Game) (entity.Loc, error) {
	log := that.logger.With("method", "MakeTurn", "gameID", game.ID)

	availableCells := game.Board.EmptyCells()
	if len(availableCells) == 0 {
		return entity.Loc{}, ErrNoAvailableMoves
	}

	play := minimax.New(game.BotMark).Best(game.Board)

	// no move beat the window edge, the position is lost anyway
	chosenCell := availableCells[0]
	if play.HasMove() {
		chosenCell = *play.Move
	}

	if err := tictactoe.MakeTurn(game, game.BotMark, chosenCell); err != nil {
		return entity.Loc{}, fmt.Errorf("bot failed to make turn: %w", err)
	}

	game.LastBotMove = &chosenCell

	log.Debug("bot made turn", "cell", chosenCell.String(), "score", play.Score, "searched", play.HasMove())

	return chosenCell, nil
}

// Hint - the best move for the human side of the game.
func (that *botService) Hint(game *entity.Game) minimax.BestPlay {
	return minimax.New(game.HumanMark).Best(game.Board)
}
