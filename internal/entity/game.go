package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

var (
	ErrUnknownGameStatus = errors.New("unknown game status")
	ErrUnknownFirstMover = errors.New("unknown first mover")
)

// FirstMover - who places the first mark. The first mover plays X.
type FirstMover string

const (
	FirstHuman    FirstMover = "human"
	FirstComputer FirstMover = "computer"
)

func ParseFirstMover(value string) (FirstMover, error) {
	switch FirstMover(value) {
	case FirstHuman:
		return FirstHuman, nil
	case FirstComputer:
		return FirstComputer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFirstMover, value)
	}
}

// Game - a session between a human player and the automated opponent.
type Game struct {
	ID          string  `json:"id"`
	PlayerID    string  `json:"player_id"`
	Board       *Board  `json:"board"`
	HumanMark   Cell    `json:"human_mark"`
	BotMark     Cell    `json:"bot_mark"`
	Turn        Cell    `json:"player_turn"`
	Status      string  `json:"status"`
	Outcome     Outcome `json:"outcome"`
	Message     string  `json:"message"`
	LastBotMove *Loc    `json:"last_bot_move,omitempty"`
}

func NewGame(id, playerID string) *Game {
	return &Game{
		ID:       id,
		PlayerID: playerID,
		Board:    NewBoard(),
		Turn:     MarkX,
		Status:   StatusWaiting,
		Outcome:  Outcome{State: OutcomeInProgress},
		Message:  "Welcome. Who goes first?",
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsBotTurn() bool {
	return that.IsOngoing() && that.Turn == that.BotMark
}

func (that *Game) IsHumanTurn() bool {
	return that.IsOngoing() && that.Turn == that.HumanMark
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}
