package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
)

const (
	ActionConnect = "connect"
	ActionNewGame = "game:new"
	ActionTurn    = "game:turn"
	ActionHint    = "game:hint"
	ActionError   = "error"
)

var errBadPayload = errors.New("bad payload")

// Message - a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player *entity.Player    `json:"player,omitempty"`
	Game   *entity.Game      `json:"game,omitempty"`
	First  string            `json:"first,omitempty"`
	Move   *entity.Loc       `json:"move,omitempty"`
	Hint   *minimax.BestPlay `json:"hint,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func decodePayload(msg *Message, requirePlayer bool) (Payload, error) {
	var payload Payload

	if len(msg.Payload) != 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return Payload{}, fmt.Errorf("%w: %w", errBadPayload, err)
		}
	}

	if requirePlayer && (payload.Player == nil || payload.Player.ID == "") {
		return Payload{}, fmt.Errorf("%w: player is required", errBadPayload)
	}

	return payload, nil
}

// handleConnect - creates a player, or restores an existing one together with its game.
func (that *Server) handleConnect(ctx context.Context, msg *Message) (Payload, error) {
	log := that.logger.With("method", "handleConnect")

	req, err := decodePayload(msg, false)
	if err != nil {
		return Payload{}, err
	}

	var playerID string
	if req.Player != nil {
		playerID = req.Player.ID
	}

	player, err := that.game.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to get or create player: %w", err)
	}

	resp := Payload{Player: player}

	if player.GameID != "" {
		game, err := that.game.GetGame(ctx, player.ID)
		switch {
		case errors.Is(err, apperror.ErrNoActiveGame):
			// expired, the client starts a new game
		case err != nil:
			return Payload{}, fmt.Errorf("failed to get game: %w", err)
		default:
			resp.Game = game
		}
	}

	log.Info("player connected", "playerID", player.ID)

	return resp, nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message) (Payload, error) {
	req, err := decodePayload(msg, true)
	if err != nil {
		return Payload{}, err
	}

	first, err := entity.ParseFirstMover(req.First)
	if err != nil {
		return Payload{}, err
	}

	game, err := that.game.StartGame(ctx, req.Player.ID, first)
	if err != nil {
		return Payload{}, err
	}

	return Payload{Game: game}, nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message) (Payload, error) {
	req, err := decodePayload(msg, true)
	if err != nil {
		return Payload{}, err
	}

	if req.Move == nil {
		return Payload{}, fmt.Errorf("%w: move is required", errBadPayload)
	}

	game, err := that.game.MakeTurn(ctx, req.Player.ID, *req.Move)
	if err != nil {
		return Payload{}, err
	}

	return Payload{Game: game}, nil
}

func (that *Server) handleHint(ctx context.Context, msg *Message) (Payload, error) {
	req, err := decodePayload(msg, true)
	if err != nil {
		return Payload{}, err
	}

	play, err := that.game.Hint(ctx, req.Player.ID)
	if err != nil {
		return Payload{}, err
	}

	return Payload{Hint: &play}, nil
}

// errorPayload - client-facing error. Domain errors are passed through, anything
// else is logged and hidden.
func (that *Server) errorPayload(action string, err error) Payload {
	switch {
	case errors.Is(err, errBadPayload),
		errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, apperror.ErrNoActiveGame),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, entity.ErrUnknownFirstMover):
		that.logger.Debug("action rejected", "action", action, "error", err)
		return Payload{Error: err.Error()}
	default:
		that.logger.Error("action failed", "action", action, "error", err)
		return Payload{Error: "internal error"}
	}
}
