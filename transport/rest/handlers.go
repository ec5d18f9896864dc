package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
)

type errorResponse struct {
	Error string `json:"error"`
}

type startGameRequest struct {
	First string `json:"first"`
}

type turnRequest struct {
	Col *int `json:"col"`
	Row *int `json:"row"`
}

type hintResponse struct {
	Hint minimax.BestPlay `json:"hint"`
}

func (that *Server) handleCreatePlayer(ctx echo.Context) error {
	player, err := that.game.GetOrCreatePlayer(ctx.Request().Context(), "")
	if err != nil {
		return that.sendError(ctx, "handleCreatePlayer", err)
	}

	return ctx.JSON(http.StatusCreated, player)
}

func (that *Server) handleGetPlayer(ctx echo.Context) error {
	player, err := that.game.GetOrCreatePlayer(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return that.sendError(ctx, "handleGetPlayer", err)
	}

	return ctx.JSON(http.StatusOK, player)
}

func (that *Server) handleStartGame(ctx echo.Context) error {
	var req startGameRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	first, err := entity.ParseFirstMover(req.First)
	if err != nil {
		return that.sendError(ctx, "handleStartGame", err)
	}

	game, err := that.game.StartGame(ctx.Request().Context(), ctx.Param("id"), first)
	if err != nil {
		return that.sendError(ctx, "handleStartGame", err)
	}

	return ctx.JSON(http.StatusCreated, game)
}

func (that *Server) handleGetGame(ctx echo.Context) error {
	game, err := that.game.GetGame(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return that.sendError(ctx, "handleGetGame", err)
	}

	return ctx.JSON(http.StatusOK, game)
}

func (that *Server) handleMakeTurn(ctx echo.Context) error {
	var req turnRequest
	if err := ctx.Bind(&req); err != nil || req.Col == nil || req.Row == nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "col and row are required"})
	}

	game, err := that.game.MakeTurn(ctx.Request().Context(), ctx.Param("id"), entity.Loc{Col: *req.Col, Row: *req.Row})
	if err != nil {
		return that.sendError(ctx, "handleMakeTurn", err)
	}

	return ctx.JSON(http.StatusOK, game)
}

func (that *Server) handleHint(ctx echo.Context) error {
	play, err := that.game.Hint(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return that.sendError(ctx, "handleHint", err)
	}

	return ctx.JSON(http.StatusOK, hintResponse{Hint: play})
}

func (that *Server) sendError(ctx echo.Context, method string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		return ctx.JSON(status, errorResponse{Error: http.StatusText(status)})
	}

	that.logger.Debug("request rejected", "method", method, "status", status, "error", err)

	return ctx.JSON(status, errorResponse{Error: err.Error()})
}

// statusFor - maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrNoActiveGame):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, entity.ErrUnknownFirstMover):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
