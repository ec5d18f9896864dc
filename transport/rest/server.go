package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	StartGame(ctx context.Context, playerID string, first entity.FirstMover) (*entity.Game, error)
	GetGame(ctx context.Context, playerID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, playerID string, loc entity.Loc) (*entity.Game, error)
	Hint(ctx context.Context, playerID string) (minimax.BestPlay, error)
}

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
	game   gameUseCase
}

func New(logger *slog.Logger, game gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		echo:   echo.New(),
		game:   game,
	}

	server.echo.HideBanner = true
	server.echo.HidePort = true

	server.echo.Use(middleware.Recover())
	server.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			server.logger.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error,
			)
			return nil
		},
	}))

	server.echo.GET("/ping", server.handlePing)

	api := server.echo.Group("/api")
	api.POST("/players", server.handleCreatePlayer)
	api.GET("/players/:id", server.handleGetPlayer)
	api.POST("/players/:id/game", server.handleStartGame)
	api.GET("/players/:id/game", server.handleGetGame)
	api.POST("/players/:id/game/turns", server.handleMakeTurn)
	api.GET("/players/:id/game/hint", server.handleHint)

	return server
}

// Handler - the HTTP handler serving every route.
func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start - serves on port until ctx is canceled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	that.echo.Server.ReadTimeout = 10 * time.Second
	that.echo.Server.WriteTimeout = 10 * time.Second
	that.echo.Server.IdleTimeout = 30 * time.Second

	errCh := make(chan error, 1)
	go func() {
		if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := that.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
