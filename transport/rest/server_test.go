package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
)

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockGameUseCase) StartGame(ctx context.Context, playerID string, first entity.FirstMover) (*entity.Game, error) {
	args := that.Called(ctx, playerID, first)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) MakeTurn(ctx context.Context, playerID string, loc entity.Loc) (*entity.Game, error) {
	args := that.Called(ctx, playerID, loc)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) Hint(ctx context.Context, playerID string) (minimax.BestPlay, error) {
	args := that.Called(ctx, playerID)
	return args.Get(0).(minimax.BestPlay), args.Error(1)
}

func newTestServer(t *testing.T) (*Server, *mockGameUseCase) {
	t.Helper()

	game := &mockGameUseCase{}
	t.Cleanup(func() { game.AssertExpectations(t) })

	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), game), game
}

func do(server *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp.Error
}

func TestServer_Ping(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(server, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Players(t *testing.T) {
	t.Run("Create player", func(t *testing.T) {
		// Given: the use case creates players
		server, game := newTestServer(t)
		game.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

		// When: POST /api/players
		rec := do(server, http.MethodPost, "/api/players", "")

		// Then: the new player is returned
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":"p1","mark":""}`, rec.Body.String())
	})

	t.Run("Unknown player is 404", func(t *testing.T) {
		server, game := newTestServer(t)
		game.On("GetOrCreatePlayer", mock.Anything, "ghost").Return(nil, repository.ErrPlayerNotFound).Once()

		rec := do(server, http.MethodGet, "/api/players/ghost", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, errorOf(t, rec), "not found")
	})
}

func TestServer_StartGame(t *testing.T) {
	t.Run("Computer first", func(t *testing.T) {
		// Given: a player starting a game
		server, game := newTestServer(t)
		started := entity.NewGame("g1", "p1")
		game.On("StartGame", mock.Anything, "p1", entity.FirstComputer).Return(started, nil).Once()

		// When: the client asks the computer to go first
		rec := do(server, http.MethodPost, "/api/players/p1/game", `{"first":"computer"}`)

		// Then: the game is returned
		require.Equal(t, http.StatusCreated, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "g1", body["id"])
	})

	t.Run("Unknown first mover is 422", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(server, http.MethodPost, "/api/players/p1/game", `{"first":"nobody"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Malformed body is 400", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(server, http.MethodPost, "/api/players/p1/game", `{"first":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_MakeTurn(t *testing.T) {
	t.Run("Valid move", func(t *testing.T) {
		server, game := newTestServer(t)
		game.On("MakeTurn", mock.Anything, "p1", entity.Loc{Col: 0, Row: 2}).Return(entity.NewGame("g1", "p1"), nil).Once()

		rec := do(server, http.MethodPost, "/api/players/p1/game/turns", `{"col":0,"row":2}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing coordinate is 400", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(server, http.MethodPost, "/api/players/p1/game/turns", `{"col":1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Rule violations", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{apperror.ErrCellOccupied, http.StatusConflict},
			{apperror.ErrNotYourTurn, http.StatusConflict},
			{apperror.ErrGameFinished, http.StatusConflict},
			{apperror.ErrInvalidCell, http.StatusUnprocessableEntity},
			{apperror.ErrNoActiveGame, http.StatusNotFound},
			{errors.New("redis down"), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			// Given: the use case rejects the move
			server, game := newTestServer(t)
			game.On("MakeTurn", mock.Anything, "p1", entity.Loc{Col: 1, Row: 1}).
				Return(nil, errors.Join(errors.New("failed make turn"), tc.err)).Once()

			// When: the move is posted
			rec := do(server, http.MethodPost, "/api/players/p1/game/turns", `{"col":1,"row":1}`)

			// Then: the error maps onto its status
			assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		}
	})

	t.Run("Internal errors are not leaked", func(t *testing.T) {
		server, game := newTestServer(t)
		game.On("MakeTurn", mock.Anything, "p1", entity.Loc{Col: 1, Row: 1}).Return(nil, errors.New("redis down")).Once()

		rec := do(server, http.MethodPost, "/api/players/p1/game/turns", `{"col":1,"row":1}`)

		assert.Equal(t, http.StatusText(http.StatusInternalServerError), errorOf(t, rec))
	})
}

func TestServer_Hint(t *testing.T) {
	server, game := newTestServer(t)
	game.On("Hint", mock.Anything, "p1").Return(minimax.BestPlay{Move: &entity.Loc{Col: 2, Row: 1}, Score: minimax.ScoreWin}, nil).Once()

	rec := do(server, http.MethodGet, "/api/players/p1/game/hint", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hint":{"move":{"col":2,"row":1},"score":1}}`, rec.Body.String())
}

func TestServer_GetGame(t *testing.T) {
	server, game := newTestServer(t)
	game.On("GetGame", mock.Anything, "p1").Return(nil, apperror.ErrNoActiveGame).Once()

	rec := do(server, http.MethodGet, "/api/players/p1/game", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.ErrNoActiveGame.Error(), errorOf(t, rec))
}
