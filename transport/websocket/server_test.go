package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/minimax"
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

func dial(t *testing.T) (*websocket.Conn, *mockGameUseCase) {
	t.Helper()

	game := &mockGameUseCase{}
	server := New(slog.New(slog.NewTextHandler(io.Discard, nil)), game)

	ctx, cancel := context.WithCancel(context.Background())
	httpServer := httptest.NewServer(server.Handler(ctx))

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		httpServer.Close()
		game.AssertExpectations(t)
	})

	return conn, game
}

func roundTrip(t *testing.T, conn *websocket.Conn, request string) (string, Payload) {
	t.Helper()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(request)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload Payload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message.Action, payload
}

func TestServer_Connect(t *testing.T) {
	t.Run("New player", func(t *testing.T) {
		// Given: a connected client without a player id
		conn, game := dial(t)
		game.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

		// When: the client sends connect
		action, payload := roundTrip(t, conn, `{"action":"connect","payload":{}}`)

		// Then: a player is created
		assert.Equal(t, ActionConnect, action)
		require.NotNil(t, payload.Player)
		assert.Equal(t, "p1", payload.Player.ID)
		assert.Nil(t, payload.Game)
	})

	t.Run("Returning player gets the game back", func(t *testing.T) {
		conn, game := dial(t)
		game.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1", GameID: "g1"}, nil).Once()
		game.On("GetGame", mock.Anything, "p1").Return(entity.NewGame("g1", "p1"), nil).Once()

		_, payload := roundTrip(t, conn, `{"action":"connect","payload":{"player":{"id":"p1"}}}`)

		require.NotNil(t, payload.Game)
		assert.Equal(t, "g1", payload.Game.ID)
	})

	t.Run("Expired game is dropped", func(t *testing.T) {
		conn, game := dial(t)
		game.On("GetOrCreatePlayer", mock.Anything, "p1").Return(&entity.Player{ID: "p1", GameID: "g1"}, nil).Once()
		game.On("GetGame", mock.Anything, "p1").Return(nil, apperror.ErrNoActiveGame).Once()

		_, payload := roundTrip(t, conn, `{"action":"connect","payload":{"player":{"id":"p1"}}}`)

		assert.Empty(t, payload.Error)
		assert.Nil(t, payload.Game)
	})
}

func TestServer_Game(t *testing.T) {
	t.Run("New game", func(t *testing.T) {
		conn, game := dial(t)
		game.On("StartGame", mock.Anything, "p1", entity.FirstHuman).Return(entity.NewGame("g1", "p1"), nil).Once()

		action, payload := roundTrip(t, conn, `{"action":"game:new","payload":{"player":{"id":"p1"},"first":"human"}}`)

		assert.Equal(t, ActionNewGame, action)
		require.NotNil(t, payload.Game)
		assert.Equal(t, "g1", payload.Game.ID)
	})

	t.Run("Turn on an occupied cell", func(t *testing.T) {
		// Given: the use case rejects the move
		conn, game := dial(t)
		game.On("MakeTurn", mock.Anything, "p1", entity.Loc{Col: 2, Row: 0}).Return(nil, apperror.ErrCellOccupied).Once()

		// When: the client plays it
		action, payload := roundTrip(t, conn, `{"action":"game:turn","payload":{"player":{"id":"p1"},"move":{"col":2,"row":0}}}`)

		// Then: the reply carries the reason
		assert.Equal(t, ActionTurn, action)
		assert.Equal(t, apperror.ErrCellOccupied.Error(), payload.Error)
	})

	t.Run("Turn without a move", func(t *testing.T) {
		conn, _ := dial(t)

		_, payload := roundTrip(t, conn, `{"action":"game:turn","payload":{"player":{"id":"p1"}}}`)

		assert.Contains(t, payload.Error, "move is required")
	})

	t.Run("Hint", func(t *testing.T) {
		conn, game := dial(t)
		game.On("Hint", mock.Anything, "p1").Return(minimax.BestPlay{Move: &entity.Loc{Col: 1, Row: 1}}, nil).Once()

		action, payload := roundTrip(t, conn, `{"action":"game:hint","payload":{"player":{"id":"p1"}}}`)

		assert.Equal(t, ActionHint, action)
		require.NotNil(t, payload.Hint)
		assert.Equal(t, entity.Loc{Col: 1, Row: 1}, *payload.Hint.Move)
	})

	t.Run("Internal errors are hidden", func(t *testing.T) {
		conn, game := dial(t)
		game.On("Hint", mock.Anything, "p1").Return(minimax.BestPlay{}, errors.New("redis down")).Once()

		_, payload := roundTrip(t, conn, `{"action":"game:hint","payload":{"player":{"id":"p1"}}}`)

		assert.Equal(t, "internal error", payload.Error)
	})
}

func TestServer_BadMessages(t *testing.T) {
	t.Run("Malformed JSON keeps the connection open", func(t *testing.T) {
		conn, game := dial(t)
		game.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

		action, payload := roundTrip(t, conn, `{"action":`)
		assert.Equal(t, ActionError, action)
		assert.Equal(t, "malformed message", payload.Error)

		_, payload = roundTrip(t, conn, `{"action":"connect"}`)
		assert.Empty(t, payload.Error)
	})

	t.Run("Unknown action", func(t *testing.T) {
		conn, _ := dial(t)

		action, payload := roundTrip(t, conn, `{"action":"game:join"}`)

		assert.Equal(t, "game:join", action)
		assert.Equal(t, "unknown action", payload.Error)
	})

	t.Run("Missing player", func(t *testing.T) {
		conn, _ := dial(t)

		_, payload := roundTrip(t, conn, `{"action":"game:new","payload":{"first":"human"}}`)

		assert.Contains(t, payload.Error, "player is required")
	})
}
