package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "wordrush/docs"
	"wordrush/internal/cache"
	"wordrush/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticGames []model.GameListing

func (g staticGames) List() []model.GameListing { return g }

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) SaveResult(ctx context.Context, result *model.GameResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *MockArchive) GetLatest(ctx context.Context, roomCode string) (*model.GameResult, error) {
	args := m.Called(ctx, roomCode)
	res, _ := args.Get(0).(*model.GameResult)
	return res, args.Error(1)
}

type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) Record(ctx context.Context, players []model.ResultPlayer) error {
	return m.Called(ctx, players).Error(0)
}

func (m *MockLeaderboard) GetTop(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	res, _ := args.Get(0).([]cache.LeaderboardEntry)
	return res, args.Error(1)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := NewRouter(&Container{Games: staticGames{}, AllowedOrigins: []string{"*"}})
	rec := do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Games(t *testing.T) {
	games := staticGames{{Code: "ABCD", HostName: "Alice", PlayerCount: 2, MaxPlayers: 5}}
	h := NewRouter(&Container{Games: games, AllowedOrigins: []string{"*"}})

	rec := do(t, h, http.MethodGet, "/v1/games")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.GamesListPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []model.GameListing(games), got.Games)

	for _, path := range []string{"/v1/games", "/v1/games/ABCD/archive", "/v1/leaderboard", "/v1/docs/swagger.json"} {
		rec = do(t, h, http.MethodPost, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/nothing").Code)
}

func TestRouter_Archive(t *testing.T) {
	archive := new(MockArchive)
	archive.On("GetLatest", mock.Anything, "ABCD").Return(&model.GameResult{RoomCode: "ABCD"}, nil).Once()
	archive.On("GetLatest", mock.Anything, "NONE").Return(nil, nil).Once()
	archive.On("GetLatest", mock.Anything, "FAIL").Return(nil, errors.New("mongo down")).Once()
	h := NewRouter(&Container{Games: staticGames{}, Archive: archive, AllowedOrigins: []string{"*"}})

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/games/abcd/archive", http.StatusOK},
		{"/v1/games/NONE/archive", http.StatusNotFound},
		{"/v1/games/FAIL/archive", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	archive.AssertExpectations(t)

	disabled := NewRouter(&Container{Games: staticGames{}, AllowedOrigins: []string{"*"}})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, disabled, http.MethodGet, "/v1/games/ABCD/archive").Code)
}

func TestRouter_Leaderboard(t *testing.T) {
	hall := new(MockLeaderboard)
	entries := []cache.LeaderboardEntry{{PlayerID: "p_1", Name: "Alice", Score: 9, Rank: 1}}
	hall.On("GetTop", mock.Anything, 10).Return(entries, nil).Once()
	hall.On("GetTop", mock.Anything, 3).Return(nil, nil).Once()
	h := NewRouter(&Container{Games: staticGames{}, Leaderboard: hall, AllowedOrigins: []string{"*"}})

	rec := do(t, h, http.MethodGet, "/v1/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []cache.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, entries, got)

	rec = do(t, h, http.MethodGet, "/v1/leaderboard?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, bad := range []string{"0", "101", "ten"} {
		rec = do(t, h, http.MethodGet, "/v1/leaderboard?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	hall.AssertExpectations(t)
}

func TestRouter_Docs(t *testing.T) {
	h := NewRouter(&Container{Games: staticGames{}, AllowedOrigins: []string{"*"}})
	rec := do(t, h, http.MethodGet, "/v1/docs/swagger.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Contains(t, doc["paths"], "/leaderboard")
}

func TestRouter_CORS(t *testing.T) {
	h := NewRouter(&Container{Games: staticGames{}, AllowedOrigins: []string{"http://game.example"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.Header.Set("Origin", "http://game.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://game.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/v1/games", nil)
	req.Header.Set("Origin", "http://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
