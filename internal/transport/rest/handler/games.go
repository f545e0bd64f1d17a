package handler

import (
	"net/http"
	"strings"

	"wordrush/internal/model"
	"wordrush/internal/repository"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// GameLister is the part of the room directory the REST layer reads
type GameLister interface {
	List() []model.GameListing
}

// GameHandler serves the lobby listing and the finished-game archive
type GameHandler struct {
	rooms   GameLister
	archive repository.ReportRepo
}

// NewGameHandler creates a game handler; archive may be nil
func NewGameHandler(rooms GameLister, archive repository.ReportRepo) *GameHandler {
	return &GameHandler{rooms: rooms, archive: archive}
}

// List handles GET /v1/games
// @Summary Joinable games
// @Produce json
// @Success 200 {object} model.GamesListPayload
// @Router /games [get]
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.GamesListPayload{Games: h.rooms.List()})
}

// Archive handles GET /v1/games/{code}/archive
// @Summary Latest finished game for a room code
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} model.GameResult
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /games/{code}/archive [get]
func (h *GameHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}
	code := strings.ToUpper(mux.Vars(r)["code"])

	result, err := h.archive.GetLatest(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("load archived game")
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
