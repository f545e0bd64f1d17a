package handler

import (
	"net/http"
	"strconv"

	"wordrush/internal/cache"

	"github.com/rs/zerolog/log"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// LeaderboardHandler serves the hall of fame
type LeaderboardHandler struct {
	hall cache.LeaderboardCache
}

// NewLeaderboardHandler creates a leaderboard handler; hall may be nil
func NewLeaderboardHandler(hall cache.LeaderboardCache) *LeaderboardHandler {
	return &LeaderboardHandler{hall: hall}
}

// Top handles GET /v1/leaderboard?limit=N
// @Summary Best final scores across games
// @Produce json
// @Param limit query int false "Entries to return (1-100)"
// @Success 200 {array} cache.LeaderboardEntry
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	if h.hall == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard disabled")
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.hall.GetTop(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("load leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []cache.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}
