package rest

import (
	"net/http"

	"wordrush/internal/cache"
	"wordrush/internal/repository"
	"wordrush/internal/transport/rest/handler"
	"wordrush/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// Container holds all dependencies for the router
type Container struct {
	Games          handler.GameLister
	Archive        repository.ReportRepo
	Leaderboard    cache.LeaderboardCache
	WSHandler      *ws.Handler
	AllowedOrigins []string
}

// NewRouter creates the HTTP router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(c.Games, c.Archive)
	leaderboardHandler := handler.NewLeaderboardHandler(c.Leaderboard)

	if c.WSHandler != nil {
		r.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// full paths on the root router so a method mismatch is a 405, not a 404
	r.HandleFunc("/v1/games", gameHandler.List).Methods("GET")
	r.HandleFunc("/v1/games/{code}/archive", gameHandler.Archive).Methods("GET")
	r.HandleFunc("/v1/leaderboard", leaderboardHandler.Top).Methods("GET")
	r.HandleFunc("/v1/docs/swagger.json", serveDoc).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

func serveDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		log.Error().Err(err).Msg("read api doc")
		http.Error(w, `{"error":"api doc unavailable"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
