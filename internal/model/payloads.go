package model

// Inbound payloads

type JoinGamePayload struct {
	PlayerName     string `json:"player_name"`
	RoomCode       string `json:"room_code,omitempty"`
	PreciseScoring *bool  `json:"precise_scoring,omitempty"`
}

type RejoinGamePayload struct {
	SessionToken string `json:"session_token"`
}

type SubmitAnswersPayload struct {
	Answers map[string]string `json:"answers"`
}

// SubmitScoresPayload maps category -> rated player id -> rating
type SubmitScoresPayload struct {
	Scores map[string]map[string]int `json:"scores"`
}

// Outbound payloads

type ErrorPayload struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
}

type LobbyUpdatePayload struct {
	RoomCode     string       `json:"room_code"`
	GameState    GameState    `json:"game_state"`
	Players      []PlayerInfo `json:"players"`
	Settings     Settings     `json:"settings"`
	RoundTotal   int          `json:"round_total"`
	MaxPlayers   int          `json:"max_players"`
	IsHost       *bool        `json:"is_host,omitempty"`
	PlayerID     string       `json:"player_id,omitempty"`
	SessionToken string       `json:"session_token,omitempty"`
}

type GamesListPayload struct {
	Games []GameListing `json:"games"`
}

type RoundStartPayload struct {
	RoundNumber     int      `json:"round_number"`
	RoundTotal      int      `json:"round_total"`
	Letter          string   `json:"letter"`
	Categories      []string `json:"categories"`
	DurationSeconds int      `json:"duration_seconds"`
	RushSeconds     int      `json:"rush_seconds"`
	ConnectedCount  int      `json:"connected_count"`
	PlayerCount     int      `json:"player_count"`
	ServerTime      int64    `json:"server_time"`
}

type OpponentSubmittedPayload struct {
	OpponentID       string `json:"opponent_id"`
	OpponentName     string `json:"opponent_name"`
	RushSeconds      int    `json:"rush_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	SubmittedCount   int    `json:"submitted_count"`
	ConnectedCount   int    `json:"connected_count"`
}

// Round end reasons
const (
	EndAllSubmitted = "all_submitted"
	EndTimeout      = "timeout"
	EndPlayersLeft  = "players_left"
)

type RoundEndedPayload struct {
	Round          RoundView    `json:"round"`
	Players        []PlayerInfo `json:"players"`
	ScoringSeconds int          `json:"scoring_seconds"`
	Reason         string       `json:"reason"`
}

type ScoringUpdatePayload struct {
	PlayerID       string `json:"player_id"`
	SubmittedCount int    `json:"submitted_count"`
	ConnectedCount int    `json:"connected_count"`
}

type ScoringTimeoutPayload struct {
	MissingPlayerIDs []string `json:"missing_player_ids"`
}

type RoundResultsPayload struct {
	RoundNumber      int                           `json:"round_number"`
	RoundScores      map[string]map[string]float64 `json:"round_scores"`
	RoundTotals      map[string]float64            `json:"round_totals"`
	CumulativeScores map[string]float64            `json:"cumulative_scores"`
	IsFinalRound     bool                          `json:"is_final_round"`
	Timeout          bool                          `json:"timeout"`
	RoundWinner      Standing                      `json:"round_winner"`
	Leader           Standing                      `json:"leader"`
}

type GameOverPayload struct {
	FinalScores map[string]float64 `json:"final_scores"`
	History     []RoundRecord      `json:"history"`
	Leader      Standing           `json:"leader"`
}

type ReconnectedPayload struct {
	RoomCode     string       `json:"room_code"`
	GameState    GameState    `json:"game_state"`
	PlayerID     string       `json:"player_id"`
	IsHost       bool         `json:"is_host"`
	SessionToken string       `json:"session_token"`
	Players      []PlayerInfo `json:"players"`
	Settings     Settings     `json:"settings"`
	RoundTotal   int          `json:"round_total"`
	MaxPlayers   int          `json:"max_players"`

	// PLAYING and SCORING
	Round          *RoundView `json:"round,omitempty"`
	SubmittedCount int        `json:"submitted_count"`
	ConnectedCount int        `json:"connected_count"`

	// PLAYING
	RemainingSeconds int               `json:"remaining_seconds,omitempty"`
	MyAnswers        map[string]string `json:"my_answers,omitempty"`
	HasSubmitted     bool              `json:"has_submitted,omitempty"`

	// SCORING
	ScoresSubmitted         bool `json:"scores_submitted,omitempty"`
	ScoringRemainingSeconds int  `json:"scoring_remaining_seconds,omitempty"`

	Results  *RoundResultsPayload `json:"results,omitempty"`
	GameOver *GameOverPayload     `json:"game_over,omitempty"`
}

type PlayerDisconnectedPayload struct {
	PlayerID          string `json:"player_id"`
	PlayerName        string `json:"player_name"`
	LeftIntentionally bool   `json:"left_intentionally"`
	ConnectedCount    int    `json:"connected_count"`
	SubmittedCount    int    `json:"submitted_count"`
}

type PlayerReconnectedPayload struct {
	PlayerID       string `json:"player_id"`
	PlayerName     string `json:"player_name"`
	ConnectedCount int    `json:"connected_count"`
	SubmittedCount int    `json:"submitted_count"`
}

type HostChangedPayload struct {
	NewHostID   string `json:"new_host_id"`
	NewHostName string `json:"new_host_name"`
}

type SessionHijackedPayload struct {
	Message string `json:"message"`
}
