package model

import "time"

// GameState is the room state machine position
type GameState string

const (
	StateLobby        GameState = "LOBBY"
	StatePlaying      GameState = "PLAYING"
	StateScoring      GameState = "SCORING"
	StateRoundResults GameState = "ROUND_RESULTS"
	StateFinalResults GameState = "FINAL_RESULTS"
)

// Settings are the host-mutable room settings
type Settings struct {
	RushSeconds           int  `json:"rush_seconds" bson:"rushSeconds"`
	PreciseScoring        bool `json:"precise_scoring" bson:"preciseScoring"`
	ScoringTimeoutSeconds int  `json:"scoring_timeout_seconds" bson:"scoringTimeoutSeconds"`
	RoundDurationSeconds  int  `json:"round_duration_seconds" bson:"roundDurationSeconds"`
}

// SettingsUpdate carries optional settings changes; nil fields are left untouched
type SettingsUpdate struct {
	RushSeconds           *int  `json:"rush_seconds,omitempty"`
	PreciseScoring        *bool `json:"precise_scoring,omitempty"`
	ScoringTimeoutSeconds *int  `json:"scoring_timeout_seconds,omitempty"`
	RoundDurationSeconds  *int  `json:"round_duration_seconds,omitempty"`
}

// Empty reports whether the update changes nothing
func (u SettingsUpdate) Empty() bool {
	return u.RushSeconds == nil && u.PreciseScoring == nil &&
		u.ScoringTimeoutSeconds == nil && u.RoundDurationSeconds == nil
}

// PlayerInfo is the public view of a seated player
type PlayerInfo struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Score               float64 `json:"score"`
	IsHost              bool    `json:"is_host"`
	IsConnected         bool    `json:"is_connected"`
	HasSubmittedAnswers bool    `json:"has_submitted_answers"`
	HasSubmittedScores  bool    `json:"has_submitted_scores"`
}

// RoundView is a round as shown to clients. Answers is only set once the
// round has ended (or for the requesting player's own answers).
type RoundView struct {
	RoundNumber int                          `json:"round_number"`
	Letter      string                       `json:"letter"`
	Categories  []string                     `json:"categories"`
	Answers     map[string]map[string]string `json:"answers,omitempty"`
}

// Standing names the player(s) at the top of a ranking
type Standing struct {
	PlayerIDs []string `json:"player_ids"`
	Score     float64  `json:"score"`
	Tied      bool     `json:"tied"`
}

// RoundRecord is a completed round kept for the game summary
type RoundRecord struct {
	RoundNumber int                           `json:"round_number" bson:"roundNumber"`
	Letter      string                        `json:"letter" bson:"letter"`
	Categories  []string                      `json:"categories" bson:"categories"`
	Answers     map[string]map[string]string  `json:"answers" bson:"answers"`
	Scores      map[string]map[string]float64 `json:"scores" bson:"scores"`
	Totals      map[string]float64            `json:"totals" bson:"totals"`
	TimedOut    bool                          `json:"timed_out" bson:"timedOut"`
}

// RoomSummary is what a room publishes to the directory after each command
type RoomSummary struct {
	Code           string
	State          GameState
	HostName       string
	PlayerCount    int
	ConnectedCount int
	MaxPlayers     int
	// EmptySince is when the last connected player went away; zero while anyone is connected.
	EmptySince time.Time
}

// Joinable reports whether the room should be offered in GAMES_LIST
func (s RoomSummary) Joinable() bool {
	return s.State == StateLobby && s.PlayerCount > 0 && s.PlayerCount < s.MaxPlayers
}

// GameListing is one GAMES_LIST entry
type GameListing struct {
	Code        string `json:"code"`
	HostName    string `json:"host_name"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// ResultPlayer is a player's final line in an archived game
type ResultPlayer struct {
	ID    string  `json:"id" bson:"id"`
	Name  string  `json:"name" bson:"name"`
	Score float64 `json:"score" bson:"score"`
}

// GameResult is the archived outcome of a finished game
type GameResult struct {
	RoomCode   string         `json:"roomCode" bson:"roomCode"`
	Players    []ResultPlayer `json:"players" bson:"players"`
	History    []RoundRecord  `json:"history" bson:"history"`
	Leader     Standing       `json:"leader" bson:"leader"`
	Settings   Settings       `json:"settings" bson:"settings"`
	FinishedAt time.Time      `json:"finishedAt" bson:"finishedAt"`
}

// RoomEventType names a room lifecycle event for the event stream
type RoomEventType string

const (
	EventRoomCreated  RoomEventType = "room_created"
	EventPlayerJoined RoomEventType = "player_joined"
	EventPlayerLeft   RoomEventType = "player_left"
	EventRoundStarted RoomEventType = "round_started"
	EventRoundEnded   RoomEventType = "round_ended"
	EventRoundResults RoomEventType = "round_results"
	EventGameOver     RoomEventType = "game_over"
	EventRoomDeleted  RoomEventType = "room_deleted"
)

// RoomEvent is a lifecycle event published to the event stream
type RoomEvent struct {
	Type     RoomEventType          `json:"type"`
	RoomCode string                 `json:"roomCode"`
	At       time.Time              `json:"at"`
	Data     map[string]interface{} `json:"data,omitempty"`
}
