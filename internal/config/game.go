package config

import (
	"time"

	"wordrush/internal/model"
)

// Settings bounds applied by Clamp
const (
	MinRushSeconds     = 5
	MinRoundSeconds    = 15
	MaxRoundSeconds    = 600
	MaxScoringTimeout  = 600
	DefaultCodeLength  = 4
	DefaultMaxPlayers  = 5
	DefaultMinPlayers  = 2
	DefaultRoundTotal  = 3
	DefaultCategories  = 5
	DefaultRoundSecs   = 60
	DefaultRushSecs    = 5
	DefaultScoringSecs = 60
)

// GameConfig holds the rules shared by every room
type GameConfig struct {
	MaxPlayers         int
	MinPlayers         int
	RoundTotal         int
	CategoriesPerRound int

	// Rounding is the collapse policy used when precise scoring is off
	Rounding string
	Defaults model.Settings

	RoomIdleGrace  time.Duration
	SweepInterval  time.Duration
	RoomCodeLength int
}

// DefaultGame returns the built-in rules
func DefaultGame() GameConfig {
	return GameConfig{
		MaxPlayers:         DefaultMaxPlayers,
		MinPlayers:         DefaultMinPlayers,
		RoundTotal:         DefaultRoundTotal,
		CategoriesPerRound: DefaultCategories,
		Rounding:           "nearest",
		Defaults: model.Settings{
			RushSeconds:           DefaultRushSecs,
			ScoringTimeoutSeconds: DefaultScoringSecs,
			RoundDurationSeconds:  DefaultRoundSecs,
		},
		RoomIdleGrace:  5 * time.Minute,
		SweepInterval:  30 * time.Second,
		RoomCodeLength: DefaultCodeLength,
	}
}

// LoadGame reads the game rules from the environment
func LoadGame() GameConfig {
	g := DefaultGame()
	g.MaxPlayers = getEnvInt("MAX_PLAYERS", g.MaxPlayers)
	g.MinPlayers = getEnvInt("MIN_PLAYERS", g.MinPlayers)
	g.RoundTotal = getEnvInt("ROUND_TOTAL", g.RoundTotal)
	g.CategoriesPerRound = getEnvInt("CATEGORIES_PER_ROUND", g.CategoriesPerRound)
	g.Rounding = getEnv("SCORING_ROUNDING", g.Rounding)
	g.Defaults.RoundDurationSeconds = getEnvInt("ROUND_DURATION_SECONDS", g.Defaults.RoundDurationSeconds)
	g.Defaults.RushSeconds = getEnvInt("RUSH_SECONDS", g.Defaults.RushSeconds)
	g.Defaults.ScoringTimeoutSeconds = getEnvInt("SCORING_TIMEOUT_SECONDS", g.Defaults.ScoringTimeoutSeconds)
	g.Defaults.PreciseScoring = getEnvBool("PRECISE_SCORING", g.Defaults.PreciseScoring)
	g.RoomIdleGrace = getEnvDuration("ROOM_IDLE_GRACE", g.RoomIdleGrace)
	g.SweepInterval = getEnvDuration("SWEEP_INTERVAL", g.SweepInterval)
	g.RoomCodeLength = getEnvInt("ROOM_CODE_LENGTH", g.RoomCodeLength)
	return g.normalize()
}

func (g GameConfig) normalize() GameConfig {
	if g.MaxPlayers < 2 {
		g.MaxPlayers = DefaultMaxPlayers
	}
	if g.MinPlayers < 1 || g.MinPlayers > g.MaxPlayers {
		g.MinPlayers = DefaultMinPlayers
	}
	if g.RoundTotal < 1 {
		g.RoundTotal = DefaultRoundTotal
	}
	if g.CategoriesPerRound < 1 {
		g.CategoriesPerRound = DefaultCategories
	}
	if g.RoomCodeLength < 4 {
		g.RoomCodeLength = DefaultCodeLength
	}
	if g.SweepInterval <= 0 {
		g.SweepInterval = 30 * time.Second
	}
	g.Defaults = Clamp(g.Defaults)
	return g
}

// Clamp forces settings into their allowed ranges
func Clamp(s model.Settings) model.Settings {
	s.RoundDurationSeconds = clampInt(s.RoundDurationSeconds, MinRoundSeconds, MaxRoundSeconds)
	s.RushSeconds = clampInt(s.RushSeconds, MinRushSeconds, s.RoundDurationSeconds)
	s.ScoringTimeoutSeconds = clampInt(s.ScoringTimeoutSeconds, 0, MaxScoringTimeout)
	return s
}

// Apply merges an update into s and clamps the result
func Apply(s model.Settings, u model.SettingsUpdate) model.Settings {
	if u.RoundDurationSeconds != nil {
		s.RoundDurationSeconds = *u.RoundDurationSeconds
	}
	if u.RushSeconds != nil {
		s.RushSeconds = *u.RushSeconds
	}
	if u.ScoringTimeoutSeconds != nil {
		s.ScoringTimeoutSeconds = *u.ScoringTimeoutSeconds
	}
	if u.PreciseScoring != nil {
		s.PreciseScoring = *u.PreciseScoring
	}
	return Clamp(s)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
