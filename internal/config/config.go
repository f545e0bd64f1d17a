package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const devSecret = "wordrush-dev-secret-change-me"

// Config holds process-level settings read from the environment
type Config struct {
	HTTPPort       string
	LogLevel       string
	LogPretty      bool
	AllowedOrigins []string
	JWTSecret      string

	// Optional reporting sinks; empty disables the sink
	MongoURI     string
	MongoDB      string
	RedisURI     string
	KafkaBrokers []string
	KafkaTopic   string

	MessageRate  float64
	MessageBurst int

	Game GameConfig
}

// Load reads the configuration from the environment
func Load() *Config {
	cfg := &Config{
		HTTPPort:       getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvBool("LOG_PRETTY", true),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDB:        getEnv("MONGO_DB", "wordrush"),
		RedisURI:       getEnv("REDIS_URI", ""),
		KafkaBrokers:   getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "room-events"),
		MessageRate:    getEnvFloat("MESSAGE_RATE", 10),
		MessageBurst:   getEnvInt("MESSAGE_BURST", 20),
		Game:           LoadGame(),
	}
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devSecret
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid integer, using default")
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid number, using default")
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid boolean, using default")
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Warn().Str("key", key).Str("value", val).Msg("invalid duration, using default")
		return defaultVal
	}
	return d
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
