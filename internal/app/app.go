package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wordrush/internal/cache"
	"wordrush/internal/config"
	"wordrush/internal/content"
	"wordrush/internal/repository"
	"wordrush/internal/scoring"
	"wordrush/internal/service"
	"wordrush/internal/session"
	"wordrush/internal/stream"
	"wordrush/internal/transport/rest"
	"wordrush/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 5 * time.Second

// App is the wired server: rooms, sessions, the optional sinks and the HTTP handler
type App struct {
	Directory   *service.Directory
	Coordinator *service.Coordinator
	Recorder    *service.Recorder
	Hub         *ws.Hub
	Handler     http.Handler

	mongo *mongo.Client
	redis *redis.Client
}

// New connects the configured sinks and wires every component. A sink whose
// env var is empty stays disabled.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	var archive repository.ReportRepo
	if cfg.MongoURI != "" {
		db, err := a.connectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		archive = repository.NewReportRepo(db)
		log.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")
	}

	var hall cache.LeaderboardCache
	if cfg.RedisURI != "" {
		if err := a.connectRedis(ctx, cfg.RedisURI); err != nil {
			a.Close()
			return nil, err
		}
		hall = cache.NewLeaderboardCache(a.redis, "wordrush")
		log.Info().Msg("connected to Redis")
	}

	var events stream.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		events = stream.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing room events to Kafka")
	}

	policy, err := scoring.PolicyByName(cfg.Game.Rounding)
	if err != nil {
		log.Warn().Err(err).Str("rounding", cfg.Game.Rounding).Msg("unknown rounding policy, using nearest")
		policy = scoring.Nearest
	}

	a.Recorder = service.NewRecorder(archive, hall, events)
	a.Recorder.Start()

	sessions := session.NewRegistry()
	auth := service.NewAuthService(cfg.JWTSecret)
	a.Directory = service.NewDirectory(service.DirectoryOptions{
		Rules:       cfg.Game,
		Policy:      policy,
		Content:     content.DefaultDeck(),
		Broadcaster: service.NewSessionBroadcaster(sessions),
		Sink:        a.Recorder,
	})
	a.Coordinator = service.NewCoordinator(a.Directory, sessions, auth)
	a.Hub = ws.NewHub()

	a.Handler = rest.NewRouter(&rest.Container{
		Games:          a.Directory,
		Archive:        archive,
		Leaderboard:    hall,
		WSHandler:      ws.NewHandler(a.Hub, a.Coordinator, cfg.AllowedOrigins, cfg.MessageRate, cfg.MessageBurst),
		AllowedOrigins: cfg.AllowedOrigins,
	})
	return a, nil
}

func (a *App) connectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.mongo = client

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		log.Warn().Err(err).Msg("failed to create archive indexes")
	}
	return db, nil
}

func (a *App) connectRedis(ctx context.Context, uri string) error {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		// bare host:port
		opts = &redis.Options{Addr: strings.TrimPrefix(uri, "redis://")}
	}
	a.redis = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Run sweeps idle rooms until ctx is done
func (a *App) Run(ctx context.Context) {
	a.Directory.Run(ctx)
}

// Close hangs up every socket, stops the rooms, flushes the recorder and
// disconnects the sinks.
func (a *App) Close() {
	if a.Hub != nil {
		a.Hub.CloseAll("server shutting down")
	}
	if a.Directory != nil {
		a.Directory.Close()
	}
	if a.Recorder != nil {
		a.Recorder.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("closing Redis")
		}
		a.redis = nil
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := a.mongo.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("closing MongoDB")
		}
		a.mongo = nil
	}
}
