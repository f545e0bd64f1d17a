package cache

import (
	"context"
	"fmt"

	"wordrush/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	hallKey      = "halloffame"
	hallNamesKey = "halloffame:names"
)

// LeaderboardCache keeps the all-time best final score of every player in a Redis ZSET
type LeaderboardCache interface {
	Record(ctx context.Context, players []model.ResultPlayer) error
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

type leaderboardCache struct {
	client redis.Cmdable
	prefix string
}

// NewLeaderboardCache creates a new leaderboard cache. prefix namespaces the keys.
func NewLeaderboardCache(client redis.Cmdable, prefix string) LeaderboardCache {
	return &leaderboardCache{
		client: client,
		prefix: prefix,
	}
}

func (c *leaderboardCache) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

// Record keeps each player's score if it beats their previous best
func (c *leaderboardCache) Record(ctx context.Context, players []model.ResultPlayer) error {
	if len(players) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range players {
			pipe.ZAddGT(ctx, c.key(hallKey), redis.Z{Score: p.Score, Member: p.ID})
			pipe.HSet(ctx, c.key(hallNamesKey), p.ID, p.Name)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record hall of fame: %w", err)
	}
	return nil
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(hallKey), 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return []LeaderboardEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []LeaderboardEntry{}, nil
	}

	ids := make([]string, len(results))
	for i, z := range results {
		ids[i], _ = z.Member.(string)
	}
	names, err := c.client.HMGet(ctx, c.key(hallNamesKey), ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			PlayerID: ids[i],
			Score:    z.Score,
			Rank:     i + 1,
		}
		if name, ok := names[i].(string); ok {
			entries[i].Name = name
		}
	}
	return entries, nil
}
