package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/domain"
)

// Rankings keeps a realtime sorted set of each player's best result per game
type Rankings struct {
	client        *redis.Client
	playerInfoTTL time.Duration
	logger        *slog.Logger
}

// NewRankings creates a new Redis rankings service
func NewRankings(cfg *config.RedisConfig, logger *slog.Logger) (*Rankings, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Rankings{
		client:        client,
		playerInfoTTL: cfg.PlayerInfoTTL,
		logger:        logger,
	}, nil
}

// Close closes the Redis connection
func (s *Rankings) Close() error {
	return s.client.Close()
}

// Ping checks that Redis is reachable
func (s *Rankings) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// rankingKey returns the Redis key for a game's sorted set
func rankingKey(gameName string) string {
	return fmt.Sprintf("arcade:%s:ranking", gameName)
}

// playerInfoKey returns the Redis key for player info cache
func playerInfoKey(playerID string) string {
	return fmt.Sprintf("arcade:player:%s:info", playerID)
}

// RecordBest stores a player's rank value unless a better one is already held.
// It reports whether the ranking changed.
func (s *Rankings) RecordBest(ctx context.Context, gameName, playerID string, value float64) (bool, error) {
	changed, err := s.client.ZAddArgs(ctx, rankingKey(gameName), redis.ZAddArgs{
		GT: true,
		Ch: true,
		Members: []redis.Z{{
			Score:  value,
			Member: playerID,
		}},
	}).Result()
	if err != nil {
		return false, fmt.Errorf("recording best: %w", err)
	}
	return changed > 0, nil
}

// GetTopN returns the top N players of a game with cached names
func (s *Rankings) GetTopN(ctx context.Context, gameName string, n int) ([]domain.RankEntry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, rankingKey(gameName), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := toEntries(gameName, results)
	s.attachNames(ctx, entries)
	return entries, nil
}

// GetPlayerRank returns a player's position in a game
func (s *Rankings) GetPlayerRank(ctx context.Context, gameName, playerID string) (*domain.RankEntry, error) {
	key := rankingKey(gameName)

	// Use pipeline to get both rank and score
	pipe := s.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, playerID)
	scoreCmd := pipe.ZScore(ctx, key, playerID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("getting rank result: %w", err)
	}
	value, err := scoreCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("getting score result: %w", err)
	}

	level, score := domain.SplitRankValue(gameName, value)
	entry := &domain.RankEntry{
		Rank:     rank + 1, // Convert 0-indexed to 1-indexed
		PlayerID: playerID,
		Score:    score,
		Level:    level,
	}
	if info, err := s.GetPlayerInfo(ctx, playerID); err == nil {
		entry.Name = info.Name
	}
	return entry, nil
}

// ReplaceRanking swaps a game's ranking for the given values in one step
func (s *Rankings) ReplaceRanking(ctx context.Context, gameName string, values map[string]float64) error {
	key := rankingKey(gameName)
	if len(values) == 0 {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("clearing ranking: %w", err)
		}
		return nil
	}

	staging := key + ":rebuild"
	members := make([]redis.Z, 0, len(values))
	for playerID, value := range values {
		members = append(members, redis.Z{Score: value, Member: playerID})
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, staging)
	pipe.ZAdd(ctx, staging, members...)
	pipe.Rename(ctx, staging, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replacing ranking: %w", err)
	}
	return nil
}

// SetPlayerInfo caches player information
func (s *Rankings) SetPlayerInfo(ctx context.Context, info *domain.PlayerInfo) error {
	key := playerInfoKey(info.ID)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "name", info.Name, "badge_id", info.BadgeID)
	if s.playerInfoTTL > 0 {
		pipe.Expire(ctx, key, s.playerInfoTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("setting player info: %w", err)
	}
	return nil
}

// GetPlayerInfo retrieves cached player information
func (s *Rankings) GetPlayerInfo(ctx context.Context, playerID string) (*domain.PlayerInfo, error) {
	result, err := s.client.HGetAll(ctx, playerInfoKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting player info: %w", err)
	}

	if len(result) == 0 {
		return nil, domain.ErrPlayerNotFound
	}

	return &domain.PlayerInfo{
		ID:      playerID,
		Name:    result["name"],
		BadgeID: result["badge_id"],
	}, nil
}

// attachNames fills in cached player names; misses are left blank
func (s *Rankings) attachNames(ctx context.Context, entries []domain.RankEntry) {
	if len(entries) == 0 {
		return
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(entries))
	for i, entry := range entries {
		cmds[i] = pipe.HGetAll(ctx, playerInfoKey(entry.PlayerID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("failed to load player names", "error", err)
		return
	}

	for i, cmd := range cmds {
		entries[i].Name = cmd.Val()["name"]
	}
}

// toEntries converts sorted set members, best first, into ranked entries
func toEntries(gameName string, results []redis.Z) []domain.RankEntry {
	entries := make([]domain.RankEntry, len(results))
	for i, result := range results {
		level, score := domain.SplitRankValue(gameName, result.Score)
		member, _ := result.Member.(string)
		entries[i] = domain.RankEntry{
			Rank:     int64(i + 1),
			PlayerID: member,
			Score:    score,
			Level:    level,
		}
	}
	return entries
}
