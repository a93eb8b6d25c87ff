package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/domain"
	"github.com/arcade-profiles/internal/profile"
)

// PlayerStore persists player documents
type PlayerStore interface {
	CreatePlayer(ctx context.Context, player *domain.Player) error
	GetPlayerByID(ctx context.Context, id string) (*domain.Player, error)
	GetPlayerByBadge(ctx context.Context, badgeID string) (*domain.Player, error)
	// UpdatePlayer fails with domain.ErrVersionConflict when the stored version moved on.
	UpdatePlayer(ctx context.Context, player *domain.Player) error
	ListPlayers(ctx context.Context, limit, offset int) ([]*domain.Player, error)
	ShooterLeaderboard(ctx context.Context, category string, limit int) ([]domain.ShooterLeaderboardEntry, error)
}

// Ledger is the append-only score history
type Ledger interface {
	profile.LevelLedger
	AppendScore(ctx context.Context, record *domain.ScoreRecord) error
	PlayerScores(ctx context.Context, playerID, gameName string, limit int) ([]domain.ScoreRecord, error)
	RecentScores(ctx context.Context, playerID, gameName string, limit int) ([]domain.ScoreRecord, error)
	Highscores(ctx context.Context, gameName string, limit int) ([]domain.HighscoreEntry, error)
	TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error)
	BestRankValues(ctx context.Context, gameName string) (map[string]float64, error)
	ListGames(ctx context.Context) ([]string, error)
}

// Rankings is the realtime ranking cache
type Rankings interface {
	RecordBest(ctx context.Context, gameName, playerID string, value float64) (bool, error)
	GetTopN(ctx context.Context, gameName string, n int) ([]domain.RankEntry, error)
	GetPlayerRank(ctx context.Context, gameName, playerID string) (*domain.RankEntry, error)
	SetPlayerInfo(ctx context.Context, info *domain.PlayerInfo) error
}

// Broadcaster pushes leaderboard changes to subscribed clients
type Broadcaster interface {
	BroadcastHighscores(gameName string, entries []domain.RankEntry)
	BroadcastPlayerUpdate(gameName string, entry *domain.RankEntry)
}

// Option configures optional collaborators of the ArcadeService
type Option func(*ArcadeService)

// WithRankings enables the realtime ranking cache
func WithRankings(r Rankings) Option {
	return func(s *ArcadeService) { s.rankings = r }
}

// WithBroadcaster enables live leaderboard pushes
func WithBroadcaster(b Broadcaster) Option {
	return func(s *ArcadeService) { s.hub = b }
}

// ArcadeService provides business logic for players, scores and profiles
type ArcadeService struct {
	players     PlayerStore
	ledger      Ledger
	engine      *profile.Engine
	rankings    Rankings
	hub         Broadcaster
	leaderboard *config.LeaderboardConfig
	profiles    *config.ProfilesConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewArcadeService creates a new arcade service
func NewArcadeService(
	players PlayerStore,
	ledger Ledger,
	engine *profile.Engine,
	leaderboardCfg *config.LeaderboardConfig,
	profilesCfg *config.ProfilesConfig,
	logger *slog.Logger,
	opts ...Option,
) *ArcadeService {
	s := &ArcadeService{
		players:     players,
		ledger:      ledger,
		engine:      engine,
		leaderboard: leaderboardCfg,
		profiles:    profilesCfg,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve finds a player by badge credential, falling back to the player id
func (s *ArcadeService) resolve(ctx context.Context, ref string) (*domain.Player, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrInvalidRequest
	}

	player, err := s.players.GetPlayerByBadge(ctx, ref)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, fmt.Errorf("getting player by badge: %w", err)
	}

	player, err = s.players.GetPlayerByID(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting player by id: %w", err)
	}
	return player, nil
}

// mutateFunc changes a freshly loaded player and reports whether it must be saved.
// It may run more than once and must not have side effects outside the player.
type mutateFunc func(player *domain.Player) (bool, error)

// mutatePlayer loads the player, applies fn and saves it, re-running fn on a
// fresh copy when a concurrent write wins the race.
func (s *ArcadeService) mutatePlayer(ctx context.Context, ref string, fn mutateFunc) (*domain.Player, error) {
	for attempt := 0; ; attempt++ {
		player, err := s.resolve(ctx, ref)
		if err != nil {
			return nil, err
		}

		write, err := fn(player)
		if err != nil {
			return nil, err
		}
		if !write {
			return player, nil
		}

		err = s.players.UpdatePlayer(ctx, player)
		if err == nil {
			return player, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= s.profiles.WriteRetries {
			return nil, fmt.Errorf("saving player: %w", err)
		}

		s.logger.Debug("retrying player write after concurrent update",
			"player_id", player.ID,
			"attempt", attempt+1,
		)
	}
}

// statsChanged reports whether a game entry differs from a snapshot taken before a read
func statsChanged(before, after *domain.GameStats) bool {
	return !reflect.DeepEqual(before, after)
}

// publish updates the ranking cache and notifies subscribers. Failures are logged.
func (s *ArcadeService) publish(ctx context.Context, player *domain.Player, record domain.ScoreRecord) {
	if s.rankings != nil {
		value := domain.RankValue(record.GameName, record.Level, record.Score)
		if _, err := s.rankings.RecordBest(ctx, record.GameName, player.ID, value); err != nil {
			s.logger.Warn("failed to update ranking",
				"game", record.GameName,
				"player_id", player.ID,
				"error", err,
			)
		}
		s.cachePlayerInfo(ctx, player)
	}

	if s.hub == nil {
		return
	}

	top, err := s.topEntries(ctx, record.GameName, s.leaderboard.BroadcastLimit)
	if err != nil {
		s.logger.Warn("failed to load leaderboard for broadcast", "game", record.GameName, "error", err)
	} else {
		s.hub.BroadcastHighscores(record.GameName, top)
	}

	entry, err := s.GetPlayerRank(ctx, record.GameName, player.ID)
	if err != nil {
		s.logger.Warn("failed to load player rank for broadcast", "game", record.GameName, "error", err)
		return
	}
	s.hub.BroadcastPlayerUpdate(record.GameName, entry)
}

func (s *ArcadeService) cachePlayerInfo(ctx context.Context, player *domain.Player) {
	if s.rankings == nil {
		return
	}
	info := &domain.PlayerInfo{ID: player.ID, Name: player.Name, BadgeID: player.BadgeID}
	if err := s.rankings.SetPlayerInfo(ctx, info); err != nil {
		s.logger.Warn("failed to cache player info", "player_id", player.ID, "error", err)
	}
}

// clampLimit applies the configured default and maximum page size
func (s *ArcadeService) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.leaderboard.DefaultLimit
	}
	if limit > s.leaderboard.MaxLimit {
		limit = s.leaderboard.MaxLimit
	}
	return limit
}
