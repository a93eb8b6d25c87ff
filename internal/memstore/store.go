// Package memstore keeps players and the score ledger in process memory. It
// follows the same contracts as the PostgreSQL repository and is used for
// local runs and tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/arcade-profiles/internal/domain"
)

// Store is an in-memory player store and score ledger
type Store struct {
	mu      sync.RWMutex
	players map[string]*domain.Player
	badges  map[string]string
	scores  []domain.ScoreRecord
	nextID  int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		players: make(map[string]*domain.Player),
		badges:  make(map[string]string),
	}
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error {
	return nil
}

// CreatePlayer stores a new player. A taken badge yields domain.ErrBadgeRegistered.
func (s *Store) CreatePlayer(_ context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.badges[player.BadgeID]; ok {
		return domain.ErrBadgeRegistered
	}
	if player.Version == 0 {
		player.Version = 1
	}
	s.players[player.ID] = player.Clone()
	s.badges[player.BadgeID] = player.ID
	return nil
}

// GetPlayerByID returns a copy of the player with the given id
func (s *Store) GetPlayerByID(_ context.Context, id string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

// GetPlayerByBadge returns a copy of the player holding the badge
func (s *Store) GetPlayerByBadge(ctx context.Context, badgeID string) (*domain.Player, error) {
	s.mu.RLock()
	id, ok := s.badges[badgeID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return s.GetPlayerByID(ctx, id)
}

// UpdatePlayer replaces the stored player if its version still matches
func (s *Store) UpdatePlayer(_ context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.players[player.ID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if current.Version != player.Version {
		return domain.ErrVersionConflict
	}

	player.Version++
	player.UpdatedAt = time.Now()
	s.players[player.ID] = player.Clone()
	return nil
}

// ListPlayers returns players ordered by total score
func (s *Store) ListPlayers(_ context.Context, limit, offset int) ([]*domain.Player, error) {
	s.mu.RLock()
	players := make([]*domain.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(players, func(a, b *domain.Player) int {
		return cmp.Or(
			cmp.Compare(b.TotalScore, a.TotalScore),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return page(players, limit, offset), nil
}

// ShooterLeaderboard ranks players with a positive shooter highscore by a category
func (s *Store) ShooterLeaderboard(_ context.Context, category string, limit int) ([]domain.ShooterLeaderboardEntry, error) {
	s.mu.RLock()
	var entries []domain.ShooterLeaderboardEntry
	for _, p := range s.players {
		stats, ok := p.GameStats[domain.GameShooter]
		if !ok || stats == nil || stats.Highscore <= 0 {
			continue
		}
		entry := domain.ShooterLeaderboardEntry{
			PlayerID:    p.ID,
			Name:        p.Name,
			BadgeID:     p.BadgeID,
			Score:       stats.Highscore,
			GamesPlayed: stats.GamesPlayed,
		}
		if stats.Shooter != nil {
			entry.Accuracy = stats.Shooter.BestAccuracy
			entry.SurvivalTime = stats.Shooter.AverageSurvivalTime
		}
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b domain.ShooterLeaderboardEntry) int {
		var c int
		switch category {
		case domain.ShooterCategoryAccuracy:
			c = cmp.Compare(b.Accuracy, a.Accuracy)
		case domain.ShooterCategorySurvival:
			c = cmp.Compare(b.SurvivalTime, a.SurvivalTime)
		}
		return cmp.Or(c, cmp.Compare(b.Score, a.Score), cmp.Compare(a.PlayerID, b.PlayerID))
	})
	return page(entries, limit, 0), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
