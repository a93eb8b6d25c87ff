package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arcade-profiles/internal/domain"
)

// LoginOrPrompt logs a badge in. An unknown badge is not an error: the result
// asks the caller to register it.
func (s *ArcadeService) LoginOrPrompt(ctx context.Context, badgeID string) (*domain.LoginResult, error) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return nil, domain.ErrInvalidRequest
	}

	if _, err := s.players.GetPlayerByBadge(ctx, badgeID); err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			return &domain.LoginResult{RegistrationRequired: true, BadgeID: badgeID}, nil
		}
		return nil, fmt.Errorf("getting player by badge: %w", err)
	}

	player, err := s.mutatePlayer(ctx, badgeID, func(p *domain.Player) (bool, error) {
		p.LastPlayed = s.now()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("badge login", "player_id", player.ID)
	return &domain.LoginResult{Player: player, BadgeID: badgeID}, nil
}

// Register creates a player for a new badge
func (s *ArcadeService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Player, error) {
	badgeID := strings.TrimSpace(req.BadgeID)
	name := strings.TrimSpace(req.Name)
	if badgeID == "" || name == "" {
		return nil, domain.ErrInvalidRequest
	}

	now := s.now()
	player := &domain.Player{
		ID:         uuid.New().String(),
		BadgeID:    badgeID,
		Name:       name,
		LastPlayed: now,
		GameStats:  make(map[string]*domain.GameStats),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.players.CreatePlayer(ctx, player); err != nil {
		if errors.Is(err, domain.ErrBadgeRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("creating player: %w", err)
	}

	s.cachePlayerInfo(ctx, player)
	s.logger.Info("player registered", "player_id", player.ID, "badge_id", badgeID)
	return player, nil
}

// GetPlayer returns a player by badge credential or id
func (s *ArcadeService) GetPlayer(ctx context.Context, ref string) (*domain.Player, error) {
	return s.resolve(ctx, ref)
}

// ListPlayers returns players ordered by total score
func (s *ArcadeService) ListPlayers(ctx context.Context, limit, offset int) ([]*domain.Player, error) {
	if offset < 0 {
		offset = 0
	}
	players, err := s.players.ListPlayers(ctx, s.clampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	return players, nil
}
