package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcade-profiles/internal/domain"
)

// GetPlatformProfile returns the platform profile, persisting first-time seeding
// and any levels recovered from the ledger.
func (s *ArcadeService) GetPlatformProfile(ctx context.Context, ref string) (*domain.PlatformProfile, error) {
	var view domain.PlatformProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		before := p.GameStats[domain.GamePlatform].Clone()
		view = s.engine.PlatformProfile(ctx, p)
		return statsChanged(before, p.GameStats[domain.GamePlatform]), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdatePlatformProfile applies a partial profile write
func (s *ArcadeService) UpdatePlatformProfile(ctx context.Context, ref string, update domain.PlatformProfileUpdate) (*domain.PlatformProfile, error) {
	var view domain.PlatformProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		view = s.engine.UpdatePlatformProfile(p, update)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UnlockLevel unlocks a platform level
func (s *ArcadeService) UnlockLevel(ctx context.Context, ref string, level int) (*domain.PlatformProfile, error) {
	if level < 1 {
		return nil, fmt.Errorf("level %d: %w", level, domain.ErrInvalidRequest)
	}

	var view domain.PlatformProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		before := p.GameStats[domain.GamePlatform].Clone()
		view = s.engine.UnlockLevel(p, level)
		return statsChanged(before, p.GameStats[domain.GamePlatform]), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// PurchaseSkin buys a cosmetic. Only a successful purchase is saved.
func (s *ArcadeService) PurchaseSkin(ctx context.Context, ref string, req domain.PurchaseRequest) (*domain.PurchaseResult, error) {
	return s.purchase(ctx, ref, req, s.engine.PurchaseSkin)
}

// PurchaseAbility buys an ability. Only a successful purchase is saved.
func (s *ArcadeService) PurchaseAbility(ctx context.Context, ref string, req domain.PurchaseRequest) (*domain.PurchaseResult, error) {
	return s.purchase(ctx, ref, req, s.engine.PurchaseAbility)
}

type purchaseFunc func(player *domain.Player, itemID string, cost int64) domain.PurchaseResult

func (s *ArcadeService) purchase(ctx context.Context, ref string, req domain.PurchaseRequest, buy purchaseFunc) (*domain.PurchaseResult, error) {
	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" || req.Cost < 0 {
		return nil, domain.ErrInvalidRequest
	}

	var result domain.PurchaseResult
	player, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		result = buy(p, itemID, req.Cost)
		return result.Success, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase",
		"player_id", player.ID,
		"item_id", itemID,
		"cost", req.Cost,
		"success", result.Success,
		"reason", result.Reason,
	)
	return &result, nil
}

// EquipSkin equips an owned cosmetic
func (s *ArcadeService) EquipSkin(ctx context.Context, ref, itemID string) (*domain.PlatformProfile, error) {
	var view domain.PlatformProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		var err error
		view, err = s.engine.EquipSkin(p, strings.TrimSpace(itemID))
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// SyncLevels reconciles unlocked levels against the ledger. A ledger failure is
// logged and the stored profile returned unchanged.
func (s *ArcadeService) SyncLevels(ctx context.Context, ref string) (*domain.PlatformProfile, error) {
	var view domain.PlatformProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		before := p.GameStats[domain.GamePlatform].Clone()
		if _, err := s.engine.SyncUnlockedLevels(ctx, p); err != nil {
			s.logger.Warn("failed to sync unlocked levels", "player_id", p.ID, "error", err)
		}
		view = s.engine.CurrentPlatformProfile(p)
		return statsChanged(before, p.GameStats[domain.GamePlatform]), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// CompleteLevel records a finished platform level and awards its coins
func (s *ArcadeService) CompleteLevel(ctx context.Context, ref string, completion domain.LevelCompletion) (*domain.LevelResult, error) {
	player, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	record := domain.ScoreRecord{
		PlayerID:  player.ID,
		GameName:  domain.GamePlatform,
		Score:     completion.Score,
		Level:     max(completion.Level, 1),
		Duration:  max(completion.PlayTime, 0),
		CreatedAt: s.now(),
	}
	if err := s.ledger.AppendScore(ctx, &record); err != nil {
		return nil, fmt.Errorf("appending score: %w", err)
	}

	var result domain.LevelResult
	player, err = s.mutatePlayer(ctx, player.ID, func(p *domain.Player) (bool, error) {
		result.CoinsEarned, result.Profile = s.engine.CompleteLevel(p, completion)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	result.Record = record

	s.logger.Info("level completed",
		"player_id", player.ID,
		"level", record.Level,
		"coins_earned", result.CoinsEarned,
	)

	s.publish(ctx, player, record)
	return &result, nil
}

// GetShooterProfile returns the shooter profile, persisting first-time seeding
func (s *ArcadeService) GetShooterProfile(ctx context.Context, ref string) (*domain.ShooterProfile, error) {
	var view domain.ShooterProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		before := p.GameStats[domain.GameShooter].Clone()
		view = s.engine.ShooterProfile(p)
		return statsChanged(before, p.GameStats[domain.GameShooter]), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateShooterProfile applies a partial shooter profile write
func (s *ArcadeService) UpdateShooterProfile(ctx context.Context, ref string, update domain.ShooterProfileUpdate) (*domain.ShooterProfile, error) {
	var view domain.ShooterProfile
	_, err := s.mutatePlayer(ctx, ref, func(p *domain.Player) (bool, error) {
		view = s.engine.UpdateShooterProfile(p, update)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
