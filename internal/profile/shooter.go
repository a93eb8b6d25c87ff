package profile

import (
	"math"
	"slices"

	"github.com/arcade-profiles/internal/domain"
)

func (e *Engine) prepareShooter(stats *domain.GameStats) {
	ship := e.config.ShooterStarterShip

	if needsSeed(stats) {
		stats.Coins = e.config.ShooterStarterCoins
		stats.Shooter = &domain.ShooterState{
			OwnedShips:    []string{ship},
			OwnedUpgrades: []string{},
			EquippedShip:  ship,
		}
	}
	stats.Seeded = true

	if stats.Shooter == nil {
		stats.Shooter = &domain.ShooterState{}
	}
	s := stats.Shooter
	if s.OwnedShips == nil {
		s.OwnedShips = []string{ship}
	}
	if s.OwnedUpgrades == nil {
		s.OwnedUpgrades = []string{}
	}
	if s.EquippedShip == "" {
		s.EquippedShip = ship
		if len(s.OwnedShips) > 0 {
			s.EquippedShip = s.OwnedShips[0]
		}
	}
}

// ShooterProfile derives the shooter view of a player.
func (e *Engine) ShooterProfile(player *domain.Player) domain.ShooterProfile {
	stats := e.GetOrInitStats(player, domain.GameShooter)
	return e.shooterView(player, stats)
}

// UpdateShooterProfile applies a partial write to the shooter state.
func (e *Engine) UpdateShooterProfile(player *domain.Player, update domain.ShooterProfileUpdate) domain.ShooterProfile {
	stats := e.GetOrInitStats(player, domain.GameShooter)
	s := stats.Shooter

	if update.Coins != nil {
		stats.Coins = max(*update.Coins, 0)
	}
	if update.TotalAsteroidsDestroyed != nil {
		s.TotalAsteroidsDestroyed = *update.TotalAsteroidsDestroyed
	}
	if update.TotalPowerUpsCollected != nil {
		s.TotalPowerUpsCollected = *update.TotalPowerUpsCollected
	}
	if update.BestAccuracy != nil {
		s.BestAccuracy = *update.BestAccuracy
	}
	if update.TotalSurvivalTime != nil {
		s.TotalSurvivalTime = *update.TotalSurvivalTime
	}
	if update.AverageSurvivalTime != nil {
		s.AverageSurvivalTime = *update.AverageSurvivalTime
	}
	if update.OwnedShips != nil {
		s.OwnedShips = slices.Clone(update.OwnedShips)
	}
	if update.OwnedUpgrades != nil {
		s.OwnedUpgrades = slices.Clone(update.OwnedUpgrades)
	}
	if update.EquippedShip != nil {
		s.EquippedShip = *update.EquippedShip
	}
	if update.FavoriteShip != nil {
		s.FavoriteShip = *update.FavoriteShip
	}

	return e.shooterView(player, stats)
}

func (e *Engine) shooterView(player *domain.Player, stats *domain.GameStats) domain.ShooterProfile {
	s := stats.Shooter

	var average int64
	if stats.GamesPlayed > 0 {
		average = int64(math.Round(float64(stats.Highscore) / float64(stats.GamesPlayed)))
	}

	return domain.ShooterProfile{
		PlayerID:                player.ID,
		Coins:                   stats.Coins,
		BestScore:               stats.Highscore,
		GamesPlayed:             stats.GamesPlayed,
		AverageScore:            average,
		TotalAsteroidsDestroyed: s.TotalAsteroidsDestroyed,
		TotalPowerUpsCollected:  s.TotalPowerUpsCollected,
		BestAccuracy:            s.BestAccuracy,
		TotalSurvivalTime:       s.TotalSurvivalTime,
		AverageSurvivalTime:     s.AverageSurvivalTime,
		OwnedShips:              slices.Clone(s.OwnedShips),
		OwnedUpgrades:           slices.Clone(s.OwnedUpgrades),
		EquippedShip:            s.EquippedShip,
		FavoriteShip:            s.FavoriteShip,
	}
}
