package profile

import (
	"github.com/arcade-profiles/internal/domain"
)

// Custom stat keys that are accumulated instead of overwritten.
const (
	keyAsteroidsDestroyed = "asteroidsDestroyed"
	keyPowerUpsCollected  = "powerUpsCollected"
	keyAccuracy           = "accuracy"
	keySurvivalTime       = "survivalTime"
	keyShipUsed           = "shipUsed"

	keyGearsCollected  = "totalGearsCollected"
	keyEnemiesDefeated = "totalEnemiesDefeated"
	keyDeaths          = "totalDeaths"
	keyPlayTime        = "totalPlayTime"
)

// GetOrInitStats returns the player's entry for the game, creating it when absent.
//
// A created entry is stored in player.GameStats before it is returned, and starter
// content for the known games is granted only while the entry is not yet Seeded, so
// repeated calls never grant it twice. Entries written by older versions are
// back-filled with the fields they lack without touching values already present.
func (e *Engine) GetOrInitStats(player *domain.Player, gameName string) *domain.GameStats {
	stats, _ := e.getOrInit(player, gameName)
	return stats
}

func (e *Engine) getOrInit(player *domain.Player, gameName string) (*domain.GameStats, bool) {
	if player.GameStats == nil {
		player.GameStats = make(map[string]*domain.GameStats)
	}

	stats, ok := player.GameStats[gameName]
	created := !ok || stats == nil
	if created {
		stats = &domain.GameStats{
			LastPlayed:  e.now(),
			BestLevel:   1,
			CustomStats: make(map[string]any),
		}
		player.GameStats[gameName] = stats
	}
	if stats.CustomStats == nil {
		stats.CustomStats = make(map[string]any)
	}
	if stats.BestLevel < 1 {
		stats.BestLevel = 1
	}

	switch gameName {
	case domain.GamePlatform:
		e.preparePlatform(stats)
	case domain.GameShooter:
		e.prepareShooter(stats)
	default:
		stats.Seeded = true
	}

	return stats, created
}

// needsSeed reports whether starter content is still owed. Entries saved before the
// Seeded flag existed are only seeded when they show no activity at all.
func needsSeed(stats *domain.GameStats) bool {
	return !stats.Seeded && stats.GamesPlayed == 0 && stats.Coins == 0
}

// UpdateStats merges one session result into the player's entry for the game.
func (e *Engine) UpdateStats(player *domain.Player, gameName string, result domain.SessionResult) *domain.GameStats {
	stats := e.GetOrInitStats(player, gameName)

	stats.Highscore = max(stats.Highscore, result.Score)
	stats.Coins = max(domain.SaturatingAdd(stats.Coins, result.CoinsEarned), 0)
	stats.GamesPlayed++
	stats.LastPlayed = e.now()
	stats.BestLevel = max(stats.BestLevel, max(result.Level, 1))
	stats.BestLines = max(stats.BestLines, result.Lines)

	for key, value := range result.CustomStats {
		if e.accumulate(gameName, stats, key, value) {
			continue
		}
		stats.CustomStats[key] = value
	}

	return stats
}

// RecordSession applies a session to both the game entry and the player's totals.
func (e *Engine) RecordSession(player *domain.Player, gameName string, result domain.SessionResult) *domain.GameStats {
	stats := e.UpdateStats(player, gameName, result)
	player.TotalScore = domain.SaturatingAdd(player.TotalScore, max(result.Score, 0))
	player.GamesPlayed++
	player.LastPlayed = e.now()
	return stats
}

// accumulate folds a recognised cumulative counter into the typed game state.
// It reports false for keys that should be stored as-is.
func (e *Engine) accumulate(gameName string, stats *domain.GameStats, key string, value any) bool {
	switch gameName {
	case domain.GameShooter:
		s := stats.Shooter
		switch key {
		case keyAsteroidsDestroyed:
			s.TotalAsteroidsDestroyed = domain.SaturatingAdd(s.TotalAsteroidsDestroyed, counter(value))
		case keyPowerUpsCollected:
			s.TotalPowerUpsCollected = domain.SaturatingAdd(s.TotalPowerUpsCollected, counter(value))
		case keyAccuracy:
			s.BestAccuracy = max(s.BestAccuracy, domain.CoerceFloat(value))
		case keySurvivalTime:
			s.TotalSurvivalTime += max(domain.CoerceFloat(value), 0)
			s.AverageSurvivalTime = s.TotalSurvivalTime / float64(max(stats.GamesPlayed, 1))
		case keyShipUsed:
			if ship, ok := domain.CoerceString(value); ok {
				s.FavoriteShip = ship
			}
		default:
			return false
		}
		return true

	case domain.GamePlatform:
		s := stats.Platform
		switch key {
		case keyGearsCollected:
			s.TotalGearsCollected = domain.SaturatingAdd(s.TotalGearsCollected, counter(value))
		case keyEnemiesDefeated:
			s.TotalEnemiesDefeated = domain.SaturatingAdd(s.TotalEnemiesDefeated, counter(value))
		case keyDeaths:
			s.TotalDeaths = domain.SaturatingAdd(s.TotalDeaths, counter(value))
		case keyPlayTime:
			s.TotalPlayTime = domain.SaturatingAdd(s.TotalPlayTime, counter(value))
		default:
			return false
		}
		return true
	}

	return false
}

// counter coerces a per-session delta; running totals never go down.
func counter(v any) int64 {
	return max(domain.CoerceInt(v), 0)
}
