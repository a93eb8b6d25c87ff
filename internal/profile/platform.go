package profile

import (
	"context"
	"fmt"
	"slices"

	"github.com/arcade-profiles/internal/domain"
)

// Purchasable item kinds of the platform shop
type itemKind int

const (
	itemSkin itemKind = iota
	itemAbility
)

func (e *Engine) preparePlatform(stats *domain.GameStats) {
	skin := e.config.PlatformStarterSkin

	if needsSeed(stats) {
		stats.Coins = e.config.PlatformStarterCoins
		stats.Platform = &domain.PlatformState{
			HighestLevelReached: 1,
			UnlockedLevels:      []int{1},
			OwnedSkins:          []string{skin},
			EquippedSkin:        skin,
			OwnedAbilities:      []string{},
			FavoriteLevel:       1,
			Achievements:        []string{},
		}
	}
	stats.Seeded = true

	if stats.Platform == nil {
		stats.Platform = &domain.PlatformState{}
	}
	s := stats.Platform
	if s.HighestLevelReached < 1 {
		s.HighestLevelReached = 1
	}
	s.UnlockedLevels = sortedLevels(s.UnlockedLevels)
	if len(s.UnlockedLevels) == 0 {
		s.UnlockedLevels = []int{1}
	}
	if s.OwnedSkins == nil {
		s.OwnedSkins = []string{skin}
	}
	if s.EquippedSkin == "" {
		s.EquippedSkin = skin
		if len(s.OwnedSkins) > 0 {
			s.EquippedSkin = s.OwnedSkins[0]
		}
	}
	if s.OwnedAbilities == nil {
		s.OwnedAbilities = []string{}
	}
	if s.Achievements == nil {
		s.Achievements = []string{}
	}
	if s.FavoriteLevel < 1 {
		s.FavoriteLevel = 1
	}
}

// PlatformProfile derives the platform view of a player. Existing entries are first
// reconciled against the ledger; a ledger failure is logged and the stored view returned.
func (e *Engine) PlatformProfile(ctx context.Context, player *domain.Player) domain.PlatformProfile {
	stats, created := e.getOrInit(player, domain.GamePlatform)
	if !created {
		e.reconcile(ctx, player)
	}
	return e.platformView(player, stats)
}

// CurrentPlatformProfile derives the platform view without consulting the ledger.
func (e *Engine) CurrentPlatformProfile(player *domain.Player) domain.PlatformProfile {
	stats := e.GetOrInitStats(player, domain.GamePlatform)
	return e.platformView(player, stats)
}

// SyncUnlockedLevels widens the unlocked set to every level up to one past the
// highest level in the ledger. It reports whether the player was changed.
func (e *Engine) SyncUnlockedLevels(ctx context.Context, player *domain.Player) (bool, error) {
	stats := e.GetOrInitStats(player, domain.GamePlatform)

	maxSeen, err := e.ledger.MaxLevel(ctx, player.ID, domain.GamePlatform)
	if err != nil {
		return false, fmt.Errorf("reading highest recorded level: %w", err)
	}
	if maxSeen < 1 {
		return false, nil
	}

	s := stats.Platform
	target := min(int(maxSeen)+1, e.config.MaxLevel)
	changed := false

	unlocked := s.UnlockedLevels
	for level := 1; level <= target; level++ {
		unlocked = insertLevel(unlocked, level)
	}
	if len(unlocked) > len(s.UnlockedLevels) {
		s.UnlockedLevels = unlocked
		changed = true
	}
	if s.HighestLevelReached < int(maxSeen) {
		s.HighestLevelReached = int(maxSeen)
		changed = true
	}

	return changed, nil
}

func (e *Engine) reconcile(ctx context.Context, player *domain.Player) {
	changed, err := e.SyncUnlockedLevels(ctx, player)
	if err != nil {
		e.logger.Warn("failed to reconcile unlocked levels",
			"player_id", player.ID,
			"error", err,
		)
		return
	}
	if changed {
		e.logger.Debug("reconciled unlocked levels", "player_id", player.ID)
	}
}

// UpdatePlatformProfile applies a partial write. Unlocked levels are coerced,
// de-duplicated and sorted; values below 1 are dropped and level 1 stays
// unlocked when nothing valid remains.
func (e *Engine) UpdatePlatformProfile(player *domain.Player, update domain.PlatformProfileUpdate) domain.PlatformProfile {
	stats := e.GetOrInitStats(player, domain.GamePlatform)
	s := stats.Platform

	if update.Coins != nil {
		stats.Coins = max(*update.Coins, 0)
	}
	if update.HighestLevelReached != nil {
		s.HighestLevelReached = *update.HighestLevelReached
	}
	if update.UnlockedLevels != nil {
		s.UnlockedLevels = NormalizeLevels(update.UnlockedLevels)
		if len(s.UnlockedLevels) == 0 {
			s.UnlockedLevels = []int{1}
		}
	}
	if update.OwnedSkins != nil {
		s.OwnedSkins = slices.Clone(update.OwnedSkins)
	}
	if update.EquippedSkin != nil {
		s.EquippedSkin = *update.EquippedSkin
	}
	if update.OwnedAbilities != nil {
		s.OwnedAbilities = slices.Clone(update.OwnedAbilities)
	}
	if update.TotalGearsCollected != nil {
		s.TotalGearsCollected = *update.TotalGearsCollected
	}
	if update.TotalEnemiesDefeated != nil {
		s.TotalEnemiesDefeated = *update.TotalEnemiesDefeated
	}
	if update.TotalDeaths != nil {
		s.TotalDeaths = *update.TotalDeaths
	}
	if update.TotalPlayTime != nil {
		s.TotalPlayTime = *update.TotalPlayTime
	}
	if update.PerfectRuns != nil {
		s.PerfectRuns = *update.PerfectRuns
	}
	if update.FastestCompletion != nil {
		v := *update.FastestCompletion
		s.FastestCompletion = &v
	}
	if update.FavoriteLevel != nil {
		s.FavoriteLevel = *update.FavoriteLevel
	}
	if update.Achievements != nil {
		s.Achievements = slices.Clone(update.Achievements)
	}

	return e.platformView(player, stats)
}

// UnlockLevel adds a level to the unlocked set. Unlocking an unlocked level is a no-op.
func (e *Engine) UnlockLevel(player *domain.Player, level int) domain.PlatformProfile {
	stats := e.GetOrInitStats(player, domain.GamePlatform)
	s := stats.Platform

	if level >= 1 && !slices.Contains(s.UnlockedLevels, level) {
		s.UnlockedLevels = insertLevel(s.UnlockedLevels, level)
		s.HighestLevelReached = max(s.HighestLevelReached, level)
	}

	return e.platformView(player, stats)
}

// PurchaseSkin buys a cosmetic skin.
func (e *Engine) PurchaseSkin(player *domain.Player, itemID string, cost int64) domain.PurchaseResult {
	return e.purchase(player, itemSkin, itemID, cost)
}

// PurchaseAbility buys an ability.
func (e *Engine) PurchaseAbility(player *domain.Player, itemID string, cost int64) domain.PurchaseResult {
	return e.purchase(player, itemAbility, itemID, cost)
}

func (e *Engine) purchase(player *domain.Player, kind itemKind, itemID string, cost int64) domain.PurchaseResult {
	stats := e.GetOrInitStats(player, domain.GamePlatform)
	s := stats.Platform

	owned := &s.OwnedSkins
	if kind == itemAbility {
		owned = &s.OwnedAbilities
	}

	cost = max(cost, 0)
	if stats.Coins < cost {
		return domain.PurchaseResult{Reason: domain.ReasonInsufficientCoins}
	}
	if slices.Contains(*owned, itemID) {
		return domain.PurchaseResult{Reason: domain.ReasonAlreadyOwned}
	}

	stats.Coins -= cost
	*owned = append(*owned, itemID)

	profile := e.platformView(player, stats)
	return domain.PurchaseResult{Success: true, Profile: &profile}
}

// EquipSkin equips an owned skin.
func (e *Engine) EquipSkin(player *domain.Player, itemID string) (domain.PlatformProfile, error) {
	stats := e.GetOrInitStats(player, domain.GamePlatform)
	s := stats.Platform

	if !slices.Contains(s.OwnedSkins, itemID) {
		return domain.PlatformProfile{}, fmt.Errorf("equipping skin %q: %w", itemID, domain.ErrNotOwned)
	}
	s.EquippedSkin = itemID

	return e.platformView(player, stats), nil
}

// CompleteLevel records a finished platform level. It awards score/10 plus five
// coins per gear, unlocks the following level and returns the coins earned
// together with the updated profile.
func (e *Engine) CompleteLevel(player *domain.Player, c domain.LevelCompletion) (int64, domain.PlatformProfile) {
	coins := max(domain.SaturatingAdd(c.Score/10, domain.SaturatingMul(c.GearsCollected, 5)), 0)

	stats := e.RecordSession(player, domain.GamePlatform, domain.SessionResult{
		Score:       c.Score,
		Level:       c.Level,
		CoinsEarned: coins,
		Duration:    c.PlayTime,
		CustomStats: map[string]any{
			keyGearsCollected:  c.GearsCollected,
			keyEnemiesDefeated: c.EnemiesDefeated,
			keyDeaths:          c.Deaths,
			keyPlayTime:        c.PlayTime,
		},
	})

	s := stats.Platform
	level := int(max(c.Level, 1))

	if c.Deaths == 0 {
		s.PerfectRuns++
	}
	if c.CompletionTime > 0 && (s.FastestCompletion == nil || c.CompletionTime < *s.FastestCompletion) {
		v := c.CompletionTime
		s.FastestCompletion = &v
	}

	if s.LevelCompletions == nil {
		s.LevelCompletions = make(map[int]int64)
	}
	s.LevelCompletions[level]++
	s.FavoriteLevel = favoriteLevel(s.LevelCompletions)

	target := min(level+1, e.config.MaxLevel)
	for l := 1; l <= target; l++ {
		s.UnlockedLevels = insertLevel(s.UnlockedLevels, l)
	}
	s.HighestLevelReached = max(s.HighestLevelReached, level)

	return coins, e.platformView(player, stats)
}

func (e *Engine) platformView(player *domain.Player, stats *domain.GameStats) domain.PlatformProfile {
	s := stats.Platform
	profile := domain.PlatformProfile{
		PlayerID:             player.ID,
		Coins:                stats.Coins,
		BestScore:            stats.Highscore,
		GamesPlayed:          stats.GamesPlayed,
		HighestLevelReached:  s.HighestLevelReached,
		UnlockedLevels:       slices.Clone(s.UnlockedLevels),
		OwnedSkins:           slices.Clone(s.OwnedSkins),
		EquippedSkin:         s.EquippedSkin,
		OwnedAbilities:       slices.Clone(s.OwnedAbilities),
		TotalGearsCollected:  s.TotalGearsCollected,
		TotalEnemiesDefeated: s.TotalEnemiesDefeated,
		TotalDeaths:          s.TotalDeaths,
		TotalPlayTime:        s.TotalPlayTime,
		PerfectRuns:          s.PerfectRuns,
		FavoriteLevel:        s.FavoriteLevel,
		Achievements:         slices.Clone(s.Achievements),
	}
	if s.FastestCompletion != nil {
		v := *s.FastestCompletion
		profile.FastestCompletion = &v
	}
	return profile
}
