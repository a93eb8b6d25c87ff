package domain

// PlatformProfile is the platform game view of a player's stats.
type PlatformProfile struct {
	PlayerID             string   `json:"player_id"`
	Coins                int64    `json:"coins"`
	BestScore            int64    `json:"best_score"`
	GamesPlayed          int64    `json:"games_played"`
	HighestLevelReached  int      `json:"highest_level_reached"`
	UnlockedLevels       []int    `json:"unlocked_levels"`
	OwnedSkins           []string `json:"owned_skins"`
	EquippedSkin         string   `json:"equipped_skin"`
	OwnedAbilities       []string `json:"owned_abilities"`
	TotalGearsCollected  int64    `json:"total_gears_collected"`
	TotalEnemiesDefeated int64    `json:"total_enemies_defeated"`
	TotalDeaths          int64    `json:"total_deaths"`
	TotalPlayTime        int64    `json:"total_play_time"`
	PerfectRuns          int64    `json:"perfect_runs"`
	FastestCompletion    *int64   `json:"fastest_completion"`
	FavoriteLevel        int      `json:"favorite_level"`
	Achievements         []string `json:"achievements"`
}

// PlatformProfileUpdate carries a partial profile write. Nil fields are left as they are.
type PlatformProfileUpdate struct {
	Coins                *int64   `json:"coins,omitempty"`
	HighestLevelReached  *int     `json:"highest_level_reached,omitempty"`
	UnlockedLevels       []any    `json:"unlocked_levels,omitempty"`
	OwnedSkins           []string `json:"owned_skins,omitempty"`
	EquippedSkin         *string  `json:"equipped_skin,omitempty"`
	OwnedAbilities       []string `json:"owned_abilities,omitempty"`
	TotalGearsCollected  *int64   `json:"total_gears_collected,omitempty"`
	TotalEnemiesDefeated *int64   `json:"total_enemies_defeated,omitempty"`
	TotalDeaths          *int64   `json:"total_deaths,omitempty"`
	TotalPlayTime        *int64   `json:"total_play_time,omitempty"`
	PerfectRuns          *int64   `json:"perfect_runs,omitempty"`
	FastestCompletion    *int64   `json:"fastest_completion,omitempty"`
	FavoriteLevel        *int     `json:"favorite_level,omitempty"`
	Achievements         []string `json:"achievements,omitempty"`
}

// ShooterProfile is the shooter game view of a player's stats.
type ShooterProfile struct {
	PlayerID                string   `json:"player_id"`
	Coins                   int64    `json:"coins"`
	BestScore               int64    `json:"best_score"`
	GamesPlayed             int64    `json:"games_played"`
	AverageScore            int64    `json:"average_score"`
	TotalAsteroidsDestroyed int64    `json:"total_asteroids_destroyed"`
	TotalPowerUpsCollected  int64    `json:"total_power_ups_collected"`
	BestAccuracy            float64  `json:"best_accuracy"`
	TotalSurvivalTime       float64  `json:"total_survival_time"`
	AverageSurvivalTime     float64  `json:"average_survival_time"`
	OwnedShips              []string `json:"owned_ships"`
	OwnedUpgrades           []string `json:"owned_upgrades"`
	EquippedShip            string   `json:"equipped_ship"`
	FavoriteShip            string   `json:"favorite_ship"`
}

// ShooterProfileUpdate carries a partial shooter profile write.
type ShooterProfileUpdate struct {
	Coins                   *int64   `json:"coins,omitempty"`
	TotalAsteroidsDestroyed *int64   `json:"total_asteroids_destroyed,omitempty"`
	TotalPowerUpsCollected  *int64   `json:"total_power_ups_collected,omitempty"`
	BestAccuracy            *float64 `json:"best_accuracy,omitempty"`
	TotalSurvivalTime       *float64 `json:"total_survival_time,omitempty"`
	AverageSurvivalTime     *float64 `json:"average_survival_time,omitempty"`
	OwnedShips              []string `json:"owned_ships,omitempty"`
	OwnedUpgrades           []string `json:"owned_upgrades,omitempty"`
	EquippedShip            *string  `json:"equipped_ship,omitempty"`
	FavoriteShip            *string  `json:"favorite_ship,omitempty"`
}

// Purchase failure reasons
const (
	ReasonInsufficientCoins = "insufficient_coins"
	ReasonAlreadyOwned      = "already_owned"
)

// PurchaseResult is the outcome of a shop purchase. A failed purchase is not an error.
type PurchaseResult struct {
	Success bool             `json:"success"`
	Reason  string           `json:"reason,omitempty"`
	Profile *PlatformProfile `json:"profile,omitempty"`
}

// PurchaseRequest represents a request to buy a cosmetic or ability
type PurchaseRequest struct {
	ItemID string `json:"item_id" validate:"required,max=64"`
	Cost   int64  `json:"cost" validate:"gte=0"`
}

// EquipRequest represents a request to equip an owned cosmetic
type EquipRequest struct {
	ItemID string `json:"item_id" validate:"required,max=64"`
}

// UnlockRequest represents a request to unlock a platform level
type UnlockRequest struct {
	Level int `json:"level" validate:"gte=1"`
}
