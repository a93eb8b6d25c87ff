package domain

import (
	"slices"
	"time"
)

// Player is identified by the badge credential scanned at the cabinet.
type Player struct {
	ID          string                `json:"id"`
	BadgeID     string                `json:"badge_id"`
	Name        string                `json:"name"`
	TotalScore  int64                 `json:"total_score"`
	GamesPlayed int64                 `json:"games_played"`
	LastPlayed  time.Time             `json:"last_played"`
	GameStats   map[string]*GameStats `json:"game_stats"`
	Version     int64                 `json:"-"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Clone returns a deep copy so a mutation can be discarded without touching the original.
func (p *Player) Clone() *Player {
	c := *p
	c.GameStats = make(map[string]*GameStats, len(p.GameStats))
	for game, stats := range p.GameStats {
		c.GameStats[game] = stats.Clone()
	}
	return &c
}

// PlayerInfo is a lightweight player information struct used for caching
type PlayerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BadgeID string `json:"badge_id"`
}

// GameStats holds one player's cumulative state for one game.
type GameStats struct {
	Highscore   int64     `json:"highscore"`
	Coins       int64     `json:"coins"`
	GamesPlayed int64     `json:"games_played"`
	LastPlayed  time.Time `json:"last_played"`
	BestLevel   int64     `json:"best_level"`
	BestLines   int64     `json:"best_lines"`

	// Seeded is set once starter content has been granted.
	Seeded bool `json:"seeded"`

	Platform *PlatformState `json:"platform,omitempty"`
	Shooter  *ShooterState  `json:"shooter,omitempty"`

	CustomStats map[string]any `json:"custom_stats"`
}

// Clone returns a deep copy of the stats entry.
func (s *GameStats) Clone() *GameStats {
	if s == nil {
		return nil
	}
	c := *s
	if s.Platform != nil {
		c.Platform = s.Platform.clone()
	}
	if s.Shooter != nil {
		c.Shooter = s.Shooter.clone()
	}
	if s.CustomStats != nil {
		c.CustomStats = make(map[string]any, len(s.CustomStats))
		for k, v := range s.CustomStats {
			c.CustomStats[k] = v
		}
	}
	return &c
}

// PlatformState is the progression state of the platform game.
type PlatformState struct {
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

	// LevelCompletions counts completions per level and drives FavoriteLevel.
	LevelCompletions map[int]int64 `json:"level_completions,omitempty"`
}

func (s *PlatformState) clone() *PlatformState {
	c := *s
	c.UnlockedLevels = slices.Clone(s.UnlockedLevels)
	c.OwnedSkins = slices.Clone(s.OwnedSkins)
	c.OwnedAbilities = slices.Clone(s.OwnedAbilities)
	c.Achievements = slices.Clone(s.Achievements)
	if s.FastestCompletion != nil {
		v := *s.FastestCompletion
		c.FastestCompletion = &v
	}
	if s.LevelCompletions != nil {
		c.LevelCompletions = make(map[int]int64, len(s.LevelCompletions))
		for level, n := range s.LevelCompletions {
			c.LevelCompletions[level] = n
		}
	}
	return &c
}

// ShooterState is the progression state of the shooter game.
type ShooterState struct {
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

func (s *ShooterState) clone() *ShooterState {
	c := *s
	c.OwnedShips = slices.Clone(s.OwnedShips)
	c.OwnedUpgrades = slices.Clone(s.OwnedUpgrades)
	return &c
}

// ScoreRecord is one immutable entry of the score ledger.
type ScoreRecord struct {
	ID        int64     `json:"id"`
	PlayerID  string    `json:"player_id"`
	GameName  string    `json:"game_name"`
	Score     int64     `json:"score"`
	Level     int64     `json:"level"`
	Duration  int64     `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult is returned by badge login. Player is nil when the badge is unknown.
type LoginResult struct {
	Player               *Player `json:"player,omitempty"`
	RegistrationRequired bool    `json:"registration_required"`
	BadgeID              string  `json:"badge_id"`
}

// RegisterRequest represents a request to register a new badge
type RegisterRequest struct {
	BadgeID string `json:"badge_id" validate:"required,badge,max=64"`
	Name    string `json:"name" validate:"required,min=1,max=50"`
}

// LoginRequest represents a badge login
type LoginRequest struct {
	BadgeID string `json:"badge_id" validate:"required,badge,max=64"`
}
