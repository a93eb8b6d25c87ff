package domain

import "time"

// HighscoreEntry is one row of a game leaderboard, one per player.
type HighscoreEntry struct {
	Rank      int64     `json:"rank"`
	PlayerID  string    `json:"player_id"`
	Name      string    `json:"name"`
	BadgeID   string    `json:"badge_id"`
	Score     int64     `json:"score"`
	Level     int64     `json:"level"`
	Duration  int64     `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreEntry is a ledger record together with the player who set it.
type ScoreEntry struct {
	ScoreRecord
	Name    string `json:"name"`
	BadgeID string `json:"badge_id"`
}

// RankEntry is a player's position in the realtime ranking of a game.
type RankEntry struct {
	Rank     int64  `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Score    int64  `json:"score"`
	Level    int64  `json:"level,omitempty"`
}

// Shooter leaderboard categories
const (
	ShooterCategoryScore    = "score"
	ShooterCategoryAccuracy = "accuracy"
	ShooterCategorySurvival = "survival"
)

// ShooterLeaderboardEntry is one row of a shooter category leaderboard.
type ShooterLeaderboardEntry struct {
	PlayerID     string  `json:"player_id"`
	Name         string  `json:"name"`
	BadgeID      string  `json:"badge_id"`
	Score        int64   `json:"score"`
	Accuracy     float64 `json:"accuracy"`
	SurvivalTime float64 `json:"survival_time"`
	GamesPlayed  int64   `json:"games_played"`
}

// ShooterAnalytics summarises recent shooter sessions of a player.
type ShooterAnalytics struct {
	TotalGames   int64         `json:"total_games"`
	BestScore    int64         `json:"best_score"`
	AverageScore int64         `json:"average_score"`
	Improvement  int64         `json:"improvement"`
	RecentGames  []ScoreRecord `json:"recent_games"`
	PlayTime     float64       `json:"play_time"`
	Coins        int64         `json:"coins"`
}
