package domain

import "math"

// Known game identifiers
const (
	GamePlatform = "tilliman"
	GameShooter  = "spaceships"
)

// A combined rank value is level*levelWeight + score. Scores are clamped below
// levelWeight and levels to what a float64 still holds exactly.
const (
	levelWeight  = 1_000_000_000
	maxRankScore = levelWeight - 1
	maxRankLevel = (1<<53)/levelWeight - 1
)

// RanksByLevel reports whether a game's leaderboard orders by level before score.
func RanksByLevel(game string) bool {
	return game == GamePlatform
}

// RankValue folds level and score into a single sortable value for the game.
func RankValue(game string, level, score int64) float64 {
	if RanksByLevel(game) {
		level = min(max(level, 0), maxRankLevel)
		score = min(max(score, 0), maxRankScore)
		return float64(level)*levelWeight + float64(score)
	}
	return float64(score)
}

// SplitRankValue is the inverse of RankValue for values within its range.
func SplitRankValue(game string, value float64) (level, score int64) {
	if RanksByLevel(game) {
		value = max(value, 0)
		level = int64(math.Floor(value / levelWeight))
		return level, int64(value) - level*levelWeight
	}
	return 0, int64(value)
}
