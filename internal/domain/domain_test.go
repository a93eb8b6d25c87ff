package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{name: "nil", in: nil, want: 0},
		{name: "json float", in: 42.0, want: 42},
		{name: "fraction truncates", in: 9.99, want: 9},
		{name: "int", in: 7, want: 7},
		{name: "numeric string", in: " 120 ", want: 120},
		{name: "float string", in: "3.5", want: 3},
		{name: "garbage string", in: "lots", want: 0},
		{name: "json number", in: json.Number("15"), want: 15},
		{name: "bool", in: true, want: 0},
		{name: "nan", in: math.NaN(), want: 0},
		{name: "infinity", in: math.Inf(1), want: 0},
		{name: "negative", in: -5.0, want: -5},
		{name: "two to the 63 string", in: "9223372036854775808", want: math.MaxInt64},
		{name: "huge float", in: 1e30, want: math.MaxInt64},
		{name: "huge negative", in: "-1e30", want: math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceInt(tt.in))
		})
	}
}

func TestCoerceString(t *testing.T) {
	s, ok := CoerceString("falcon")
	assert.True(t, ok)
	assert.Equal(t, "falcon", s)

	_, ok = CoerceString("")
	assert.False(t, ok)
	_, ok = CoerceString(12)
	assert.False(t, ok)
}

func TestRankValue(t *testing.T) {
	high := RankValue(GamePlatform, 3, 10)
	low := RankValue(GamePlatform, 2, 999_999)
	assert.Greater(t, high, low)

	level, score := SplitRankValue(GamePlatform, high)
	assert.EqualValues(t, 3, level)
	assert.EqualValues(t, 10, score)

	assert.Equal(t, 500.0, RankValue("snake", 9, 500))
	level, score = SplitRankValue("snake", 500)
	assert.Zero(t, level)
	assert.EqualValues(t, 500, score)
}

func TestSaturatingAdd(t *testing.T) {
	assert.EqualValues(t, 7, SaturatingAdd(3, 4))
	assert.EqualValues(t, -1, SaturatingAdd(3, -4))
	assert.EqualValues(t, math.MaxInt64, SaturatingAdd(5e18, 5e18))
	assert.EqualValues(t, math.MaxInt64, SaturatingAdd(math.MaxInt64, 1))
	assert.EqualValues(t, math.MinInt64, SaturatingAdd(-5e18, -5e18))
	assert.EqualValues(t, math.MaxInt64-1, SaturatingAdd(math.MaxInt64, -1))
}

func TestSaturatingMul(t *testing.T) {
	assert.EqualValues(t, 50, SaturatingMul(10, 5))
	assert.EqualValues(t, -50, SaturatingMul(-10, 5))
	assert.EqualValues(t, 0, SaturatingMul(math.MaxInt64, 0))
	assert.EqualValues(t, math.MaxInt64, SaturatingMul(math.MaxInt64/2, 5))
	assert.EqualValues(t, math.MinInt64, SaturatingMul(math.MinInt64/2, 5))
	assert.EqualValues(t, math.MaxInt64, SaturatingMul(math.MinInt64, -1))
}

func TestRankValue_OutOfRangeScores(t *testing.T) {
	// a higher level always outranks any score on a lower level
	assert.Greater(t, RankValue(GamePlatform, 2, 10), RankValue(GamePlatform, 1, 2_000_000_000))
	assert.Equal(t, RankValue(GamePlatform, 1, maxRankScore), RankValue(GamePlatform, 1, math.MaxInt64))

	level, score := SplitRankValue(GamePlatform, RankValue(GamePlatform, 3, -5))
	assert.EqualValues(t, 3, level)
	assert.Zero(t, score)

	level, score = SplitRankValue(GamePlatform, RankValue(GamePlatform, 1, 2_000_000_000))
	assert.EqualValues(t, 1, level)
	assert.EqualValues(t, maxRankScore, score)

	level, _ = SplitRankValue(GamePlatform, RankValue(GamePlatform, math.MaxInt64, 5))
	assert.EqualValues(t, maxRankLevel, level)
	assert.Greater(t, RankValue(GamePlatform, math.MaxInt64, 0), RankValue(GamePlatform, 1000, maxRankScore))

	assert.Equal(t, -5.0, RankValue("snake", 0, -5))
}

func TestSessionOutcome_ToSubmission(t *testing.T) {
	var outcome SessionOutcome
	require.NoError(t, json.Unmarshal([]byte(`{
		"player_id": "B1",
		"game_name": "spaceships",
		"score": "750",
		"duration": 61.9,
		"custom_stats": {"wave": 4},
		"asteroids_destroyed": 30,
		"accuracy": "72.5",
		"ship_used": "falcon"
	}`), &outcome))

	s := outcome.ToSubmission()
	assert.Equal(t, "B1", s.PlayerID)
	assert.EqualValues(t, 750, s.Result.Score)
	assert.EqualValues(t, 61, s.Result.Duration)
	assert.Zero(t, s.Result.Level)
	assert.Equal(t, 4.0, s.Result.CustomStats["wave"])
	assert.Equal(t, 30.0, s.Result.CustomStats["asteroidsDestroyed"])
	assert.Equal(t, "72.5", s.Result.CustomStats["accuracy"])
	assert.Equal(t, "falcon", s.Result.CustomStats["shipUsed"])
	assert.NotContains(t, s.Result.CustomStats, "powerUpsCollected")
}

func TestSessionOutcome_ToSubmission_OtherGamesIgnoreShooterFields(t *testing.T) {
	outcome := SessionOutcome{PlayerID: "B1", GameName: "snake", Score: 10, ShipUsed: "falcon"}

	s := outcome.ToSubmission()
	assert.Empty(t, s.Result.CustomStats)
}

func TestLevelOutcome_ToCompletion(t *testing.T) {
	c := LevelOutcome{Level: "0", Score: 300.0, GearsCollected: "4", Deaths: nil}.ToCompletion()
	assert.EqualValues(t, 1, c.Level)
	assert.EqualValues(t, 300, c.Score)
	assert.EqualValues(t, 4, c.GearsCollected)
	assert.Zero(t, c.Deaths)

	c = LevelOutcome{Level: 7.0}.ToCompletion()
	assert.EqualValues(t, 7, c.Level)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFoundError(fmt.Errorf("loading: %w", ErrPlayerNotFound)))
	assert.False(t, IsNotFoundError(errors.New("player not found")))
	assert.True(t, IsConflictError(ErrBadgeRegistered))
	assert.False(t, IsConflictError(ErrVersionConflict))
}

func TestPlayerClone(t *testing.T) {
	fastest := int64(30)
	p := &Player{
		ID: "p1",
		GameStats: map[string]*GameStats{
			GamePlatform: {
				Highscore: 10,
				Platform: &PlatformState{
					UnlockedLevels:    []int{1, 2},
					OwnedSkins:        []string{},
					FastestCompletion: &fastest,
					LevelCompletions:  map[int]int64{2: 1},
				},
				CustomStats: map[string]any{"k": 1.0},
			},
		},
	}

	c := p.Clone()
	c.GameStats[GamePlatform].Highscore = 99
	c.GameStats[GamePlatform].Platform.UnlockedLevels[0] = 5
	*c.GameStats[GamePlatform].Platform.FastestCompletion = 1
	c.GameStats[GamePlatform].Platform.LevelCompletions[2] = 9
	c.GameStats[GamePlatform].CustomStats["k"] = 2.0

	orig := p.GameStats[GamePlatform]
	assert.EqualValues(t, 10, orig.Highscore)
	assert.Equal(t, []int{1, 2}, orig.Platform.UnlockedLevels)
	assert.EqualValues(t, 30, *orig.Platform.FastestCompletion)
	assert.EqualValues(t, 1, orig.Platform.LevelCompletions[2])
	assert.Equal(t, 1.0, orig.CustomStats["k"])

	// Empty slices stay empty rather than nil
	assert.NotNil(t, c.GameStats[GamePlatform].Platform.OwnedSkins)
}
