package domain

// SessionResult is the typed outcome of one completed game round.
type SessionResult struct {
	Score       int64
	Level       int64
	Lines       int64
	CoinsEarned int64
	Duration    int64
	CustomStats map[string]any
}

// SessionOutcome is the wire form of a session report. Numeric fields are left
// untyped because cabinets send them loosely; ToSubmission coerces them.
type SessionOutcome struct {
	PlayerID    string         `json:"player_id" validate:"required,max=64"`
	GameName    string         `json:"game_name" validate:"required,game,max=64"`
	Score       any            `json:"score"`
	Level       any            `json:"level,omitempty"`
	Lines       any            `json:"lines,omitempty"`
	CoinsEarned any            `json:"coins_earned,omitempty"`
	Duration    any            `json:"duration,omitempty"`
	CustomStats map[string]any `json:"custom_stats,omitempty"`

	// Shooter cabinets report these at the top level.
	AsteroidsDestroyed any    `json:"asteroids_destroyed,omitempty"`
	PowerUpsCollected  any    `json:"power_ups_collected,omitempty"`
	Accuracy           any    `json:"accuracy,omitempty"`
	SurvivalTime       any    `json:"survival_time,omitempty"`
	ShipUsed           string `json:"ship_used,omitempty"`
}

// ScoreSubmission is a validated request to record a session for a player.
type ScoreSubmission struct {
	PlayerID string
	GameName string
	Result   SessionResult
}

// ToSubmission coerces the loosely typed outcome into a ScoreSubmission.
func (o SessionOutcome) ToSubmission() ScoreSubmission {
	custom := make(map[string]any, len(o.CustomStats)+5)
	for k, v := range o.CustomStats {
		custom[k] = v
	}
	if o.GameName == GameShooter {
		if o.AsteroidsDestroyed != nil {
			custom["asteroidsDestroyed"] = o.AsteroidsDestroyed
		}
		if o.PowerUpsCollected != nil {
			custom["powerUpsCollected"] = o.PowerUpsCollected
		}
		if o.Accuracy != nil {
			custom["accuracy"] = o.Accuracy
		}
		if o.SurvivalTime != nil {
			custom["survivalTime"] = o.SurvivalTime
		}
		if o.ShipUsed != "" {
			custom["shipUsed"] = o.ShipUsed
		}
	}

	return ScoreSubmission{
		PlayerID: o.PlayerID,
		GameName: o.GameName,
		Result: SessionResult{
			Score:       CoerceInt(o.Score),
			Level:       CoerceInt(o.Level),
			Lines:       CoerceInt(o.Lines),
			CoinsEarned: CoerceInt(o.CoinsEarned),
			Duration:    CoerceInt(o.Duration),
			CustomStats: custom,
		},
	}
}

// BatchSessionOutcome represents multiple session reports
type BatchSessionOutcome struct {
	Sessions []SessionOutcome `json:"sessions" validate:"required,min=1,max=500"`
}

// SubmitResult is returned after a session has been recorded.
type SubmitResult struct {
	GameStats      *GameStats  `json:"game_stats"`
	IsNewHighscore bool        `json:"is_new_highscore"`
	CoinsEarned    int64       `json:"coins_earned"`
	Record         ScoreRecord `json:"record"`
}

// LevelOutcome is the wire form of a completed platform level.
type LevelOutcome struct {
	Level           any `json:"level"`
	Score           any `json:"score"`
	GearsCollected  any `json:"gears_collected,omitempty"`
	EnemiesDefeated any `json:"enemies_defeated,omitempty"`
	Deaths          any `json:"deaths,omitempty"`
	PlayTime        any `json:"play_time,omitempty"`
	CompletionTime  any `json:"completion_time,omitempty"`
}

// LevelCompletion is a coerced LevelOutcome.
type LevelCompletion struct {
	Level           int64
	Score           int64
	GearsCollected  int64
	EnemiesDefeated int64
	Deaths          int64
	PlayTime        int64
	CompletionTime  int64
}

// ToCompletion coerces the outcome. A missing or non-positive level counts as level 1.
func (o LevelOutcome) ToCompletion() LevelCompletion {
	c := LevelCompletion{
		Level:           CoerceInt(o.Level),
		Score:           CoerceInt(o.Score),
		GearsCollected:  CoerceInt(o.GearsCollected),
		EnemiesDefeated: CoerceInt(o.EnemiesDefeated),
		Deaths:          CoerceInt(o.Deaths),
		PlayTime:        CoerceInt(o.PlayTime),
		CompletionTime:  CoerceInt(o.CompletionTime),
	}
	if c.Level < 1 {
		c.Level = 1
	}
	return c
}

// LevelResult is returned after a platform level completion.
type LevelResult struct {
	CoinsEarned int64           `json:"coins_earned"`
	Profile     PlatformProfile `json:"profile"`
	Record      ScoreRecord     `json:"record"`
}
