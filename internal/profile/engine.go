// Package profile derives per-game progression profiles from a player's
// cumulative statistics and merges session results into them.
//
// Every operation mutates the *domain.Player it is given in memory only;
// callers are responsible for persisting the player afterwards.
package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/arcade-profiles/internal/config"
)

// LevelLedger answers questions about the append-only score history.
type LevelLedger interface {
	// MaxLevel returns the highest level recorded for the player in the game, or 0.
	MaxLevel(ctx context.Context, playerID, gameName string) (int64, error)
}

// Engine owns the per-game statistics of players.
type Engine struct {
	ledger LevelLedger
	config *config.ProfilesConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a new profile engine
func NewEngine(ledger LevelLedger, cfg *config.ProfilesConfig, logger *slog.Logger) *Engine {
	return &Engine{
		ledger: ledger,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}
