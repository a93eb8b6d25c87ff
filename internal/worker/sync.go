package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arcade-profiles/internal/config"
)

// RankingSource is the durable score ledger rankings are rebuilt from
type RankingSource interface {
	ListGames(ctx context.Context) ([]string, error)
	BestRankValues(ctx context.Context, gameName string) (map[string]float64, error)
}

// RankingTarget is the realtime ranking cache
type RankingTarget interface {
	ReplaceRanking(ctx context.Context, gameName string, values map[string]float64) error
}

// SyncWorker periodically rebuilds the realtime rankings from the ledger
type SyncWorker struct {
	source  RankingSource
	target  RankingTarget
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	source RankingSource,
	target RankingTarget,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		source: source,
		target: target,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs one rebuild right away and then one every interval in the background
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.syncAll(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll rebuilds the ranking of every game found in the ledger
func (w *SyncWorker) syncAll(ctx context.Context) {
	w.logger.Info("starting sync cycle")
	startTime := time.Now()

	games, err := w.source.ListGames(ctx)
	if err != nil {
		w.logger.Error("failed to list games for sync", "error", err)
		return
	}

	syncedCount := 0
	errorCount := 0

	for _, game := range games {
		if err := w.SyncGame(ctx, game); err != nil {
			w.logger.Error("failed to sync ranking",
				"game", game,
				"error", err,
			)
			errorCount++
		} else {
			syncedCount++
		}
	}

	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"synced", syncedCount,
		"errors", errorCount,
	)
}

// SyncGame replaces one game's ranking with each player's best ledger entry
func (w *SyncWorker) SyncGame(ctx context.Context, gameName string) error {
	values, err := w.source.BestRankValues(ctx, gameName)
	if err != nil {
		return fmt.Errorf("loading best entries: %w", err)
	}

	if err := w.target.ReplaceRanking(ctx, gameName, values); err != nil {
		return fmt.Errorf("replacing ranking: %w", err)
	}

	w.logger.Debug("synced ranking from ledger",
		"game", gameName,
		"player_count", len(values),
	)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncAll(ctx)
}
