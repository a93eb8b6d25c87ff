package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/arcade-profiles/internal/domain"
)

// analyticsWindow is the number of recent sessions shooter analytics look at
const analyticsWindow = 20

// recentGamesShown is the number of sessions listed in shooter analytics
const recentGamesShown = 5

// topScoresDefault is the size of the cross-game score list when no limit is given
const topScoresDefault = 50

// SubmitScore records one session: it appends the ledger record, merges the
// result into the player's stats and publishes the new ranking.
func (s *ArcadeService) SubmitScore(ctx context.Context, submission domain.ScoreSubmission) (*domain.SubmitResult, error) {
	gameName := strings.TrimSpace(submission.GameName)
	if gameName == "" {
		return nil, domain.ErrInvalidRequest
	}

	player, err := s.resolve(ctx, submission.PlayerID)
	if err != nil {
		return nil, err
	}

	result := submission.Result
	record := domain.ScoreRecord{
		PlayerID:  player.ID,
		GameName:  gameName,
		Score:     result.Score,
		Level:     max(result.Level, 1),
		Duration:  max(result.Duration, 0),
		CreatedAt: s.now(),
	}
	if err := s.ledger.AppendScore(ctx, &record); err != nil {
		return nil, fmt.Errorf("appending score: %w", err)
	}

	var submitted domain.SubmitResult
	player, err = s.mutatePlayer(ctx, player.ID, func(p *domain.Player) (bool, error) {
		var previous int64
		if stats, ok := p.GameStats[gameName]; ok && stats != nil {
			previous = stats.Highscore
		}
		stats := s.engine.RecordSession(p, gameName, result)
		submitted.IsNewHighscore = result.Score > previous
		submitted.GameStats = stats.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	submitted.CoinsEarned = result.CoinsEarned
	submitted.Record = record

	s.logger.Debug("score submitted",
		"player_id", player.ID,
		"game", gameName,
		"score", record.Score,
		"new_highscore", submitted.IsNewHighscore,
	)

	s.publish(ctx, player, record)
	return &submitted, nil
}

// SubmitScoreBatch submits multiple sessions and returns how many were accepted
func (s *ArcadeService) SubmitScoreBatch(ctx context.Context, submissions []domain.ScoreSubmission) int {
	accepted := 0
	for _, submission := range submissions {
		if _, err := s.SubmitScore(ctx, submission); err != nil {
			s.logger.Error("failed to submit score in batch",
				"player_id", submission.PlayerID,
				"game", submission.GameName,
				"error", err,
			)
			// Continue processing other scores
			continue
		}
		accepted++
	}
	return accepted
}

// GetHighscores returns a game's leaderboard with one best entry per player
func (s *ArcadeService) GetHighscores(ctx context.Context, gameName string, limit int) ([]domain.HighscoreEntry, error) {
	entries, err := s.ledger.Highscores(ctx, gameName, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting highscores: %w", err)
	}
	return entries, nil
}

// GetTopScores returns the best individual sessions across every game
func (s *ArcadeService) GetTopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	if limit <= 0 {
		limit = topScoresDefault
	}
	entries, err := s.ledger.TopScores(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting top scores: %w", err)
	}
	return entries, nil
}

// GetPlayerScores returns a player's records for a game, best first
func (s *ArcadeService) GetPlayerScores(ctx context.Context, ref, gameName string, limit int) ([]domain.ScoreRecord, error) {
	player, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.PlayerScores(ctx, player.ID, gameName, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting player scores: %w", err)
	}
	return records, nil
}

// GetPlayerRank returns a player's position in a game. The ranking cache is used
// when enabled, otherwise the rank is computed from the ledger.
func (s *ArcadeService) GetPlayerRank(ctx context.Context, gameName, ref string) (*domain.RankEntry, error) {
	player, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if s.rankings != nil {
		entry, err := s.rankings.GetPlayerRank(ctx, gameName, player.ID)
		if err == nil {
			entry.Name = player.Name
			return entry, nil
		}
		if !errors.Is(err, domain.ErrPlayerNotFound) {
			s.logger.Warn("ranking cache unavailable, using ledger", "game", gameName, "error", err)
		}
	}

	values, err := s.ledger.BestRankValues(ctx, gameName)
	if err != nil {
		return nil, fmt.Errorf("getting rank values: %w", err)
	}
	mine, ok := values[player.ID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}

	rank := int64(1)
	for _, value := range values {
		if value > mine {
			rank++
		}
	}
	level, score := domain.SplitRankValue(gameName, mine)
	if best, err := s.ledger.PlayerScores(ctx, player.ID, gameName, 1); err == nil && len(best) > 0 {
		level, score = best[0].Level, best[0].Score
	}
	return &domain.RankEntry{
		Rank:     rank,
		PlayerID: player.ID,
		Name:     player.Name,
		Score:    score,
		Level:    level,
	}, nil
}

// topEntries returns the top of a game's ranking for broadcasts
func (s *ArcadeService) topEntries(ctx context.Context, gameName string, n int) ([]domain.RankEntry, error) {
	if s.rankings != nil {
		entries, err := s.rankings.GetTopN(ctx, gameName, n)
		if err == nil {
			return entries, nil
		}
		s.logger.Warn("ranking cache unavailable, using ledger", "game", gameName, "error", err)
	}

	highscores, err := s.ledger.Highscores(ctx, gameName, n)
	if err != nil {
		return nil, fmt.Errorf("getting highscores: %w", err)
	}
	entries := make([]domain.RankEntry, len(highscores))
	for i, h := range highscores {
		entries[i] = domain.RankEntry{
			Rank:     h.Rank,
			PlayerID: h.PlayerID,
			Name:     h.Name,
			Score:    h.Score,
		}
		if domain.RanksByLevel(gameName) {
			entries[i].Level = h.Level
		}
	}
	return entries, nil
}

// GetShooterLeaderboard ranks shooter players by score, accuracy or survival time
func (s *ArcadeService) GetShooterLeaderboard(ctx context.Context, category string, limit int) ([]domain.ShooterLeaderboardEntry, error) {
	switch category {
	case domain.ShooterCategoryScore, domain.ShooterCategoryAccuracy, domain.ShooterCategorySurvival:
	default:
		return nil, fmt.Errorf("unknown leaderboard category %q: %w", category, domain.ErrInvalidRequest)
	}

	entries, err := s.players.ShooterLeaderboard(ctx, category, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("getting shooter leaderboard: %w", err)
	}
	return entries, nil
}

// GetShooterAnalytics summarises a player's recent shooter sessions
func (s *ArcadeService) GetShooterAnalytics(ctx context.Context, ref string) (*domain.ShooterAnalytics, error) {
	player, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	recent, err := s.ledger.RecentScores(ctx, player.ID, domain.GameShooter, analyticsWindow)
	if err != nil {
		return nil, fmt.Errorf("getting recent scores: %w", err)
	}

	stats := s.engine.GetOrInitStats(player, domain.GameShooter)
	analytics := &domain.ShooterAnalytics{
		TotalGames:  stats.GamesPlayed,
		BestScore:   stats.Highscore,
		RecentGames: recent[:min(len(recent), recentGamesShown)],
		PlayTime:    stats.Shooter.TotalSurvivalTime,
		Coins:       stats.Coins,
	}
	if analytics.RecentGames == nil {
		analytics.RecentGames = []domain.ScoreRecord{}
	}

	if len(recent) > 0 {
		var sum float64
		for _, rec := range recent {
			sum += float64(rec.Score)
		}
		analytics.AverageScore = int64(math.Round(sum / float64(len(recent))))
	}
	if len(recent) >= 2 {
		analytics.Improvement = recent[0].Score - recent[len(recent)-1].Score
	}

	return analytics, nil
}
