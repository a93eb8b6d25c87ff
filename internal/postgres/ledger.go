package postgres

import (
	"context"
	"fmt"

	"github.com/arcade-profiles/internal/domain"
)

// rankOrder returns the ledger ordering of a game's leaderboard
func rankOrder(gameName string) string {
	if domain.RanksByLevel(gameName) {
		return "level DESC, score DESC"
	}
	return "score DESC"
}

// AppendScore appends a record to the score ledger and fills in its ID
func (r *Repository) AppendScore(ctx context.Context, record *domain.ScoreRecord) error {
	query := `
		INSERT INTO scores (player_id, game_name, score, level, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		record.PlayerID,
		record.GameName,
		record.Score,
		record.Level,
		record.Duration,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("appending score: %w", err)
	}
	return nil
}

// MaxLevel returns the highest level recorded for a player in a game, or 0
func (r *Repository) MaxLevel(ctx context.Context, playerID, gameName string) (int64, error) {
	query := `SELECT COALESCE(MAX(level), 0) FROM scores WHERE player_id = $1 AND game_name = $2`
	var level int64
	if err := r.pool.QueryRow(ctx, query, playerID, gameName).Scan(&level); err != nil {
		return 0, fmt.Errorf("getting max level: %w", err)
	}
	return level, nil
}

// PlayerScores returns a player's records for a game, best first
func (r *Repository) PlayerScores(ctx context.Context, playerID, gameName string, limit int) ([]domain.ScoreRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, player_id, game_name, score, level, duration, created_at
		FROM scores
		WHERE player_id = $1 AND game_name = $2
		ORDER BY %s, created_at ASC
		LIMIT $3
	`, rankOrder(gameName))
	return r.queryRecords(ctx, query, playerID, gameName, limit)
}

// RecentScores returns a player's records for a game, newest first
func (r *Repository) RecentScores(ctx context.Context, playerID, gameName string, limit int) ([]domain.ScoreRecord, error) {
	query := `
		SELECT id, player_id, game_name, score, level, duration, created_at
		FROM scores
		WHERE player_id = $1 AND game_name = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	return r.queryRecords(ctx, query, playerID, gameName, limit)
}

func (r *Repository) queryRecords(ctx context.Context, query string, args ...any) ([]domain.ScoreRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var rec domain.ScoreRecord
		err := rows.Scan(
			&rec.ID,
			&rec.PlayerID,
			&rec.GameName,
			&rec.Score,
			&rec.Level,
			&rec.Duration,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Highscores returns each player's best record for a game, ranked
func (r *Repository) Highscores(ctx context.Context, gameName string, limit int) ([]domain.HighscoreEntry, error) {
	return r.bestEntries(ctx, gameName, limit)
}

// BestRankValues returns every player's best rank value for a game (for sync)
func (r *Repository) BestRankValues(ctx context.Context, gameName string) (map[string]float64, error) {
	entries, err := r.bestEntries(ctx, gameName, nil)
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(entries))
	for _, entry := range entries {
		values[entry.PlayerID] = domain.RankValue(gameName, entry.Level, entry.Score)
	}
	return values, nil
}

// bestEntries picks one best record per player. A nil limit returns all players.
func (r *Repository) bestEntries(ctx context.Context, gameName string, limit any) ([]domain.HighscoreEntry, error) {
	order := rankOrder(gameName)
	query := fmt.Sprintf(`
		SELECT b.player_id, p.name, p.badge_id, b.score, b.level, b.duration, b.created_at
		FROM (
			SELECT DISTINCT ON (player_id) player_id, score, level, duration, created_at
			FROM scores
			WHERE game_name = $1
			ORDER BY player_id, %[1]s, created_at ASC
		) b
		JOIN players p ON p.id = b.player_id
		ORDER BY %[1]s, b.created_at ASC
		LIMIT $2
	`, order)

	rows, err := r.pool.Query(ctx, query, gameName, limit)
	if err != nil {
		return nil, fmt.Errorf("getting highscores: %w", err)
	}
	defer rows.Close()

	var entries []domain.HighscoreEntry
	for rows.Next() {
		var entry domain.HighscoreEntry
		err := rows.Scan(
			&entry.PlayerID,
			&entry.Name,
			&entry.BadgeID,
			&entry.Score,
			&entry.Level,
			&entry.Duration,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning highscore: %w", err)
		}
		entry.Rank = int64(len(entries) + 1)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TopScores returns the highest records across all games
func (r *Repository) TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	query := `
		SELECT s.id, s.player_id, s.game_name, s.score, s.level, s.duration, s.created_at, p.name, p.badge_id
		FROM scores s
		JOIN players p ON p.id = s.player_id
		ORDER BY s.score DESC, s.created_at ASC, s.id ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting top scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var entry domain.ScoreEntry
		err := rows.Scan(
			&entry.ID,
			&entry.PlayerID,
			&entry.GameName,
			&entry.Score,
			&entry.Level,
			&entry.Duration,
			&entry.CreatedAt,
			&entry.Name,
			&entry.BadgeID,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning top score: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListGames returns every game that has at least one ledger record
func (r *Repository) ListGames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT game_name FROM scores ORDER BY game_name`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []string
	for rows.Next() {
		var game string
		if err := rows.Scan(&game); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}
