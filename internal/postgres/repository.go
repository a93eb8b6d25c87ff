package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcade-profiles/internal/config"
	"github.com/arcade-profiles/internal/domain"
)

// uniqueViolation is the SQLSTATE raised for duplicate keys
const uniqueViolation = "23505"

// Repository provides PostgreSQL-based storage for players and the score ledger
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks that the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			badge_id VARCHAR(64) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			total_score BIGINT NOT NULL DEFAULT 0,
			games_played BIGINT NOT NULL DEFAULT 0,
			last_played TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			game_stats JSONB NOT NULL DEFAULT '{}'::jsonb,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			id BIGSERIAL PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			game_name VARCHAR(64) NOT NULL,
			score BIGINT NOT NULL DEFAULT 0,
			level BIGINT NOT NULL DEFAULT 1,
			duration BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_total_score ON players(total_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_player_game ON scores(player_id, game_name)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_game_level_score ON scores(game_name, level DESC, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_game_score ON scores(game_name, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

const playerColumns = `id, badge_id, name, total_score, games_played, last_played, game_stats, version, created_at, updated_at`

// CreatePlayer inserts a new player. A taken badge yields domain.ErrBadgeRegistered.
func (r *Repository) CreatePlayer(ctx context.Context, player *domain.Player) error {
	stats, err := marshalStats(player.GameStats)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if player.Version == 0 {
		player.Version = 1
	}
	_, err = r.pool.Exec(ctx, query,
		player.ID,
		player.BadgeID,
		player.Name,
		player.TotalScore,
		player.GamesPlayed,
		player.LastPlayed,
		stats,
		player.Version,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrBadgeRegistered
		}
		return fmt.Errorf("creating player: %w", err)
	}
	return nil
}

// GetPlayerByID retrieves a player by id
func (r *Repository) GetPlayerByID(ctx context.Context, id string) (*domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return r.getPlayer(ctx, query, id)
}

// GetPlayerByBadge retrieves a player by badge credential
func (r *Repository) GetPlayerByBadge(ctx context.Context, badgeID string) (*domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE badge_id = $1`
	return r.getPlayer(ctx, query, badgeID)
}

func (r *Repository) getPlayer(ctx context.Context, query string, arg string) (*domain.Player, error) {
	player, err := scanPlayer(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return player, nil
}

// UpdatePlayer writes the player back if nobody else changed it since it was read.
// On success the player's Version is advanced; a lost race yields domain.ErrVersionConflict.
func (r *Repository) UpdatePlayer(ctx context.Context, player *domain.Player) error {
	stats, err := marshalStats(player.GameStats)
	if err != nil {
		return err
	}

	query := `
		UPDATE players
		SET name = $3, total_score = $4, games_played = $5, last_played = $6,
			game_stats = $7, version = version + 1, updated_at = $8
		WHERE id = $1 AND version = $2
	`
	now := time.Now()
	result, err := r.pool.Exec(ctx, query,
		player.ID,
		player.Version,
		player.Name,
		player.TotalScore,
		player.GamesPlayed,
		player.LastPlayed,
		stats,
		now,
	)
	if err != nil {
		return fmt.Errorf("updating player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}

	player.Version++
	player.UpdatedAt = now
	return nil
}

// ListPlayers returns players ordered by total score
func (r *Repository) ListPlayers(ctx context.Context, limit, offset int) ([]*domain.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		ORDER BY total_score DESC, created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

// shooterSortColumns maps a shooter leaderboard category to its sort expression
var shooterSortColumns = map[string]string{
	domain.ShooterCategoryScore:    "score",
	domain.ShooterCategoryAccuracy: "accuracy",
	domain.ShooterCategorySurvival: "survival_time",
}

// ShooterLeaderboard ranks players with a positive shooter highscore by a category
func (r *Repository) ShooterLeaderboard(ctx context.Context, category string, limit int) ([]domain.ShooterLeaderboardEntry, error) {
	column, ok := shooterSortColumns[category]
	if !ok {
		column = shooterSortColumns[domain.ShooterCategoryScore]
	}

	query := fmt.Sprintf(`
		SELECT id, name, badge_id, score, accuracy, survival_time, games_played
		FROM (
			SELECT id, name, badge_id,
				COALESCE((game_stats->$1::text->>'highscore')::bigint, 0) AS score,
				COALESCE((game_stats->$1::text->'shooter'->>'best_accuracy')::double precision, 0) AS accuracy,
				COALESCE((game_stats->$1::text->'shooter'->>'average_survival_time')::double precision, 0) AS survival_time,
				COALESCE((game_stats->$1::text->>'games_played')::bigint, 0) AS games_played
			FROM players
			WHERE game_stats->$1::text IS NOT NULL
		) s
		WHERE score > 0
		ORDER BY %s DESC, score DESC
		LIMIT $2
	`, column)

	rows, err := r.pool.Query(ctx, query, domain.GameShooter, limit)
	if err != nil {
		return nil, fmt.Errorf("getting shooter leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.ShooterLeaderboardEntry
	for rows.Next() {
		var entry domain.ShooterLeaderboardEntry
		err := rows.Scan(
			&entry.PlayerID,
			&entry.Name,
			&entry.BadgeID,
			&entry.Score,
			&entry.Accuracy,
			&entry.SurvivalTime,
			&entry.GamesPlayed,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning shooter entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var player domain.Player
	var stats []byte
	err := row.Scan(
		&player.ID,
		&player.BadgeID,
		&player.Name,
		&player.TotalScore,
		&player.GamesPlayed,
		&player.LastPlayed,
		&stats,
		&player.Version,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &player.GameStats); err != nil {
			return nil, fmt.Errorf("decoding game stats: %w", err)
		}
	}
	if player.GameStats == nil {
		player.GameStats = make(map[string]*domain.GameStats)
	}
	return &player, nil
}

func marshalStats(stats map[string]*domain.GameStats) ([]byte, error) {
	if stats == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshaling game stats: %w", err)
	}
	return data, nil
}
