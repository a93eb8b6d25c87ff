package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/arcade-profiles/internal/domain"
)

// AppendScore appends a record to the ledger and fills in its ID
func (s *Store) AppendScore(_ context.Context, record *domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	record.ID = s.nextID
	s.scores = append(s.scores, *record)
	return nil
}

// MaxLevel returns the highest level recorded for a player in a game, or 0
func (s *Store) MaxLevel(_ context.Context, playerID, gameName string) (int64, error) {
	var level int64
	for _, rec := range s.records(playerID, gameName) {
		level = max(level, rec.Level)
	}
	return level, nil
}

// PlayerScores returns a player's records for a game, best first
func (s *Store) PlayerScores(_ context.Context, playerID, gameName string, limit int) ([]domain.ScoreRecord, error) {
	records := s.records(playerID, gameName)
	slices.SortStableFunc(records, func(a, b domain.ScoreRecord) int {
		return compareRank(gameName, a, b)
	})
	return page(records, limit, 0), nil
}

// RecentScores returns a player's records for a game, newest first
func (s *Store) RecentScores(_ context.Context, playerID, gameName string, limit int) ([]domain.ScoreRecord, error) {
	records := s.records(playerID, gameName)
	slices.SortFunc(records, func(a, b domain.ScoreRecord) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return page(records, limit, 0), nil
}

// Highscores returns each player's best record for a game, ranked
func (s *Store) Highscores(_ context.Context, gameName string, limit int) ([]domain.HighscoreEntry, error) {
	best := s.best(gameName)

	s.mu.RLock()
	entries := make([]domain.HighscoreEntry, 0, len(best))
	for _, rec := range best {
		p, ok := s.players[rec.PlayerID]
		if !ok {
			continue
		}
		entries = append(entries, domain.HighscoreEntry{
			PlayerID:  rec.PlayerID,
			Name:      p.Name,
			BadgeID:   p.BadgeID,
			Score:     rec.Score,
			Level:     rec.Level,
			Duration:  rec.Duration,
			CreatedAt: rec.CreatedAt,
		})
	}
	s.mu.RUnlock()

	entries = page(entries, limit, 0)
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries, nil
}

// TopScores returns the highest records across all games
func (s *Store) TopScores(_ context.Context, limit int) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	entries := make([]domain.ScoreEntry, 0, len(s.scores))
	for _, rec := range s.scores {
		p, ok := s.players[rec.PlayerID]
		if !ok {
			continue
		}
		entries = append(entries, domain.ScoreEntry{ScoreRecord: rec, Name: p.Name, BadgeID: p.BadgeID})
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b domain.ScoreEntry) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return page(entries, limit, 0), nil
}

// BestRankValues returns every player's best rank value for a game
func (s *Store) BestRankValues(_ context.Context, gameName string) (map[string]float64, error) {
	best := s.best(gameName)
	values := make(map[string]float64, len(best))
	for _, rec := range best {
		values[rec.PlayerID] = domain.RankValue(gameName, rec.Level, rec.Score)
	}
	return values, nil
}

// ListGames returns every game that has at least one ledger record
func (s *Store) ListGames(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var games []string
	for _, rec := range s.scores {
		if !slices.Contains(games, rec.GameName) {
			games = append(games, rec.GameName)
		}
	}
	slices.Sort(games)
	return games, nil
}

// records copies the ledger rows of a player in a game, in insertion order
func (s *Store) records(playerID, gameName string) []domain.ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScoreRecord
	for _, rec := range s.scores {
		if rec.PlayerID == playerID && rec.GameName == gameName {
			out = append(out, rec)
		}
	}
	return out
}

// best returns one best record per player, ranked
func (s *Store) best(gameName string) []domain.ScoreRecord {
	s.mu.RLock()
	byPlayer := make(map[string]domain.ScoreRecord)
	for _, rec := range s.scores {
		if rec.GameName != gameName {
			continue
		}
		current, ok := byPlayer[rec.PlayerID]
		if !ok || compareRank(gameName, rec, current) < 0 {
			byPlayer[rec.PlayerID] = rec
		}
	}
	s.mu.RUnlock()

	best := make([]domain.ScoreRecord, 0, len(byPlayer))
	for _, rec := range byPlayer {
		best = append(best, rec)
	}
	slices.SortFunc(best, func(a, b domain.ScoreRecord) int {
		return cmp.Or(compareRank(gameName, a, b), cmp.Compare(a.PlayerID, b.PlayerID))
	})
	return best
}

// compareRank orders a before b when a ranks higher; earlier records win ties
func compareRank(gameName string, a, b domain.ScoreRecord) int {
	c := 0
	if domain.RanksByLevel(gameName) {
		c = cmp.Compare(b.Level, a.Level)
	}
	return cmp.Or(c, cmp.Compare(b.Score, a.Score), a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}
