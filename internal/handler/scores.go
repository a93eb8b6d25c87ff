package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcade-profiles/internal/domain"
	"github.com/arcade-profiles/internal/validation"
)

// SubmitScore records one session outcome
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var outcome domain.SessionOutcome
	if err := decodeAndValidate(r, &outcome); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.SubmitScore(r.Context(), outcome.ToSubmission())
	if err != nil {
		h.writeServiceError(w, err, "failed to submit score")
		return
	}

	h.writeSuccess(w, result)
}

// SubmitScoreBatch records several session outcomes. Invalid entries are skipped.
func (h *Handler) SubmitScoreBatch(w http.ResponseWriter, r *http.Request) {
	var batch domain.BatchSessionOutcome
	if err := decodeAndValidate(r, &batch); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	submissions := make([]domain.ScoreSubmission, 0, len(batch.Sessions))
	for i, outcome := range batch.Sessions {
		if err := validation.Validate(outcome); err != nil {
			h.logger.Warn("skipping invalid session in batch", "index", i, "error", err)
			continue
		}
		submissions = append(submissions, outcome.ToSubmission())
	}

	accepted := h.service.SubmitScoreBatch(r.Context(), submissions)

	h.writeSuccess(w, map[string]any{
		"status":   "accepted",
		"received": len(batch.Sessions),
		"accepted": accepted,
	})
}

// GetHighscores returns a game's leaderboard, one best entry per player
func (h *Handler) GetHighscores(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetHighscores(r.Context(), chi.URLParam(r, "game"), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get highscores")
		return
	}
	if entries == nil {
		entries = []domain.HighscoreEntry{}
	}

	h.writeSuccess(w, entries)
}

// GetTopScores returns the best sessions across all games
func (h *Handler) GetTopScores(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetTopScores(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get scores")
		return
	}
	if entries == nil {
		entries = []domain.ScoreEntry{}
	}

	h.writeSuccess(w, entries)
}

// GetPlayerRank returns a player's position in a game
func (h *Handler) GetPlayerRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetPlayerRank(r.Context(), chi.URLParam(r, "game"), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get player rank")
		return
	}

	h.writeSuccess(w, entry)
}

// GetShooterLeaderboard ranks shooter players by one category
func (h *Handler) GetShooterLeaderboard(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "game") != domain.GameShooter {
		h.writeError(w, http.StatusNotFound, domain.ErrUnknownGame)
		return
	}

	entries, err := h.service.GetShooterLeaderboard(r.Context(), chi.URLParam(r, "category"), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get shooter leaderboard")
		return
	}
	if entries == nil {
		entries = []domain.ShooterLeaderboardEntry{}
	}

	h.writeSuccess(w, entries)
}
