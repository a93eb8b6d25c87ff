package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcade-profiles/internal/domain"
)

// BadgeLogin logs a badge in, or asks the client to register it
func (h *Handler) BadgeLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.LoginOrPrompt(r.Context(), req.BadgeID)
	if err != nil {
		h.writeServiceError(w, err, "failed to log in badge")
		return
	}

	h.writeSuccess(w, result)
}

// RegisterPlayer creates a player for a new badge
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	player, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "failed to register player")
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    player,
	})
}

// ListPlayers returns players ordered by total score
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.ListPlayers(r.Context(), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		h.writeServiceError(w, err, "failed to list players")
		return
	}
	if players == nil {
		players = []*domain.Player{}
	}

	h.writeSuccess(w, players)
}

// GetPlayer returns a player by badge or id
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.service.GetPlayer(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get player")
		return
	}

	h.writeSuccess(w, player)
}

// GetPlayerScores returns a player's score history for a game, best first
func (h *Handler) GetPlayerScores(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetPlayerScores(r.Context(), chi.URLParam(r, "ref"), chi.URLParam(r, "game"), queryInt(r, "limit"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get player scores")
		return
	}
	if records == nil {
		records = []domain.ScoreRecord{}
	}

	h.writeSuccess(w, records)
}
