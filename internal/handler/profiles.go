package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcade-profiles/internal/domain"
)

// GetPlatformProfile returns the platform game profile of a player
func (h *Handler) GetPlatformProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetPlatformProfile(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get platform profile")
		return
	}

	h.writeSuccess(w, profile)
}

// UpdatePlatformProfile applies a partial platform profile write
func (h *Handler) UpdatePlatformProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.PlatformProfileUpdate
	if err := decodeAndValidate(r, &update); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := h.service.UpdatePlatformProfile(r.Context(), chi.URLParam(r, "ref"), update)
	if err != nil {
		h.writeServiceError(w, err, "failed to update platform profile")
		return
	}

	h.writeSuccess(w, profile)
}

// UnlockLevel unlocks one platform level
func (h *Handler) UnlockLevel(w http.ResponseWriter, r *http.Request) {
	var req domain.UnlockRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := h.service.UnlockLevel(r.Context(), chi.URLParam(r, "ref"), req.Level)
	if err != nil {
		h.writeServiceError(w, err, "failed to unlock level")
		return
	}

	h.writeSuccess(w, profile)
}

// PurchaseSkin buys a cosmetic
func (h *Handler) PurchaseSkin(w http.ResponseWriter, r *http.Request) {
	h.handlePurchase(w, r, h.service.PurchaseSkin, "failed to purchase skin")
}

// PurchaseAbility buys an ability
func (h *Handler) PurchaseAbility(w http.ResponseWriter, r *http.Request) {
	h.handlePurchase(w, r, h.service.PurchaseAbility, "failed to purchase ability")
}

type purchaseFunc func(ctx context.Context, ref string, req domain.PurchaseRequest) (*domain.PurchaseResult, error)

// handlePurchase answers a declined purchase with 200 and success false
func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request, buy purchaseFunc, failure string) {
	var req domain.PurchaseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := buy(r.Context(), chi.URLParam(r, "ref"), req)
	if err != nil {
		h.writeServiceError(w, err, failure)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: result.Success,
		Data:    result,
		Error:   result.Reason,
	})
}

// EquipSkin equips an owned cosmetic
func (h *Handler) EquipSkin(w http.ResponseWriter, r *http.Request) {
	var req domain.EquipRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := h.service.EquipSkin(r.Context(), chi.URLParam(r, "ref"), req.ItemID)
	if err != nil {
		h.writeServiceError(w, err, "failed to equip skin")
		return
	}

	h.writeSuccess(w, profile)
}

// SyncLevels reconciles unlocked levels with the score ledger
func (h *Handler) SyncLevels(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.SyncLevels(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, err, "failed to sync levels")
		return
	}

	h.writeSuccess(w, profile)
}

// CompleteLevel records a finished platform level
func (h *Handler) CompleteLevel(w http.ResponseWriter, r *http.Request) {
	var outcome domain.LevelOutcome
	if err := decodeAndValidate(r, &outcome); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.CompleteLevel(r.Context(), chi.URLParam(r, "ref"), outcome.ToCompletion())
	if err != nil {
		h.writeServiceError(w, err, "failed to complete level")
		return
	}

	h.writeSuccess(w, result)
}

// GetShooterProfile returns the shooter game profile of a player
func (h *Handler) GetShooterProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetShooterProfile(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get shooter profile")
		return
	}

	h.writeSuccess(w, profile)
}

// UpdateShooterProfile applies a partial shooter profile write
func (h *Handler) UpdateShooterProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ShooterProfileUpdate
	if err := decodeAndValidate(r, &update); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := h.service.UpdateShooterProfile(r.Context(), chi.URLParam(r, "ref"), update)
	if err != nil {
		h.writeServiceError(w, err, "failed to update shooter profile")
		return
	}

	h.writeSuccess(w, profile)
}

// GetShooterAnalytics summarises a player's recent shooter sessions
func (h *Handler) GetShooterAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.GetShooterAnalytics(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, err, "failed to get shooter analytics")
		return
	}

	h.writeSuccess(w, analytics)
}
