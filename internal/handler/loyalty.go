package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/service"
)

type LoyaltyHandler struct {
	Repo repository.LoyaltyRepository
}

func (h LoyaltyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/loyalty/{phone}", h.get)
	r.Get("/loyalty/{phone}/events", h.events)
	r.Post("/loyalty/{phone}/redeem", h.redeem)
	r.Post("/loyalty/{phone}/referral", h.referral)
}

// get lazily creates the account, so a first read grants the welcome bonus.
func (h LoyaltyHandler) get(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	acct, err := h.Repo.Ensure(r.Context(), phone, service.WelcomeBonusPoints)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loyaltyPayload(acct))
}

func (h LoyaltyHandler) events(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	items, err := h.Repo.Events(r.Context(), phone, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, ev := range items {
		resp = append(resp, map[string]any{
			"points":    ev.Points,
			"reason":    ev.Reason,
			"orderId":   ev.OrderID,
			"createdAt": ev.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h LoyaltyHandler) redeem(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	var req struct {
		Points int64 `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	acct, err := h.Repo.Redeem(r.Context(), phone, req.Points)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "loyalty account not found")
		case errors.Is(err, repository.ErrInsufficientPoints):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, loyaltyPayload(acct))
}

// referral credits the referrer once the referred customer is on record.
func (h LoyaltyHandler) referral(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if _, err := h.Repo.Ensure(r.Context(), phone, service.WelcomeBonusPoints); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	acct, err := h.Repo.Accrue(r.Context(), repository.AccrueInput{
		Phone:  phone,
		Points: service.ReferralBonusPoints,
		Reason: "referral_bonus",
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loyaltyPayload(acct))
}

func loyaltyPayload(a *domain.LoyaltyAccount) map[string]any {
	tier := service.TierForPoints(a.Points)
	return map[string]any{
		"phone":           a.CustomerPhone,
		"points":          a.Points,
		"totalSpent":      a.TotalSpent,
		"ordersCompleted": a.OrdersCompleted,
		"tier":            string(tier),
		"tierDiscount":    service.TierDiscountPercent(tier),
	}
}
