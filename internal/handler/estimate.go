package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/service"
)

type EstimateHandler struct {
	Service service.EstimateService
}

func (h EstimateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/estimate", h.estimate)
}

func (h EstimateHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/estimate/overrides", h.listOverrides)
	r.Put("/estimate/overrides", h.setOverride)
	r.Delete("/estimate/overrides", h.removeOverride)
}

func (h EstimateHandler) estimate(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	issue := r.URL.Query().Get("issue")
	if issue == "" {
		writeError(w, http.StatusBadRequest, "issue is required")
		return
	}
	minutes, err := h.Service.Estimate(r.Context(), device, issue)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device":  device,
		"issue":   issue,
		"minutes": minutes,
	})
}

func (h EstimateHandler) listOverrides(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListOverrides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, o := range items {
		item := map[string]any{
			"device":  o.DeviceCategory,
			"issue":   o.Issue,
			"minutes": o.Minutes,
		}
		if !o.UpdatedAt.IsZero() {
			item["updatedAt"] = o.UpdatedAt.Format(time.RFC3339)
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h EstimateHandler) setOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Device  string `json:"device"`
		Issue   string `json:"issue"`
		Minutes int    `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Issue == "" || req.Minutes <= 0 {
		writeError(w, http.StatusBadRequest, "issue and a positive minutes value are required")
		return
	}
	if err := h.Service.SetOverride(r.Context(), req.Device, req.Issue, req.Minutes); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h EstimateHandler) removeOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Device string `json:"device"`
		Issue  string `json:"issue"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Service.RemoveOverride(r.Context(), req.Device, req.Issue); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "override not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
