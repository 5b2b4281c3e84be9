package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/repository"
)

type AuditLogHandler struct {
	Repo repository.AuditLogRepository
}

func (h AuditLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audit-logs", h.list)
}

func (h AuditLogHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := h.Repo.List(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, l := range items {
		resp = append(resp, map[string]any{
			"id":       l.ID,
			"action":   l.Action,
			"category": l.Category,
			"actor":    l.Actor,
			"details":  l.Details,
			"type":     string(l.Type),
			"loggedAt": l.LoggedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
