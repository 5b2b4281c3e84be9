package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
)

type TechnicianHandler struct {
	Repo repository.TechnicianRepository
}

func (h TechnicianHandler) RegisterRoutes(r chi.Router) {
	r.Get("/technicians", h.list)
	r.Post("/technicians", h.create)
	r.Get("/technicians/{id}", h.get)
	r.Put("/technicians/{id}", h.update)
	r.Delete("/technicians/{id}", h.delete)
}

type technicianRequestBody struct {
	UserID          *int64   `json:"userId"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	Specializations []string `json:"specializations"`
	Active          *bool    `json:"active"`
	Permissions     struct {
		EditInvoice    bool `json:"editInvoice"`
		CompleteOrders bool `json:"completeOrders"`
		RequestParts   bool `json:"requestParts"`
	} `json:"permissions"`
}

func (b technicianRequestBody) toInput() repository.SaveTechnicianInput {
	active := true
	if b.Active != nil {
		active = *b.Active
	}
	return repository.SaveTechnicianInput{
		UserID:          b.UserID,
		Name:            b.Name,
		Phone:           b.Phone,
		Specializations: b.Specializations,
		Active:          active,
		Permissions: domain.TechnicianPermissions{
			EditInvoice:    b.Permissions.EditInvoice,
			CompleteOrders: b.Permissions.CompleteOrders,
			RequestParts:   b.Permissions.RequestParts,
		},
	}
}

func (h TechnicianHandler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	items, err := h.Repo.List(r.Context(), activeOnly, 200)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, technicianPayload(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h TechnicianHandler) create(w http.ResponseWriter, r *http.Request) {
	var req technicianRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	tech, err := h.Repo.Create(r.Context(), req.toInput())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, technicianPayload(tech))
}

func (h TechnicianHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tech, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "technician not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, technicianPayload(tech))
}

func (h TechnicianHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req technicianRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	tech, err := h.Repo.Update(r.Context(), id, req.toInput())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "technician not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, technicianPayload(tech))
}

func (h TechnicianHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "technician not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func technicianPayload(t *domain.Technician) map[string]any {
	return map[string]any{
		"id":              t.ID,
		"userId":          t.UserID,
		"name":            t.Name,
		"phone":           t.Phone,
		"specializations": t.Specializations,
		"active":          t.Active,
		"permissions": map[string]any{
			"editInvoice":    t.Permissions.EditInvoice,
			"completeOrders": t.Permissions.CompleteOrders,
			"requestParts":   t.Permissions.RequestParts,
		},
		"createdAt": t.CreatedAt.Format(time.RFC3339),
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
