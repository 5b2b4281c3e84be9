package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
)

type SupplierHandler struct {
	Repo repository.SupplierRepository
}

func (h SupplierHandler) RegisterRoutes(r chi.Router) {
	r.Get("/suppliers", h.list)
	r.Post("/suppliers", h.create)
	r.Put("/suppliers/{id}", h.update)
	r.Delete("/suppliers/{id}", h.delete)
}

func (h SupplierHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context(), 200)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, supplierPayload(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h SupplierHandler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSupplier(w, r)
	if !ok {
		return
	}
	s, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, supplierPayload(s))
}

func (h SupplierHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeSupplier(w, r)
	if !ok {
		return
	}
	s, err := h.Repo.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "supplier not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, supplierPayload(s))
}

// delete soft-removes the supplier and detaches its parts.
func (h SupplierHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "supplier not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func decodeSupplier(w http.ResponseWriter, r *http.Request) (repository.SaveSupplierInput, bool) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return repository.SaveSupplierInput{}, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return repository.SaveSupplierInput{}, false
	}
	return repository.SaveSupplierInput{Name: req.Name, Phone: req.Phone, Email: req.Email}, true
}

func supplierPayload(s *domain.Supplier) map[string]any {
	return map[string]any{
		"id":    s.ID,
		"name":  s.Name,
		"phone": s.Phone,
		"email": s.Email,
	}
}
