package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/bus"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/service"
)

type PartHandler struct {
	Repo repository.PartRepository
	Bus  *bus.Bus
}

func (h PartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/parts", h.list)
	r.Post("/parts", h.create)
	r.Get("/parts/low-stock", h.lowStock)
	r.Get("/parts/{id}", h.get)
	r.Put("/parts/{id}", h.update)
	r.Delete("/parts/{id}", h.delete)
	r.Post("/parts/adjust", h.adjust)
	r.Get("/parts/{id}/history", h.history)
}

func (h PartHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context(), 500)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, partPayload(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h PartHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListLowStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, partPayload(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h PartHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	part, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, partPayload(part))
}

func (h PartHandler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePart(w, r)
	if !ok {
		return
	}
	part, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "sku already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Bus.Publish(service.TopicParts, "created", part.ID)
	writeJSON(w, http.StatusCreated, partPayload(part))
}

func (h PartHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodePart(w, r)
	if !ok {
		return
	}
	part, err := h.Repo.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Bus.Publish(service.TopicParts, "updated", part.ID)
	writeJSON(w, http.StatusOK, partPayload(part))
}

func (h PartHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Bus.Publish(service.TopicParts, "deleted", id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h PartHandler) adjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartID int64  `json:"partId"`
		Change int    `json:"change"`
		Type   string `json:"type"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.PartID == 0 {
		writeError(w, http.StatusBadRequest, "partId is required")
		return
	}
	if req.Type == "" {
		req.Type = "adjust"
	}
	part, err := h.Repo.Adjust(r.Context(), repository.AdjustStockInput{
		PartID: req.PartID,
		Change: req.Change,
		Type:   req.Type,
		Note:   req.Note,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "part not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Bus.Publish(service.TopicParts, "updated", part.ID)
	writeJSON(w, http.StatusOK, partPayload(part))
}

func (h PartHandler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := h.Repo.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func decodePart(w http.ResponseWriter, r *http.Request) (repository.SavePartInput, bool) {
	var req struct {
		Name       string  `json:"name"`
		SKU        string  `json:"sku"`
		Quantity   int     `json:"quantity"`
		MinStock   int     `json:"minStock"`
		UnitPrice  float64 `json:"unitPrice"`
		SupplierID *int64  `json:"supplierId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return repository.SavePartInput{}, false
	}
	if req.Name == "" || req.SKU == "" {
		writeError(w, http.StatusBadRequest, "name and sku are required")
		return repository.SavePartInput{}, false
	}
	return repository.SavePartInput{
		Name:       req.Name,
		SKU:        req.SKU,
		Quantity:   req.Quantity,
		MinStock:   req.MinStock,
		UnitPrice:  req.UnitPrice,
		SupplierID: req.SupplierID,
	}, true
}

func partPayload(p *domain.Part) map[string]any {
	return map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"sku":        p.SKU,
		"quantity":   p.Quantity,
		"minStock":   p.MinStock,
		"unitPrice":  p.UnitPrice,
		"supplierId": p.SupplierID,
		"supplier":   p.Supplier,
		"status":     service.StockStatus(p.Quantity, p.MinStock),
	}
}
