package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/bus"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/service"
)

const maxUploadBytes = 10 << 20

// UploadHandler stores order photos (before/after shots) in object storage
// and records them on the order.
type UploadHandler struct {
	Storage service.Storage
	Orders  repository.OrderRepository
	Bus     *bus.Bus
}

func (h UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders/{id}/photos", h.upload)
	r.Get("/orders/{id}/photos", h.list)
}

func (h UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.Orders.Get(r.Context(), orderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind != "before" && kind != "after" {
		kind = "before"
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	key, err := h.Storage.Upload(r.Context(), "orders", kind, header.Filename, contentType, data)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	url, err := h.Storage.PresignedURL(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	photo, err := h.Orders.AddPhoto(r.Context(), orderID, kind, key, url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Bus.Publish(service.TopicOrders, "updated", orderID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   photo.ID,
		"kind": photo.Kind,
		"key":  photo.Key,
		"url":  photo.URL,
	})
}

// list re-signs stored keys so links stay valid past the original expiry.
func (h UploadHandler) list(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(order.Photos))
	for _, p := range order.Photos {
		url := p.URL
		if h.Storage != nil {
			if signed, err := h.Storage.PresignedURL(r.Context(), p.Key); err == nil {
				url = signed
			}
		}
		resp = append(resp, map[string]any{
			"id":   p.ID,
			"kind": p.Kind,
			"key":  p.Key,
			"url":  url,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
