package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/config"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/server/authctx"
	"repairhub-backend/internal/service"
)

// CheckinHandler records technician GPS check-ins against order locations.
type CheckinHandler struct {
	Config      config.Config
	Repo        repository.AttendanceRepository
	Orders      repository.OrderRepository
	Technicians repository.TechnicianRepository
}

func (h CheckinHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders/{id}/checkin", h.checkIn)
	r.Post("/orders/{id}/checkout", h.checkOut)
	r.Get("/technicians/{id}/attendance", h.listAttendance)
}

func (h CheckinHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	tech, ok := h.currentTechnician(w, r)
	if !ok {
		return
	}
	var req struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Accuracy  *float64 `json:"accuracy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
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
	if order.Latitude == nil || order.Longitude == nil {
		writeError(w, http.StatusConflict, "order has no location on record")
		return
	}

	distance := service.HaversineKM(req.Latitude, req.Longitude, *order.Latitude, *order.Longitude)
	if !service.WithinDistance(distance, h.Config.CheckinRadiusKM) {
		writeError(w, http.StatusConflict, fmt.Sprintf(
			"check-in is %.2f km from the order location (limit %.2f km)",
			distance, h.Config.CheckinRadiusKM))
		return
	}

	att, err := h.Repo.CheckIn(r.Context(), repository.CheckInInput{
		TechnicianID: tech.ID,
		OrderID:      orderID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Accuracy:     req.Accuracy,
		DistanceKM:   distance,
		WithinRange:  true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, attendancePayload(att))
}

func (h CheckinHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	tech, ok := h.currentTechnician(w, r)
	if !ok {
		return
	}
	att, err := h.Repo.CheckOut(r.Context(), tech.ID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no open check-in for this order")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, attendancePayload(att))
}

func (h CheckinHandler) listAttendance(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.Repo.ListByTechnician(r.Context(), technicianID, 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, attendancePayload(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h CheckinHandler) currentTechnician(w http.ResponseWriter, r *http.Request) (*domain.Technician, bool) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	tech, err := h.Technicians.GetByUserID(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusForbidden, "no technician profile")
		return nil, false
	}
	return tech, true
}

func attendancePayload(a *domain.Attendance) map[string]any {
	out := map[string]any{
		"id":           a.ID,
		"technicianId": a.TechnicianID,
		"orderId":      a.OrderID,
		"latitude":     a.Latitude,
		"longitude":    a.Longitude,
		"accuracy":     a.Accuracy,
		"distanceKm":   a.DistanceKM,
		"withinRange":  a.WithinRange,
	}
	if a.CheckIn != nil {
		out["checkIn"] = a.CheckIn.Format(time.RFC3339)
	}
	if a.CheckOut != nil {
		out["checkOut"] = a.CheckOut.Format(time.RFC3339)
	}
	return out
}
