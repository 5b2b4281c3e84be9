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
	"repairhub-backend/internal/server/authctx"
	"repairhub-backend/internal/service"
)

type RequestHandler struct {
	Service     service.RequestService
	Repo        repository.RequestRepository
	Technicians repository.TechnicianRepository
}

func (h RequestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/requests", h.create)
	r.Get("/requests", h.list)
	r.Get("/requests/{id}", h.get)
	r.Get("/requests/{id}/price-changes", h.priceChanges)
	r.Post("/requests/{id}/price", h.revisePrice)
}

// RegisterAdminRoutes holds the approval endpoint behind the admin group.
func (h RequestHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/requests/{id}/decision", h.decide)
}

func (h RequestHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		OrderID        int64   `json:"orderId"`
		TechnicianID   int64   `json:"technicianId"`
		Category       string  `json:"category"`
		Description    string  `json:"description"`
		EstimatedPrice float64 `json:"estimatedPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	category := domain.RequestCategory(req.Category)
	if category != domain.RequestSparePart && category != domain.RequestAdditionalService {
		writeError(w, http.StatusBadRequest, "category must be spare_part or additional_service")
		return
	}
	if req.OrderID == 0 || req.Description == "" {
		writeError(w, http.StatusBadRequest, "orderId and description are required")
		return
	}

	// Technicians always file under their own profile.
	if user.Role == domain.RoleTechnician {
		tech, err := h.Technicians.GetByUserID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusForbidden, "no technician profile")
			return
		}
		req.TechnicianID = tech.ID
	}
	if req.TechnicianID == 0 {
		writeError(w, http.StatusBadRequest, "technicianId is required")
		return
	}

	created, err := h.Service.Create(r.Context(), repository.CreateRequestInput{
		OrderID:        req.OrderID,
		TechnicianID:   req.TechnicianID,
		Category:       category,
		Description:    req.Description,
		EstimatedPrice: req.EstimatedPrice,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPermissionDenied):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "technician not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, requestPayload(created))
}

func (h RequestHandler) list(w http.ResponseWriter, r *http.Request) {
	f := repository.ListRequestsFilter{
		Status: domain.RequestStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("orderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid orderId")
			return
		}
		f.OrderID = &id
	}
	if user := authctx.FromContext(r.Context()); user != nil && user.Role == domain.RoleTechnician {
		tech, err := h.Technicians.GetByUserID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusForbidden, "no technician profile")
			return
		}
		f.TechnicianID = &tech.ID
	}
	items, err := h.Repo.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for i := range items {
		resp = append(resp, requestPayload(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h RequestHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "request not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, requestPayload(req))
}

func (h RequestHandler) priceChanges(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	changes, err := h.Repo.PriceChanges(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(changes))
	for _, c := range changes {
		resp = append(resp, map[string]any{
			"oldPrice":  c.OldPrice,
			"newPrice":  c.NewPrice,
			"changedBy": c.ChangedBy,
			"reason":    c.Reason,
			"changedAt": c.ChangedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h RequestHandler) revisePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Price  float64 `json:"price"`
		Reason string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	revised, err := h.Service.RevisePrice(r.Context(), id, req.Price, actorName(r), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		case errors.Is(err, repository.ErrRequestDecided):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, requestPayload(revised))
}

func (h RequestHandler) decide(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Approve    bool     `json:"approve"`
		FinalPrice *float64 `json:"finalPrice"`
		PartID     *int64   `json:"partId"`
		Qty        int      `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	decided, err := h.Service.Decide(r.Context(), id, service.DecideRequestInput{
		Approve:    req.Approve,
		FinalPrice: req.FinalPrice,
		DecidedBy:  user.ID,
		ActorName:  user.Email,
		PartID:     req.PartID,
		Qty:        req.Qty,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		case errors.Is(err, repository.ErrRequestDecided):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, requestPayload(decided))
}

func requestPayload(req *domain.TechnicianRequest) map[string]any {
	out := map[string]any{
		"id":             req.ID,
		"orderId":        req.OrderID,
		"technicianId":   req.TechnicianID,
		"technician":     req.TechnicianName,
		"category":       string(req.Category),
		"description":    req.Description,
		"estimatedPrice": req.EstimatedPrice,
		"finalPrice":     req.FinalPrice,
		"status":         string(req.Status),
		"createdAt":      req.CreatedAt.Format(time.RFC3339),
	}
	if req.DecidedAt != nil {
		out["decidedAt"] = req.DecidedAt.Format(time.RFC3339)
		out["decidedBy"] = req.DecidedBy
	}
	return out
}
