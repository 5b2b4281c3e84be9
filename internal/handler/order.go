package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/config"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/server/authctx"
	"repairhub-backend/internal/service"
)

type OrderHandler struct {
	Config      config.Config
	Service     service.OrderService
	Repo        repository.OrderRepository
	Technicians repository.TechnicianRepository
}

func (h OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Post("/orders/{id}/status", h.changeStatus)
	r.Post("/orders/{id}/assign", h.assign)
	r.Put("/orders/{id}/invoice", h.setInvoiceTerms)
	r.Get("/orders/{id}/invoice", h.invoice)
	r.Post("/orders/{id}/items", h.addItem)
	r.Post("/orders/{id}/rating", h.rate)
	r.Get("/orders/{id}/history", h.history)
	r.Get("/orders/{id}/whatsapp-link", h.whatsappLink)
}

func (h OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerName  string   `json:"customerName"`
		CustomerPhone string   `json:"customerPhone"`
		CustomerEmail string   `json:"customerEmail"`
		Device        string   `json:"device"`
		Brand         string   `json:"brand"`
		Model         string   `json:"model"`
		Issue         string   `json:"issue"`
		Address       string   `json:"address"`
		Latitude      *float64 `json:"latitude"`
		Longitude     *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CustomerName == "" || req.CustomerPhone == "" || req.Issue == "" {
		writeError(w, http.StatusBadRequest, "customerName, customerPhone and issue are required")
		return
	}
	order, err := h.Service.Create(r.Context(), repository.CreateOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Device:        req.Device,
		Brand:         req.Brand,
		Model:         req.Model,
		Issue:         req.Issue,
		Address:       req.Address,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		VATEnabled:    true,
		VATRate:       h.Config.DefaultVATRate,
	}, actorName(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, orderPayload(order))
}

func (h OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	f := repository.ListOrdersFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Phone:  r.URL.Query().Get("phone"),
	}
	if f.Status != "" && !domain.ValidOrderStatus(f.Status) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if raw := r.URL.Query().Get("technicianId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid technicianId")
			return
		}
		f.TechnicianID = &id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			f.Limit = parsed
		}
	}

	// Technicians only see their own queue.
	if user := authctx.FromContext(r.Context()); user != nil && user.Role == domain.RoleTechnician {
		tech, err := h.Technicians.GetByUserID(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusForbidden, "no technician profile")
			return
		}
		f.TechnicianID = &tech.ID
	}

	orders, err := h.Repo.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(orders))
	for i := range orders {
		resp = append(resp, orderPayload(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(order))
}

func (h OrderHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	to := domain.OrderStatus(req.Status)
	if !domain.ValidOrderStatus(to) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	order, err := h.Service.ChangeStatus(r.Context(), id, to, actorName(r), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, orderPayload(order))
}

func (h OrderHandler) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		TechnicianID int64 `json:"technicianId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TechnicianID == 0 {
		writeError(w, http.StatusBadRequest, "technicianId is required")
		return
	}
	if err := h.Service.AssignTechnician(r.Context(), id, req.TechnicianID, actorName(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h OrderHandler) setInvoiceTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Discount   float64  `json:"discount"`
		VATEnabled bool     `json:"vatEnabled"`
		VATRate    *float64 `json:"vatRate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Discount < 0 {
		writeError(w, http.StatusBadRequest, "discount must not be negative")
		return
	}
	rate := h.Config.DefaultVATRate
	if req.VATRate != nil {
		rate = *req.VATRate
	}
	if err := h.Service.SetInvoiceTerms(r.Context(), id, req.Discount, req.VATEnabled, rate, actorName(r)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h OrderHandler) invoice(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	totals := service.ComputeInvoiceTotals(order.Items, order.Discount, order.VATEnabled, order.VATRate)
	items := make([]map[string]any, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]any{
			"id":          it.ID,
			"description": it.Description,
			"qty":         it.Qty,
			"unitPrice":   it.UnitPrice,
			"lineTotal":   float64(it.Qty) * it.UnitPrice,
			"requestId":   it.RequestID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderCode":     order.Code,
		"currency":      h.Config.CurrencyCode,
		"items":         items,
		"subtotal":      totals.Subtotal,
		"discount":      totals.Discount,
		"afterDiscount": totals.AfterDiscount,
		"vatEnabled":    order.VATEnabled,
		"vatRate":       order.VATRate,
		"vatAmount":     totals.VATAmount,
		"total":         totals.Total,
	})
}

func (h OrderHandler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Description string  `json:"description"`
		Qty         int     `json:"qty"`
		UnitPrice   float64 `json:"unitPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Qty <= 0 {
		req.Qty = 1
	}
	item, err := h.Service.AddItem(r.Context(), id, repository.AddItemInput{
		Description: req.Description,
		Qty:         req.Qty,
		UnitPrice:   req.UnitPrice,
	}, actorName(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          item.ID,
		"description": item.Description,
		"qty":         item.Qty,
		"unitPrice":   item.UnitPrice,
	})
}

func (h OrderHandler) rate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if err := h.Service.Rate(r.Context(), id, req.Rating, req.Comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "completed order not found")
			return
		}
		if errors.Is(err, service.ErrAlreadyRated) {
			writeError(w, http.StatusConflict, "order already rated")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h OrderHandler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	changes, err := h.Repo.StatusHistory(r.Context(), id, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(changes))
	for _, c := range changes {
		resp = append(resp, map[string]any{
			"from":      string(c.From),
			"to":        string(c.To),
			"changedBy": c.ChangedBy,
			"note":      c.Note,
			"changedAt": c.ChangedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h OrderHandler) whatsappLink(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	message := r.URL.Query().Get("message")
	if message == "" {
		message = service.OrderStatusMessage(order)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"link":    service.WhatsAppLink(order.CustomerPhone, message),
		"message": message,
	})
}

func (h OrderHandler) loadOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	order, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return order, true
}

func actorName(r *http.Request) string {
	if user := authctx.FromContext(r.Context()); user != nil {
		return user.Email
	}
	return "anonymous"
}

func orderPayload(o *domain.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"id":          it.ID,
			"description": it.Description,
			"qty":         it.Qty,
			"unitPrice":   it.UnitPrice,
			"requestId":   it.RequestID,
		})
	}
	photos := make([]map[string]any, 0, len(o.Photos))
	for _, p := range o.Photos {
		photos = append(photos, map[string]any{
			"id":   p.ID,
			"kind": p.Kind,
			"url":  p.URL,
			"key":  p.Key,
		})
	}
	return map[string]any{
		"id":            o.ID,
		"code":          o.Code,
		"customerName":  o.CustomerName,
		"customerPhone": o.CustomerPhone,
		"customerEmail": o.CustomerEmail,
		"device":        o.Device,
		"brand":         o.Brand,
		"model":         o.Model,
		"issue":         o.Issue,
		"address":       o.Address,
		"latitude":      o.Latitude,
		"longitude":     o.Longitude,
		"status":        string(o.Status),
		"technicianId":  o.TechnicianID,
		"technician":    o.Technician,
		"discount":      o.Discount,
		"vatEnabled":    o.VATEnabled,
		"vatRate":       o.VATRate,
		"rating":        o.Rating,
		"ratingComment": o.RatingComment,
		"items":         items,
		"photos":        photos,
		"createdAt":     o.CreatedAt.Format(time.RFC3339),
		"updatedAt":     o.UpdatedAt.Format(time.RFC3339),
	}
}
