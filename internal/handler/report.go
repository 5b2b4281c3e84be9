package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/service"
)

type ReportHandler struct {
	Orders    repository.OrderRepository
	Parts     repository.PartRepository
	Dashboard repository.DashboardRepository
}

func (h ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/orders/export", h.exportOrders)
	r.Get("/reports/revenue", h.revenue)
	r.Get("/reports/revenue/export", h.exportRevenue)
	r.Get("/reports/technicians", h.technicians)
	r.Get("/reports/technicians/export", h.exportTechnicians)
	r.Get("/reports/inventory/export", h.exportInventory)
}

// reportRange defaults to the last 30 days.
func reportRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err := parseDateQuery(r, "startDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate")
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDateQuery(r, "endDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate")
		return time.Time{}, time.Time{}, false
	}
	to := time.Now()
	if end != nil {
		to = end.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -30)
	if start != nil {
		from = *start
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "startDate must be before endDate")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h ReportHandler) exportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List(r.Context(), repository.ListOrdersFilter{Limit: 2000})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := service.ExportOrdersCSV(orders)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	serveAttachment(w, data, "text/csv; charset=utf-8", fmt.Sprintf("orders_%s.csv", time.Now().Format("20060102_150405")))
}

func (h ReportHandler) revenue(w http.ResponseWriter, r *http.Request) {
	from, to, ok := reportRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Dashboard.Revenue(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, map[string]any{
			"date":    row.Date,
			"orders":  row.Orders,
			"revenue": row.Revenue,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ReportHandler) exportRevenue(w http.ResponseWriter, r *http.Request) {
	from, to, ok := reportRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Dashboard.Revenue(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := service.ExportRevenueCSV(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := fmt.Sprintf("revenue_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	serveAttachment(w, data, "text/csv; charset=utf-8", name)
}

func (h ReportHandler) technicians(w http.ResponseWriter, r *http.Request) {
	from, to, ok := reportRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Dashboard.TechnicianPerformance(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, map[string]any{
			"name":      row.Name,
			"completed": row.Completed,
			"avgRating": row.AvgRating,
			"revenue":   row.Revenue,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ReportHandler) exportTechnicians(w http.ResponseWriter, r *http.Request) {
	from, to, ok := reportRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Dashboard.TechnicianPerformance(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	data, err := service.ExportTechnicianPerformanceCSV(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := fmt.Sprintf("technicians_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	serveAttachment(w, data, "text/csv; charset=utf-8", name)
}

func (h ReportHandler) exportInventory(w http.ResponseWriter, r *http.Request) {
	parts, err := h.Parts.List(r.Context(), 2000)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	suffix := time.Now().Format("20060102_150405")
	switch r.URL.Query().Get("format") {
	case "xlsx", "excel":
		data, err := service.ExportInventoryXLSX(parts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		serveAttachment(w, data,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			fmt.Sprintf("inventory_%s.xlsx", suffix))
	default:
		data, err := service.ExportInventoryCSV(parts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		serveAttachment(w, data, "text/csv; charset=utf-8", fmt.Sprintf("inventory_%s.csv", suffix))
	}
}

func serveAttachment(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}
