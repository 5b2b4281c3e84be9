package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"repairhub-backend/internal/config"
	"repairhub-backend/internal/domain"
	"repairhub-backend/internal/handler"
)

// Handlers groups every HTTP handler wired into the router.
type Handlers struct {
	Health       handler.HealthHandler
	Docs         handler.DocsHandler
	Auth         handler.AuthHandler
	Stream       handler.StreamHandler
	Order        handler.OrderHandler
	Technician   handler.TechnicianHandler
	Request      handler.RequestHandler
	Supplier     handler.SupplierHandler
	Part         handler.PartHandler
	Loyalty      handler.LoyaltyHandler
	Notification handler.NotificationHandler
	AuditLog     handler.AuditLogHandler
	Checkin      handler.CheckinHandler
	Estimate     handler.EstimateHandler
	Report       handler.ReportHandler
	Dashboard    handler.DashboardHandler
	Upload       handler.UploadHandler
}

func NewRouter(cfg config.Config, log *slog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	r.Handle("/metrics", promhttp.Handler())

	// Public routes.
	h.Health.RegisterRoutes(r)
	h.Docs.RegisterRoutes(r)
	h.Auth.RegisterRoutes(r)

	// Authenticated routes, any role.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		h.Auth.RegisterProtectedRoutes(r)
		h.Stream.RegisterRoutes(r)
		h.Order.RegisterRoutes(r)
		h.Request.RegisterRoutes(r)
		h.Notification.RegisterRoutes(r)
		h.Loyalty.RegisterRoutes(r)
		h.Checkin.RegisterRoutes(r)
		h.Estimate.RegisterRoutes(r)
		h.Upload.RegisterRoutes(r)

		// Admin-only management surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))

			h.Technician.RegisterRoutes(r)
			h.Supplier.RegisterRoutes(r)
			h.Part.RegisterRoutes(r)
			h.Request.RegisterAdminRoutes(r)
			h.Estimate.RegisterAdminRoutes(r)
			h.AuditLog.RegisterRoutes(r)
			h.Report.RegisterRoutes(r)
			h.Dashboard.RegisterRoutes(r)
		})
	})

	return r
}
