package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
	"repairhub-backend/internal/bus"
	"repairhub-backend/internal/config"
	"repairhub-backend/internal/db"
	"repairhub-backend/internal/handler"
	"repairhub-backend/internal/repository"
	"repairhub-backend/internal/server"
	"repairhub-backend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Firebase Auth (optional)
	var firebaseAuth *auth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client
	}

	// S3 photo storage (optional)
	var storage service.Storage
	if cfg.S3Bucket != "" {
		s3, err := service.NewS3Storage(ctx, cfg)
		if err != nil {
			logger.Error("failed to init s3 storage", "err", err)
			os.Exit(1)
		}
		storage = s3
	}

	eventBus := bus.New()

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	orderRepo := repository.OrderRepository{DB: pg}
	technicianRepo := repository.TechnicianRepository{DB: pg}
	requestRepo := repository.RequestRepository{DB: pg}
	supplierRepo := repository.SupplierRepository{DB: pg}
	partRepo := repository.PartRepository{DB: pg}
	loyaltyRepo := repository.LoyaltyRepository{DB: pg}
	notificationRepo := repository.NotificationRepository{DB: pg}
	auditRepo := repository.AuditLogRepository{DB: pg}
	attendanceRepo := repository.AttendanceRepository{DB: pg}
	estimateRepo := repository.EstimateRepository{DB: pg}
	dashboardRepo := repository.DashboardRepository{DB: pg}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger, FirebaseAuth: firebaseAuth}
	orderSvc := service.OrderService{
		Orders:        orderRepo,
		Loyalty:       loyaltyRepo,
		Notifications: notificationRepo,
		Audit:         auditRepo,
		Bus:           eventBus,
		Logger:        logger,
	}
	requestSvc := service.RequestService{
		Requests:      requestRepo,
		Orders:        orderRepo,
		Parts:         partRepo,
		Technicians:   technicianRepo,
		Notifications: notificationRepo,
		Audit:         auditRepo,
		Bus:           eventBus,
		Logger:        logger,
	}
	estimateSvc := service.EstimateService{Store: estimateRepo}

	sweeper := service.StockSweeper{
		Parts:         partRepo,
		Notifications: notificationRepo,
		Bus:           eventBus,
		Logger:        logger,
	}
	if err := sweeper.Start(cfg.LowStockCron); err != nil {
		logger.Error("failed to start low stock sweeper", "err", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	handlers := server.Handlers{
		Health:       handler.HealthHandler{DB: pg},
		Docs:         handler.DocsHandler{OpenAPIPath: cfg.OpenAPIPath},
		Auth:         handler.AuthHandler{Service: &authSvc},
		Stream:       handler.StreamHandler{Bus: eventBus},
		Order:        handler.OrderHandler{Config: cfg, Service: orderSvc, Repo: orderRepo, Technicians: technicianRepo},
		Technician:   handler.TechnicianHandler{Repo: technicianRepo},
		Request:      handler.RequestHandler{Service: requestSvc, Repo: requestRepo, Technicians: technicianRepo},
		Supplier:     handler.SupplierHandler{Repo: supplierRepo},
		Part:         handler.PartHandler{Repo: partRepo, Bus: eventBus},
		Loyalty:      handler.LoyaltyHandler{Repo: loyaltyRepo},
		Notification: handler.NotificationHandler{Repo: notificationRepo},
		AuditLog:     handler.AuditLogHandler{Repo: auditRepo},
		Checkin:      handler.CheckinHandler{Config: cfg, Repo: attendanceRepo, Orders: orderRepo, Technicians: technicianRepo},
		Estimate:     handler.EstimateHandler{Service: estimateSvc},
		Report:       handler.ReportHandler{Orders: orderRepo, Parts: partRepo, Dashboard: dashboardRepo},
		Dashboard:    handler.DashboardHandler{Repo: dashboardRepo},
		Upload:       handler.UploadHandler{Storage: storage, Orders: orderRepo, Bus: eventBus},
	}

	router := server.NewRouter(cfg, logger, handlers)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
