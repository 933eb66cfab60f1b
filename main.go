package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"carepulse/internal/ai"
	"carepulse/internal/audit"
	"carepulse/internal/config"
	"carepulse/internal/database"
	"carepulse/internal/handler"
	"carepulse/internal/kvstore"
	"carepulse/internal/logging"
	"carepulse/internal/middleware"
	"carepulse/internal/notify"
	"carepulse/internal/pdf"
	"carepulse/internal/repository"
	"carepulse/internal/security"
	"carepulse/internal/service"
	"carepulse/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	logger, err := logging.New(cfg.Logging, cfg.Server.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize local storage
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(cfg.Storage.DataDir, 0o750); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Initialize SQLite database
	db, err := database.New(cfg.Storage.DatabasePath, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Initialize encrypted session storage
	var encryptor *security.Encryptor
	if cfg.Storage.Passphrase != "" {
		encryptor, err = security.NewEncryptorFromPassphrase(cfg.Storage.Passphrase)
		if err != nil {
			logger.Fatal("Failed to initialize encryption", zap.Error(err))
		}
	} else {
		logger.Warn("No storage passphrase configured, session records are stored unencrypted")
	}

	kv, err := kvstore.New(fs, filepath.Join(cfg.Storage.DataDir, "kv"), encryptor, logger)
	if err != nil {
		logger.Fatal("Failed to initialize kv store", zap.Error(err))
	}

	auditLogger := audit.NewLogger(db.Connection(), logger)

	// Initialize session store; it hydrates synchronously before the
	// server accepts traffic
	authenticator := session.NewStubAuthenticator(cfg.Auth.LoginDelay, cfg.Auth.LogoutDelay)
	sessions := session.NewStore(authenticator, kv, auditLogger, logger)

	// Initialize notification pipeline
	toasts := notify.NewCenter()
	gate := notify.NewGate(notify.NewStubPlatform(notify.PermissionGranted), toasts, logger)

	// Initialize repositories
	medicationRepo := repository.NewMedicationRepository(db.Connection(), logger)
	checkInRepo := repository.NewCheckInRepository(db.Connection(), logger)
	reportRepo := repository.NewReportRepository(db.Connection(), logger)

	// Initialize AI responders; without an API key the conversations
	// follow the canned script
	var medicalResponder, supportResponder ai.Responder
	if cfg.AI.APIKey != "" {
		client, err := ai.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, logger)
		if err != nil {
			logger.Fatal("Failed to initialize AI client", zap.Error(err))
		}
		medicalResponder = client
		supportResponder = client
	} else {
		logger.Info("No AI API key configured, using scripted responders")
		medicalResponder = ai.NewMedicalResponder()
		supportResponder = ai.NewSupportResponder()
	}

	// Initialize services
	medicationService, err := service.NewMedicationService(context.Background(), medicationRepo, toasts, auditLogger, logger)
	if err != nil {
		logger.Fatal("Failed to initialize medication store", zap.Error(err))
	}
	sourceService := service.NewHealthSourceService(cfg.Auth.ConnectDelay, toasts, auditLogger, logger)
	metricsService := service.NewMetricsService(logger)
	checkInService := service.NewCheckInService(checkInRepo, supportResponder, auditLogger, logger)
	reportService := service.NewReportService(
		reportRepo,
		medicationService,
		checkInService,
		sourceService,
		metricsService,
		pdf.NewGenerator(logger),
		fs,
		cfg.Storage.ReportDir,
		auditLogger,
		logger,
	)

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(sessions, gate, logger),
		Medications:   handler.NewMedicationHandler(medicationService, logger),
		Sources:       handler.NewSourceHandler(sourceService, logger),
		Dashboard:     handler.NewDashboardHandler(medicationService, sourceService, metricsService, checkInService, gate, logger),
		Chat:          handler.NewChatHandler(medicalResponder, checkInService, logger),
		Notifications: handler.NewNotificationHandler(toasts, gate, logger),
		Reports:       handler.NewReportHandler(reportService, logger),
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// Recovery middleware must be first
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	handler.RegisterRoutes(r, handlers, sessions)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
