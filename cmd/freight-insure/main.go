package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"freight-insure/internal/api"
	"freight-insure/internal/api/handlers"
	"freight-insure/internal/intake"
	"freight-insure/internal/repository"
	"freight-insure/internal/service"
	"freight-insure/internal/storage"
	"freight-insure/pkg/config"
	"freight-insure/pkg/logger"
	"freight-insure/pkg/postgres"

	"go.uber.org/zap"
)

// @title Freight Insure Intake API
// @version 1.0
// @description 货运车辆投保录入服务：证件上传识别与分步下单

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Operator
// @in header
// @name Authorization
// @description Type "freight" followed by a space and the operator token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	sentryHook, err := logger.SentryOption(cfg.Sentry.DSN, cfg.Sentry.Environment, cfg.Sentry.Release)
	if err != nil {
		fmt.Printf("Failed to initialize Sentry: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, sentryHook); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting freight insure intake service")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db, appLogger); err != nil {
		appLogger.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	store, err := storage.New(&cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize document storage", zap.Error(err))
	}

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(db, appLogger)

	// Initialize services
	uploadService := service.NewUploadService(docRepo, store, cfg.Storage.MaxFileSize, appLogger)

	var provider service.Recognizer
	switch cfg.OCR.Provider {
	case "gigachat":
		llmService, err := service.NewLLMService(&cfg.GigaChat, store, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
		}
		defer llmService.Close()
		provider = llmService
	default:
		provider = service.NewRemoteOCR(&cfg.OCR, cfg.Order.ServiceToken, appLogger)
	}
	ocrService := service.NewOCRService(provider, cfg.OCR.Provider, appLogger)

	dispatcher := intake.NewDispatcher(uploadService, ocrService,
		intake.WithOutcomeHook(uploadService.RecordOutcome),
	)
	orderService := service.NewOrderService(&cfg.Order, appLogger)

	sessions := service.NewSessionStore(cfg.Session.TTL, appLogger)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	intakeService := service.NewIntakeService(sessions, dispatcher, orderService, appLogger)

	// Initialize handlers
	intakeHandler := handlers.NewIntakeHandler(intakeService, appLogger)

	routerCfg := api.RouterConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if local, ok := store.(*storage.LocalStore); ok {
		routerCfg.UploadsDir = local.Dir()
	}

	// Setup router
	app := api.SetupRouter(intakeHandler, routerCfg, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	stop()
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
