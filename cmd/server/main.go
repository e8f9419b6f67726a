// Package main is the entry point for the settlement back office server.
// It initializes both database connections, wires the settlement engine and
// starts the HTTP server.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payclear/internal/config"
	"payclear/internal/handlers"
	"payclear/internal/metrics"
	"payclear/internal/middleware"
	"payclear/internal/repositories"
	"payclear/internal/repositories/cache"
	"payclear/internal/routes"
	"payclear/internal/services/auth"
	"payclear/internal/services/chargeback"
	"payclear/internal/services/exchangerate"
	"payclear/internal/services/fees"
	"payclear/internal/services/notification"
	"payclear/internal/services/reserve"
	"payclear/internal/services/settlement"
	"payclear/internal/services/totals"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := repositories.InitDB(); err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer closeDB(logger)

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	cacheService := cache.NewService(redisClient, config.GetDurationEnv("CACHE_TTL", 24*time.Hour))
	defer cacheService.Close()

	collector := metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
	notifier := notification.NewLogNotifier(logger)

	merchantRepo := repositories.NewMerchantRepository(repositories.DB)
	feeRepo := repositories.NewFeeRepository(repositories.DB)
	chargebackRepo := repositories.NewChargebackRepository(repositories.DB)
	reserveRepo := repositories.NewReserveRepository(repositories.DB)
	reportRepo := repositories.NewReportRepository(repositories.DB)
	userRepo := repositories.NewUserRepository(repositories.DB)
	txRepo := repositories.NewTransactionRepository(repositories.ProcessingDB)

	tracker := chargeback.NewTracker(chargebackRepo, logger, collector)
	calculator := totals.NewCalculator(tracker, logger, collector)
	feeEngine := fees.NewEngine(merchantRepo, feeRepo, logger, collector)
	reserveHandler := reserve.NewHandler(merchantRepo, reserveRepo, logger, collector)
	validator := exchangerate.NewValidationService(txRepo, notifier, logger)

	settlementService := settlement.NewService(settlement.Config{
		DB:           repositories.DB,
		TxRepo:       txRepo,
		MerchantRepo: merchantRepo,
		ReportRepo:   reportRepo,
		Calculator:   calculator,
		FeeEngine:    feeEngine,
		Reserves:     reserveHandler,
		Validator:    validator,
		Notifier:     notifier,
		Cache:        cacheService,
		Logger:       logger,
		Metrics:      collector,
	})

	authService := auth.NewService(
		userRepo,
		config.GetEnv("JWT_SECRET", "dev-secret"),
		config.GetDurationEnv("JWT_TTL", 12*time.Hour),
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName:      "payclear",
		ReadTimeout:  config.GetDurationEnv("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: config.GetDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	routes.Setup(app, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Health:     handlers.NewHealthHandler(repositories.DB, cacheService),
		Merchant:   handlers.NewMerchantHandler(merchantRepo),
		Settlement: handlers.NewSettlementHandler(settlementService, reportRepo),
		Fee:        handlers.NewFeeHandler(feeRepo),
		Reserve:    handlers.NewReserveHandler(reserveHandler, reserveRepo),
		Chargeback: handlers.NewChargebackHandler(tracker),
		AuthMW:     middleware.NewAuthMiddleware(authService),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + config.GetEnv("PORT", "8080")
	logger.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func closeDB(logger *zap.Logger) {
	if repositories.DB != nil {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("failed to close application database", zap.Error(err))
			}
		}
	}
	if repositories.ProcessingDB != nil {
		if sqlDB, err := repositories.ProcessingDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("failed to close processing database", zap.Error(err))
			}
		}
	}
}
