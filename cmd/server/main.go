package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	httpapi "wheelshare-backend/internal/api/http"
	"wheelshare-backend/internal/availability"
	"wheelshare-backend/internal/config"
	"wheelshare-backend/internal/logger"
	"wheelshare-backend/internal/payment"
	"wheelshare-backend/internal/redis"
	"wheelshare-backend/internal/repository/postgres"
	"wheelshare-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting WheelShare Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Redis (vehicle booking locks)
	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.GetRedisAddress()})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("Failed to ping redis", "error", err)
		log.Fatalf("Failed to ping redis: %v", err)
	}
	logger.Info("Redis connection established", "address", cfg.GetRedisAddress())
	lockStore := redis.NewLockStore(redisClient)

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Payment Provider
	provider := payment.NewHTTP(
		cfg.Payment.BaseURL,
		cfg.Payment.APIKey,
		cfg.Payment.WebhookSecret,
		cfg.PaymentTimeout(),
	)

	// Initialize Services
	engine := availability.NewEngine(store.VehicleRepository, store.BookingRepository)
	notifier := service.NewNotifier(store.UserRepository, store.NotificationRepository, cfg.SMTP)
	bookingSvc := service.NewBookingService(
		store.BookingRepository,
		store.VehicleRepository,
		store.UserRepository,
		store.TransactionRepository,
		engine,
		lockStore,
		provider,
		notifier,
		cfg,
	)
	settlementSvc := service.NewSettlementService(
		store.BookingRepository,
		store.TransactionRepository,
		store.UserRepository,
		store.ChargeConfigRepository,
		provider,
		notifier,
		cfg,
	)
	adminSvc := service.NewAdminService(store.ChargeConfigRepository, cfg)
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	// Set up HTTP server
	router := httpapi.NewRouter(&httpapi.Handlers{
		Booking:      httpapi.NewBookingHandler(bookingSvc),
		Webhook:      httpapi.NewWebhookHandler(settlementSvc, provider),
		Admin:        httpapi.NewAdminHandler(adminSvc),
		Notification: httpapi.NewNotificationHandler(noteSvc),
		DB:           db,
		Redis:        redisClient,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
