package main

import (
	"context"
	"food-checkout/internal/config"
	"food-checkout/internal/database"
	"food-checkout/internal/handler"
	"food-checkout/internal/infrastructure/events"
	"food-checkout/internal/infrastructure/notify"
	"food-checkout/internal/metrics"
	"food-checkout/internal/repo"
	"food-checkout/internal/service"
	"food-checkout/internal/worker"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbService, err := database.New(ctx, cfg.DB.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()
	db := dbService.DB()

	producer := events.NewProducer(cfg.KafkaBrokers, logger)
	defer producer.Close()

	notifier, err := notify.New(cfg, producer, logger)
	if err != nil {
		logger.Fatal("Failed to build notifier", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	otpRepo := repo.NewOtpRepo(db)
	orderRepo := repo.NewOrderRepo(db)
	outboxRepo := repo.NewOutboxRepo(db)
	restaurantRepo := repo.NewRestaurantRepo(db)

	otpService := service.NewOtpService(db, otpRepo, notifier, cfg.OTP, m, logger)
	orderService := service.NewOrderService(db, orderRepo, otpRepo, outboxRepo, cfg, m, logger)
	restaurantService := service.NewRestaurantService(restaurantRepo, logger)

	if cfg.SeedRestaurantsFile != "" {
		n, err := restaurantService.SeedFromFile(ctx, cfg.SeedRestaurantsFile)
		if err != nil {
			logger.Fatal("Failed to seed restaurants", zap.String("file", cfg.SeedRestaurantsFile), zap.Error(err))
		}
		logger.Info("Seeded restaurants", zap.Int("count", n))
	}

	var wg sync.WaitGroup

	sweeper := worker.NewOtpSweeper(otpRepo, cfg.OTP.SweepInterval, cfg.OTP.VerifiedWindow, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	if producer.Enabled() {
		relay := worker.NewOutboxRelay(outboxRepo, producer, cfg.RelayInterval, cfg.RelayBatch, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	router := handler.NewRouter(handler.RouterConfig{
		Otp:            handler.NewOtpHandler(otpService, logger),
		Orders:         handler.NewOrderHandler(orderService, logger),
		Restaurants:    handler.NewRestaurantHandler(restaurantService, logger),
		Health:         dbService,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("port", cfg.Port),
			zap.String("notifier", cfg.Notifier),
			zap.Bool("kafka", producer.Enabled()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	wg.Wait()
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
