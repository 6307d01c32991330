package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/staybook/service-booking/internal/application"
	"github.com/staybook/service-booking/internal/cache"
	"github.com/staybook/service-booking/internal/config"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	bookingEvents "github.com/staybook/service-booking/internal/events"
	"github.com/staybook/service-booking/internal/handler"
	"github.com/staybook/service-booking/internal/repository"
	"github.com/staybook/service-booking/migrations"
	"github.com/staybook/service-booking/pkg/auth"
	"github.com/staybook/service-booking/pkg/database"
	"github.com/staybook/service-booking/pkg/health"
	"github.com/staybook/service-booking/pkg/kafka"
	"github.com/staybook/service-booking/pkg/logger"
	"github.com/staybook/service-booking/pkg/middleware"
	"github.com/staybook/service-booking/pkg/tracing"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.AppEnv, cfg.TracingEndpoint, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:            cfg.DBConfig.Host,
		Port:            cfg.DBConfig.Port,
		User:            cfg.DBConfig.User,
		Password:        cfg.DBConfig.Password,
		DBName:          cfg.DBConfig.DBName,
		SSLMode:         cfg.DBConfig.SSLMode,
		MaxOpenConns:    cfg.DBConfig.MaxOpenConns,
		MaxIdleConns:    cfg.DBConfig.MaxIdleConns,
		ConnMaxLifetime: cfg.DBConfig.ConnMaxLifetime,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// The overlap exclusion constraint only exists in the SQL migrations, so
	// they run in every environment.
	if err := database.RunMigrations(migrations.FS, ".", dbConfig.DatabaseURL(), log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTTL,
		cfg.JWTConfig.RefreshTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	healthHandler := health.NewHandler(db, serviceName)

	var rdb *redis.Client
	if cfg.RedisEnabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()
		healthHandler.AddChecker("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	listingRepo := cache.NewListingRepository(
		repository.NewGormListingRepository(db),
		rdb,
		cfg.CacheConfig,
		log,
	)

	pricing := bookingDomain.NewNightlyPricingCalculator()

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, listingRepo, userRepo, pricing, kafkaProducer, log)
	paymentService := application.NewPaymentService(paymentRepo, bookingRepo, pricing, kafkaProducer, log)
	userService := application.NewUserService(userRepo, jwtManager, log)
	listingService := application.NewListingService(listingRepo, userRepo, log)
	reviewService := application.NewReviewService(reviewRepo, bookingRepo, listingRepo, userRepo, log)
	messageService := application.NewMessageService(messageRepo, userRepo, log)

	// Start payment event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		paymentService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler.RegisterRoutes(router)

	api := &router.RouterGroup
	handler.NewAuthHandler(userService).RegisterRoutes(api)
	handler.NewUserHandler(userService).RegisterRoutes(api, jwtManager)
	handler.NewListingHandler(listingService, bookingService).RegisterRoutes(api, jwtManager)
	handler.NewBookingHandler(bookingService).RegisterRoutes(api, jwtManager)
	handler.NewPaymentHandler(paymentService, bookingService).RegisterRoutes(api, jwtManager)
	handler.NewReviewHandler(reviewService).RegisterRoutes(api, jwtManager)
	handler.NewMessageHandler(messageService).RegisterRoutes(api, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(api, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("failed to flush traces", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
