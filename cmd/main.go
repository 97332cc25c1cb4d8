package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/events"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/gateway"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/handler"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/metrics"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/notification"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/repository"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/service"
	"github.com/cloud-wave-best-zizon/enrollment-service/pkg/config"
	"github.com/cloud-wave-best-zizon/enrollment-service/pkg/middleware"
)

type store interface {
	service.EnrollmentStore
	repository.Seeder
}

type checkoutEvents interface {
	service.CheckoutPublisher
	service.EnrollmentPublisher
	handler.HealthChecker
	Close() error
}

type compensationEvents interface {
	service.CompensationPublisher
	Close() error
}

type gatewayClient interface {
	service.OrderGateway
	service.PaymentGateway
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	if !cfg.DotEnvLoaded {
		logger.Info("No .env file found, using environment variables")
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreBackend),
		zap.String("gateway", cfg.GatewayMode),
		zap.String("mail", cfg.MailMode),
		zap.Strings("kafka_brokers", cfg.Brokers()))

	st, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	if cfg.SeedFile != "" {
		seed, err := repository.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			logger.Fatal("Failed to load seed", zap.Error(err))
		}
		if err := repository.ApplySeed(context.Background(), st, seed); err != nil {
			logger.Fatal("Failed to apply seed", zap.Error(err))
		}
		logger.Info("Seed applied",
			zap.Int("courses", len(seed.Courses)),
			zap.Int("users", len(seed.Users)))
	}

	producer, compensation, err := newPublishers(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer producer.Close()
	defer compensation.Close()

	gw := newGateway(cfg, logger)
	dispatcher := notification.NewDispatcher(newMailer(cfg, logger), cfg.NotificationTimeout, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	checkoutService := service.NewCheckoutService(st, gw, producer, cfg.Currency, m, logger)
	enrollmentService := service.NewEnrollmentService(st, gw, dispatcher, producer, compensation, m, logger)
	notificationService := service.NewNotificationService(st, dispatcher, m, logger)
	paymentHandler := handler.NewPaymentHandler(checkoutService, enrollmentService, notificationService, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(m.Middleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handler.Health("enrollment-service", map[string]handler.HealthChecker{
			"kafka": producer,
		}))
		paymentHandler.Register(v1.Group("/payments", middleware.Auth([]byte(cfg.JWTSecret))))
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	return logger
}

func newStore(cfg *config.Config) (store, error) {
	if cfg.StoreBackend == "memory" {
		return repository.NewMemoryStore(), nil
	}
	client, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewDynamoStore(client, cfg.TableName), nil
}

func newPublishers(cfg *config.Config, logger *zap.Logger) (checkoutEvents, compensationEvents, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, events are disabled")
		return events.NoopPublisher{}, events.NoopPublisher{}, nil
	}

	producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.CheckoutTopic, logger)
	if err != nil {
		return nil, nil, err
	}
	return producer, events.NewCompensationProducer(brokers, cfg.CompensationTopic, logger), nil
}

func newGateway(cfg *config.Config, logger *zap.Logger) gatewayClient {
	if cfg.GatewayMode == "sandbox" {
		logger.Warn("Using sandbox payment gateway")
		return gateway.NewSandbox(cfg.RazorpaySecret)
	}
	return gateway.NewRazorpay(gateway.Config{
		BaseURL:       cfg.RazorpayBaseURL,
		KeyID:         cfg.RazorpayKey,
		KeySecret:     cfg.RazorpaySecret,
		Timeout:       cfg.GatewayTimeout,
		RetryAttempts: cfg.GatewayRetryAttempts,
		RetryDelay:    cfg.GatewayRetryDelay,
	}, logger)
}

func newMailer(cfg *config.Config, logger *zap.Logger) notification.Mailer {
	if cfg.MailMode == "smtp" {
		return notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUser,
			Password: cfg.MailPass,
			From:     cfg.MailFrom,
		})
	}
	return notification.NewLogMailer(logger)
}
