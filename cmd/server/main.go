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
	billingapp "github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/application/cascade"
	identityapp "github.com/rentflow/backend/internal/application/identity"
	meteringapp "github.com/rentflow/backend/internal/application/metering"
	"github.com/rentflow/backend/internal/application/notification"
	propertyapp "github.com/rentflow/backend/internal/application/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/cache"
	"github.com/rentflow/backend/internal/infrastructure/config"
	"github.com/rentflow/backend/internal/infrastructure/event"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/rentflow/backend/internal/interfaces/http/handler"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"github.com/rentflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const revokedTokenPrefix = "rentflow:revoked:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	log.Info("Starting rental billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracer provider: %w", err)
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init meter provider: %w", err)
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init logger provider: %w", err)
	}
	defer shutdown(log, "logger provider", logsProvider.Shutdown)
	log = logsProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	billingMetrics, err := telemetry.NewBillingMetrics(meter)
	if err != nil {
		return fmt.Errorf("init billing metrics: %w", err)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:       cfg.Telemetry.DBTraceEnabled,
		DBName:        cfg.Database.DBName,
		WithVariables: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		return err
	}
	if cfg.App.AutoMigrate {
		log.Warn("Auto-migrating schema from models; use cmd/migrate outside development")
		if err := persistence.AutoMigrate(db.DB); err != nil {
			return err
		}
	}

	redisClient, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
	}

	admins, err := auth.NewConfigAdminDirectory(cfg.Admin)
	if err != nil {
		return fmt.Errorf("load admin accounts: %w", err)
	}
	if len(cfg.Admin.Accounts) == 0 {
		log.Warn("No administrator accounts configured")
	}
	tokens := auth.NewJWTService(cfg.JWT)

	scope := persistence.NewGormTransactionScope(db.DB)
	engine := billingapp.NewEngine(log, billingMetrics)
	coordinator := cascade.NewCoordinator(scope, log, billingMetrics)
	userService := identityapp.NewUserService(scope, coordinator, tokens, tokenBlacklist(redisClient), admins, log)
	buildingService := propertyapp.NewBuildingService(scope, engine, coordinator, log)
	apartmentService := propertyapp.NewApartmentService(scope, engine, coordinator, log)
	readingService := meteringapp.NewReadingService(scope, engine, log)
	invoiceService := billingapp.NewInvoiceService(scope, log, billingMetrics)

	eventBus := event.NewInMemoryEventBus(log)
	invoiceNotifications := event.NewIdempotentHandler(
		notification.NewInvoiceNotificationHandler(notification.NewLoggingNotifier(log), log),
		cache.NewIdempotencyStore(redisClient, cfg.Idempotency, log),
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Idempotency.TTL, Enabled: true}),
	)
	eventBus.Subscribe(invoiceNotifications)
	log.Info("Event handlers registered", zap.Strings("invoice_notification_events", invoiceNotifications.EventTypes()))

	for _, publisher := range []interface {
		SetEventPublisher(shared.EventPublisher)
	}{userService, buildingService, apartmentService, readingService, invoiceService, coordinator} {
		publisher.SetEventPublisher(eventBus)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	ginEngine, err := router.NewEngine(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
		Tokens:         tokens,
		Revocations:    userService,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        tracerProvider.IsEnabled(),
		Meter:          meter,
		Ready: func(ctx context.Context) error {
			return db.DB.WithContext(ctx).Exec("SELECT 1").Error
		},
	}, router.Handlers{
		Auth:       handler.NewAuthHandler(userService),
		Users:      handler.NewUserHandler(userService),
		Buildings:  handler.NewBuildingHandler(buildingService, invoiceService),
		Apartments: handler.NewApartmentHandler(apartmentService),
		Readings:   handler.NewReadingHandler(readingService),
		Invoices:   handler.NewInvoiceHandler(invoiceService),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}

func tokenBlacklist(client redis.UniversalClient) auth.TokenBlacklist {
	if client == nil {
		return auth.NewInMemoryTokenBlacklist()
	}
	return auth.NewRedisTokenBlacklist(client, revokedTokenPrefix)
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
