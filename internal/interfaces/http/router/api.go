package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/logger"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/rentflow/backend/internal/interfaces/http/handler"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers are the resource handlers mounted by NewEngine
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Buildings  *handler.BuildingHandler
	Apartments *handler.ApartmentHandler
	Readings   *handler.ReadingHandler
	Invoices   *handler.InvoiceHandler
}

// Config carries the cross-cutting collaborators of the engine
type Config struct {
	ServiceName string
	// APIVersion is the /api/<version> segment, "v1" when empty
	APIVersion     string
	Logger         *zap.Logger
	Tokens         *auth.JWTService
	Revocations    middleware.RevocationChecker
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	// Tracing enables otelgin spans; TracerProvider defaults to the global one
	Tracing        bool
	TracerProvider trace.TracerProvider
	// Meter enables HTTP metrics when set
	Meter metric.Meter
	// Ready reports whether dependencies such as the database are reachable
	Ready func(ctx context.Context) error
}

// NewEngine builds the gin engine with middleware and every versioned API route
func NewEngine(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.Tracing,
			TracerProvider: cfg.TracerProvider,
		}),
		logger.GinMiddleware(log),
		middleware.RequestID(),
		middleware.Secure(),
		middleware.CORS(cfg.CORS),
		middleware.HTTPMetrics(cfg.Meter, log),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ready", func(c *gin.Context) {
		if cfg.Ready != nil {
			if err := cfg.Ready(c.Request.Context()); err != nil {
				logger.L(c.Request.Context()).Warn("Readiness check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	authed := []gin.HandlerFunc{
		middleware.JWTAuth(middleware.JWTConfig{Tokens: cfg.Tokens, Revocations: cfg.Revocations, Logger: log}),
		middleware.SpanAttributes(),
	}
	admin := middleware.RequireRole(identity.RoleAdmin.String())
	staff := middleware.RequireRole(identity.RoleAdmin.String(), identity.RoleManager.String())

	var routerOpts []RouterOption
	if cfg.APIVersion != "" {
		routerOpts = append(routerOpts, WithAPIVersion(cfg.APIVersion))
	}
	r := NewRouter(engine, routerOpts...)
	r.Register(
		NewDomainGroup("auth", "/auth").
			POST("/register", h.Auth.Register).
			POST("/login", h.Auth.Login).
			POST("/refresh", h.Auth.Refresh),
		NewDomainGroup("session", "/auth").Use(authed...).
			POST("/logout", h.Auth.Logout).
			GET("/me", h.Auth.Me),
		NewDomainGroup("buildings", "/buildings").Use(authed...).Use(staff).
			GET("", h.Buildings.List).
			POST("", admin, h.Buildings.Create).
			GET("/:id", h.Buildings.Get).
			PUT("/:id", h.Buildings.Update).
			DELETE("/:id", admin, h.Buildings.Delete).
			GET("/:id/apartments", h.Apartments.ListByBuilding).
			POST("/:id/apartments", h.Apartments.Create).
			GET("/:id/invoices", h.Buildings.Invoices),
		NewDomainGroup("apartments", "/apartments").Use(authed...).
			GET("/available", h.Apartments.ListAvailable).
			GET("/:id", staff, h.Apartments.Get).
			PUT("/:id", staff, h.Apartments.Update).
			DELETE("/:id", staff, h.Apartments.Delete).
			GET("/:id/readings", staff, h.Readings.ListByApartment).
			POST("/:id/readings", staff, h.Readings.Create),
		NewDomainGroup("readings", "/readings").Use(authed...).
			GET("/my", h.Readings.Mine).
			GET("/:id", staff, h.Readings.Get).
			PUT("/:id", staff, h.Readings.Update).
			DELETE("/:id", staff, h.Readings.Delete),
		NewDomainGroup("invoices", "/invoices").Use(authed...).
			GET("/my", h.Invoices.Mine).
			POST("", staff, h.Invoices.Issue).
			GET("/:id", staff, h.Invoices.Get).
			PUT("/:id/confirmation", staff, h.Invoices.UpdateConfirmation).
			POST("/:id/pay", staff, h.Invoices.Pay).
			DELETE("/:id", staff, h.Invoices.Delete),
		NewDomainGroup("users", "/users").Use(authed...).Use(admin).
			GET("", h.Users.List).
			GET("/:id", h.Users.Get).
			PUT("/:id", h.Users.UpdateProfile).
			DELETE("/:id", h.Users.Delete).
			PUT("/:id/role", h.Users.ChangeRole).
			PUT("/:id/apartment", h.Users.AssignApartment).
			PUT("/:id/buildings", h.Users.UpdateManagedBuildings),
	)
	r.Setup()

	return engine, nil
}
