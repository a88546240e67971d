package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adomia/account-gate/internal/api/handler"
	"github.com/adomia/account-gate/internal/api/middleware"
	"github.com/adomia/account-gate/internal/core/ports"
	"github.com/adomia/account-gate/internal/core/service"
	"github.com/adomia/account-gate/internal/infrastructure/config"
	mongostore "github.com/adomia/account-gate/internal/infrastructure/db/mongo"
	redisstore "github.com/adomia/account-gate/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, gateway ports.UpstreamGateway, cleanup ports.CleanupQueue, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("account_gate"))

	// --- Dependencies ---
	repo := mongostore.NewTombstoneRepository(db)
	lock := newDeletionLock(rdb, log)

	gate := service.NewGateService(repo, gateway, log)
	deleter := service.NewDeletionService(repo, gateway, cleanup, lock, log)

	loginHandler := handler.NewLoginHandler(gate)
	deletionHandler := handler.NewDeletionHandler(deleter)
	proxyHandler := handler.NewProxyHandler(gateway)

	// --- Proxy surface ---
	apiGroup := e.Group("/api")
	apiGroup.POST("/login", loginHandler.Login)
	apiGroup.DELETE("/users/me", deletionHandler.DeleteMe)
	apiGroup.Any("/*", proxyHandler.Relay) // everything else goes straight through

	// --- Operator surface (only with credentials configured) ---
	if cfg.Admin.Enabled() {
		opsAuth := service.NewOpsAuth(cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
		adminHandler := handler.NewAdminHandler(opsAuth, repo)

		e.POST("/admin/login", adminHandler.Login)
		admin := e.Group("/admin", middleware.Auth(cfg.Admin.JWTSecret), middleware.RequireAdmin())
		admin.GET("/tombstones", adminHandler.ListTombstones)
	} else {
		log.Warn().Msg("admin surface disabled: ADMIN_JWT_SECRET or ADMIN_PASSWORD_HASH not set")
	}

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

// newDeletionLock degrades to a no-op lock when Redis is not configured;
// the store's unique index still guarantees single tombstones.
func newDeletionLock(rdb *redis.Client, log zerolog.Logger) ports.DeletionLock {
	if rdb == nil {
		return noopLock{}
	}
	return redisstore.NewDeletionLock(rdb, log)
}

type noopLock struct{}

func (noopLock) Acquire(_ context.Context, _ string) (func(), bool) {
	return func() {}, true
}
