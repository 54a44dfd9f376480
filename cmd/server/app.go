package main

import (
	"context"
	"fmt"
	"net/http"

	"devcatalyst/portal/internal/cache"
	"devcatalyst/portal/internal/config"
	"devcatalyst/portal/internal/database"
	"devcatalyst/portal/internal/middleware"
	"devcatalyst/portal/internal/monitoring"
	"devcatalyst/portal/internal/repositories"
	"devcatalyst/portal/internal/router"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// App holds everything a running server owns.
type App struct {
	Server *http.Server
	Router *gin.Engine
	pool   *database.DatabasePool
	cache  *cache.MultiLevelCache
	logger logrus.FieldLogger
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	gormLevel := gormlogger.Warn
	if !cfg.IsProduction() && log.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = gormlogger.Info
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        gormLevel,
		Logger:          log.WithField("component", "gorm"),
	})
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	users := repositories.NewUserRepository(pool.DB, log)
	tokens := repositories.NewTokenRepository(pool.DB)
	tasks := repositories.NewTaskRepository(pool.DB, log)
	doubts := repositories.NewDoubtRepository(pool.DB, log)

	if _, err := services.NewProvisionService(users, cfg.Auth.BCryptCost, log).ProvisionFile(ctx, cfg.Auth.UsersFile); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to provision users: %w", err)
	}

	appCache := cache.New(ctx, cache.Options{
		RedisEnabled: cfg.Redis.Enabled,
		Redis: &cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    "devcatalyst:",
		},
	}, log)

	gate := services.NewAuthorizationService(log)
	reports := services.NewReportService(tasks, doubts, users, gate, appCache, cfg.Admin.ReportCacheTTL, log)
	svc := router.Services{
		Auth: services.NewAuthService(users, tokens, services.AuthConfig{
			Secret:     cfg.Auth.JWTSecret,
			Issuer:     cfg.Auth.Issuer,
			AccessTTL:  cfg.Auth.AccessTokenTTL,
			RefreshTTL: cfg.Auth.RefreshTokenTTL,
		}),
		Tasks:   services.NewTaskService(tasks, users, gate, reports, log),
		Doubts:  services.NewDoubtService(doubts, gate, reports, log),
		Users:   services.NewUserService(users, gate),
		Reports: reports,
		Export:  services.NewExportService(tasks, doubts, users, gate, log),
		Admin:   services.NewAdminService(tasks, doubts, gate, appCache, reports, cfg.Admin.ConfirmationTTL, log),
	}

	monitor := monitoring.NewMonitor(log)
	monitor.RegisterHealthCheck("database", pool.HealthCheck)
	if cfg.Redis.Enabled {
		monitor.RegisterHealthCheck("cache", appCache.Health)
	}
	monitor.RegisterStats("database", pool.Stats)
	monitor.RegisterStats("cache", appCache.Stats)

	var rateLimit *middleware.RateLimitConfig
	if cfg.RateLimit.Enabled {
		rateLimit = &middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(svc, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      rateLimit,
		Monitor:        monitor,
		Logger:         log,
	})

	return &App{
		Server: &http.Server{
			Addr:         cfg.GetServerAddr(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		Router: engine,
		pool:   pool,
		cache:  appCache,
		logger: log,
	}, nil
}

func (a *App) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close cache")
	}
	if err := a.pool.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close database")
	}
}
