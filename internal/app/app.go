// Package app wires configuration into repositories, services and HTTP
// engines. Both binaries share it so they always serve the same model.
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/core/cache"
	"carbon-tracker/internal/core/config"
	"carbon-tracker/internal/core/database"
	"carbon-tracker/internal/core/logger"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/feature/emission"
	"carbon-tracker/internal/repo"
	"carbon-tracker/internal/service"
	"carbon-tracker/internal/transport/http/handler"
	"carbon-tracker/internal/transport/http/router"
)

// NewLogger builds the process logger from cfg.Log and routes the standard
// library logger through it.
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	var (
		log     *zap.Logger
		cleanup func()
	)
	if f := cfg.Log.File; f.Enable {
		log, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, f.Filename, f.MaxSizeMB, f.MaxBackups, f.MaxAgeDays, f.Compress)
	} else {
		log, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	restore := logger.RedirectStdLog(log, zapcore.InfoLevel)
	return log, func() {
		restore()
		cleanup()
	}
}

type App struct {
	Log   *zap.Logger
	DB    *gorm.DB
	Cache *cache.Cache
	JWT   *auth.JWTer
	Users domain.UserRepository

	Accounts *service.AccountService
	Tracker  *service.TrackerService
	Reports  *service.ReportService

	cfg *config.Config
}

// New opens storage and builds every service. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		log.Info("automigrate done")
	}

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := c.Ping(ctx); err != nil {
			// reports fall back to the database
			log.Warn("redis unavailable, report cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
			c = nil
		}
	}

	users, calcs, offsets := repo.NewUserRepo(db), repo.NewCalculationRepo(db), repo.NewOffsetRepo(db)
	a := &App{
		Log:   log,
		DB:    db,
		Cache: c,
		Users: users,
		JWT: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		},
		Accounts: service.NewAccountService(users, log, cfg.Auth.AdminSecret),
		Tracker:  service.NewTrackerService(emission.NewEngine(), calcs, offsets, log),
		Reports: service.NewReportService(users, calcs, offsets, c, log, service.ReportOptions{
			ActiveWindow: time.Duration(cfg.Report.ActiveWindowDays) * 24 * time.Hour,
			ListLimit:    cfg.Report.AdminListLimit,
			CacheTTL:     time.Duration(cfg.Report.CacheTTLSec) * time.Second,
		}),
		cfg: cfg,
	}
	return a, nil
}

func (a *App) options() router.Options {
	return router.Options{
		Log:          a.Log,
		JWT:          a.JWT,
		Users:        a.Users,
		AllowOrigins: a.cfg.CORS.AllowOrigins,
		Registry: router.NewRegistry(
			handler.NewAuthHandler(a.Accounts, a.JWT),
			handler.NewTrackerHandler(a.Tracker),
			handler.NewAdminHandler(a.Accounts, a.Reports),
		),
	}
}

func (a *App) APIEngine() *gin.Engine   { return router.NewAPIEngine(a.options()) }
func (a *App) AdminEngine() *gin.Engine { return router.NewAdminEngine(a.options()) }

func (a *App) Close() {
	_ = a.Cache.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
