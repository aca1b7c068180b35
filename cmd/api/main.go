package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-storefront/internal/core/auth"
	"go-storefront/internal/core/cache"
	"go-storefront/internal/core/config"
	"go-storefront/internal/core/database"
	"go-storefront/internal/core/logger"
	"go-storefront/internal/core/server"
	"go-storefront/internal/domain"
	"go-storefront/internal/repo"
	"go-storefront/internal/service"
	"go-storefront/internal/transport/http/handler"
	"go-storefront/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Product{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	kv := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	reader := cache.NewReader(kv, log)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	userRepo := repo.NewUserRepo(db)
	productRepo := repo.NewProductRepo(db)

	gate := service.NewAuthGate(userRepo, kv, log, service.AuthGateOpts{
		MaxAttempts:   cfg.Auth.MaxLoginAttempts,
		BlockDuration: time.Duration(cfg.Auth.BlockDurationSec) * time.Second,
	})
	products := service.NewProductService(productRepo, reader,
		time.Duration(cfg.Cache.ProductTTLSec)*time.Second, log)

	authH := handler.NewAuthHandler(gate, userRepo, jwter, log)
	productH := handler.NewProductHandler(products, log)
	adminH := handler.NewAdminHandler(userRepo, log)

	r := router.NewEngine(log, jwter, authH, productH, adminH)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	log.Info("storefront api starting", zap.String("addr", addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("storefront api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("storefront api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.File == "" {
		return logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Enable:     true,
		Filename:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
