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
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/nekogravitycat/servicehub-backend/internal/app"
	"github.com/nekogravitycat/servicehub-backend/internal/cache"
	"github.com/nekogravitycat/servicehub-backend/internal/config"
	"github.com/nekogravitycat/servicehub-backend/internal/db"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	appCfg := app.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		Logger:            zapLogger,
		StoreDriver:       cfg.StoreDriver,
		ProviderCacheTTL:  cfg.ProviderCacheTTL,
		JWTSecret:         cfg.JWTSecret,
		JWTTTL:            cfg.JWTAccessTokenTTL,
		BcryptCost:        cfg.BcryptCost,
		StoragePath:       cfg.StoragePath,
		MaxPhotoBytes:     cfg.MaxPhotoBytes,
		BookingMaxRetries: cfg.BookingMaxRetries,
		RateLimitPerMin:   cfg.RateLimitPerMin,
	}

	// Connect the selected store
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		var pool *pgxpool.Pool
		pool, err = db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			zapLogger.Fatal("failed to connect to db", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			zapLogger.Fatal("failed to migrate db", zap.Error(err))
		}
		appCfg.DBPool = pool

	case config.DriverMongo:
		var client *mongo.Client
		client, err = db.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			zapLogger.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				zapLogger.Warn("failed to disconnect mongo", zap.Error(err))
			}
		}()
		appCfg.MongoDB = client.Database(cfg.MongoDatabase)

	case config.DriverMemory:
		zapLogger.Warn("using in-memory store, data is lost on restart")
	}

	// Optional provider cache
	if cfg.RedisAddr != "" {
		var rdb *redis.Client
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zapLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		appCfg.Redis = rdb
	}

	container, err := app.NewContainer(ctx, appCfg)
	if err != nil {
		zapLogger.Fatal("failed to init app", zap.Error(err))
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		zapLogger.Info("server running",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("cache", appCfg.Redis != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zapLogger.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server exited gracefully")
}
