package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"bizdesk-service/internal/database"
	"bizdesk-service/internal/server"
	"bizdesk-service/internal/session"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/config"
	"bizdesk-service/pkg/logger"
	"bizdesk-service/prometheus"
)

const serviceName = "bizdesk-service"

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	log.Info("Starting "+serviceName, appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	metrics := prometheus.NewMetrics(appConfig.Metrics.Prefix, prometheus.NewRegistry())
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.Open(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db, &appConfig.DB); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established", zap.String("driver", appConfig.DB.Driver))

	store := storage.NewGormStore(db, log.Named("storage"), appConfig.DB.OpTimeout, storage.WithMetrics(metrics))

	// Session store
	var sessions session.Store
	switch appConfig.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     appConfig.Session.RedisAddr,
			Password: appConfig.Session.RedisPassword,
			DB:       appConfig.Session.RedisDB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		sessions = session.NewRedisStore(client)
	default:
		sessions = session.NewDBStore(db, appConfig.DB.OpTimeout)
	}
	log.Info("Session store initialized", zap.String("store", appConfig.Session.Store))

	e := server.New(server.Deps{
		Config:   appConfig,
		Logger:   log,
		Store:    store,
		Sessions: sessions,
		Metrics:  metrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server
	port := appConfig.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server stopped")
}
