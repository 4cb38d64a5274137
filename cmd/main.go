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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/library-loans-api/config"
	"github.com/oksasatya/library-loans-api/internal/application"
	"github.com/oksasatya/library-loans-api/internal/container"
	"github.com/oksasatya/library-loans-api/internal/domain/repository"
	"github.com/oksasatya/library-loans-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/library-loans-api/internal/infrastructure/postgres"
	"github.com/oksasatya/library-loans-api/internal/interface/middleware"
	"github.com/oksasatya/library-loans-api/internal/router"
	"github.com/oksasatya/library-loans-api/pkg/helpers"
	"github.com/oksasatya/library-loans-api/pkg/response"
	"github.com/oksasatya/library-loans-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Storage
	var store repository.Store
	if cfg.UseMemoryStore() {
		logger.Warn("STORAGE_DRIVER=memory; data lives only as long as this process")
		store = memory.NewStore(time.Now)
	} else {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		container.SetPGPool(pool)
		store = pginfra.NewStore(pool)
	}

	// Redis backs the rate limiter; the API runs without it.
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		logger.WithError(err).Warn("redis unavailable; rate limiting disabled")
		_ = rdb.Close()
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}

	// GCS is only needed for cover uploads.
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("GCS unavailable; cover upload disabled")
		} else {
			defer func() { _ = gcsClient.Close() }()
			container.SetGCS(gcsClient)
		}
	}

	// Loan notifications go to the email worker through RabbitMQ.
	if cfg.LoanNotificationsEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; loan notifications disabled")
		} else {
			defer pub.Close()
			container.SetNotifier(application.NewQueueNotifier(pub, cfg))
		}
	}

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetStore(store)
	container.SetRedis(rdb)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(middleware.Metrics())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Every route registered below shares the per-IP budget except liveness checks.
	r.Use(middleware.RateLimit(rdb, cfg.RateLimitPerMinute, time.Minute, middleware.KeyByIP(), middleware.AllowPaths("/healthz")))

	r.GET("/healthz", healthz(logger))

	reg := router.NewRegistry(r, cfg.APIPrefix)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "prefix": cfg.APIPrefix, "storage": cfg.StorageDriver}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// healthz reports liveness, plus database reachability when postgres is in use.
func healthz(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pool := container.GetPGPool(); pool != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				logger.WithError(err).Warn("healthz: database ping failed")
				response.Error[any](c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy", nil)
	}
}
