package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/betmesh/stakegate/internal/config"
	"github.com/betmesh/stakegate/internal/handler"
	"github.com/betmesh/stakegate/internal/middleware"
	"github.com/betmesh/stakegate/internal/pkg/logger"
	"github.com/betmesh/stakegate/internal/repository"
	"github.com/betmesh/stakegate/internal/service"
	"github.com/betmesh/stakegate/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// 2. Initialize Persistence
	// Exposure tracking (Redis > Memory)
	var exposureRepo service.ExposureRepo
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis")
			exposureRepo = redisClient
		} else {
			logger.Error("Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if exposureRepo == nil {
		exposureRepo = service.NewExposureMemoryStore()
	}

	// Bet history (Postgres > Memory)
	var historyRepo service.HistoryRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			historyRepo, err = repository.NewPostgresHistoryRepo(db)
			if err != nil {
				log.Fatalf("Failed to migrate history schema: %v", err)
			}
			logger.Info("Connected to PostgreSQL")
		} else {
			logger.Error("Failed to connect to DB, history will be memory-only", "error", err)
		}
	}
	if historyRepo == nil {
		historyRepo = service.NewHistoryMemoryStore()
	}

	// 3. Initialize Core Services
	registry := service.NewRegistry(exposureRepo, cfg.Exposure.DailyCap)
	service.SeedDemo(registry)

	hub := stream.NewHub()
	distributor := service.NewDistributor(cfg.Distribution, nil)
	engine := service.NewEngine(cfg.Engine, historyRepo, exposureRepo, hub, nil)

	janitor := service.NewJanitor(cfg, historyRepo, exposureRepo, engine)
	if cfg.Janitor.Enabled {
		if err := janitor.Register(cfg.Janitor.CleanupCron, cfg.Janitor.ExposureCron); err != nil {
			log.Fatalf("Failed to register janitor jobs: %v", err)
		}
		janitor.Start()
	}

	idempotencyStore := middleware.NewInMemIdempotencyStore()

	// 4. Initialize Handlers
	betHandler := handler.NewBetHandler(registry, distributor, engine, cfg.Distribution.QuickAmounts)
	catalogHandler := handler.NewCatalogHandler(registry)
	historyHandler := handler.NewHistoryHandler(historyRepo)

	// 5. Setup Router
	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "stakegate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
	{
		v1.GET("/platforms", catalogHandler.Platforms)
		v1.GET("/platforms/:key/accounts", catalogHandler.Accounts)
		v1.GET("/matches", catalogHandler.Matches)
		v1.GET("/quick-amounts", betHandler.QuickAmounts)
		v1.POST("/distribute", betHandler.Distribute)
		v1.POST("/bets", middleware.IdempotencyMiddleware(idempotencyStore), betHandler.Submit)
		v1.GET("/bets/:id", betHandler.GetBatch)
		v1.DELETE("/bets/:id", betHandler.CancelBatch)
		v1.GET("/history", historyHandler.List)
		v1.GET("/stream", gin.WrapH(hub))
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("stakegate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.Janitor.Enabled {
		janitor.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
