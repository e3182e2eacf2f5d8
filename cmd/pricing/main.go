package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/mysql"
	redisstore "github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/redis"
	"github.com/wyfcoding/optionpricing/internal/pricing/interfaces/consumer"
	httpiface "github.com/wyfcoding/optionpricing/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/db"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/messagequeue"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
	"github.com/wyfcoding/optionpricing/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/pricing.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Logger
	if err := logger.Init(cfg.Logger); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	ctx := context.Background()
	logger.Info(ctx, "starting pricing service",
		"version", cfg.Version, "environment", cfg.Environment)

	// 3. Database
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&mysql.PricingResultModel{},
		&mysql.CalibrationResultModel{},
		&messagequeue.OutboxMessage{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// 4. Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisCache.Close()

	// 5. Kafka
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	producer := mq.NewProducer(kafkaCfg)
	defer producer.Close()
	priceConsumer := mq.NewConsumer(kafkaCfg, cfg.Kafka.MarketPriceTopic)
	defer priceConsumer.Close()

	// 6. Metrics
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			log.Fatalf("failed to register metrics: %v", err)
		}
		metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 7. Layers
	repo := redisstore.NewCachedPricingRepository(mysql.NewPricingRepository(database.DB), redisCache)
	marketData := redisstore.NewMarketDataStore(redisCache)
	publisher := messagequeue.NewOutboxPublisher(database.DB)

	cmdService := application.NewPricingCommandService(repo, publisher, m, application.Options{
		LatticeSteps:        cfg.Pricing.LatticeSteps,
		SolverTolerance:     cfg.Pricing.SolverTolerance,
		SolverMaxIterations: cfg.Pricing.SolverMaxIterations,
		VolBracketLow:       cfg.Pricing.VolBracketLow,
		VolBracketHigh:      cfg.Pricing.VolBracketHigh,
	})
	queryService := application.NewPricingQueryService(repo, marketData)

	// 8. Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	relay := messagequeue.NewOutboxRelay(database.DB, producer, cfg.Kafka.EventTopic, 100, time.Second)
	go relay.Run(workerCtx)

	// 定价结果保留 30 天，每小时清扫一次
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if err := repo.CleanupOldResults(workerCtx, 30*24*time.Hour); err != nil {
					logger.Error(workerCtx, "pricing result cleanup failed", "error", err)
				}
			}
		}
	}()

	priceHandler := consumer.NewMarketPriceHandler(marketData)
	go func() {
		if err := priceConsumer.Run(workerCtx, priceHandler.Handle); err != nil && workerCtx.Err() == nil {
			logger.Error(workerCtx, "market price consumer stopped", "error", err)
		}
	}()

	// 9. HTTP server
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
	)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.QPS)
		router.Use(middleware.GinRateLimitMiddleware(limiter))
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	httpiface.NewPricingHandler(cmdService, queryService).RegisterRoutes(&router.RouterGroup)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down pricing service...")

	stopWorkers()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}
	logger.Info(ctx, "pricing service stopped")
}
