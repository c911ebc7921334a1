package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgshop/catalog-service/internal/app/catalog/bootstrap"
	"tgshop/catalog-service/internal/app/catalog/config"
	"tgshop/catalog-service/internal/app/catalog/handler"
	"tgshop/catalog-service/internal/app/catalog/processor"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/catalog-service/internal/app/catalog/service"
	"tgshop/catalog-service/internal/app/catalog/shopsync"
	"tgshop/catalog-service/internal/app/catalog/util"
	"tgshop/pkg/logger"
)

const serviceName = "catalog-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := bootstrap.ConnectDB(cfg.Database, cfg.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")
	go bootstrap.ReportPoolStats(ctx, db, serviceName, 15*time.Second)

	redisCache, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	mongoClient, err := bootstrap.ConnectMongo(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	auditRepo := repository.NewSyncAuditRepository(mongoClient.Database(cfg.MongoDB.Database))
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

	var publisher util.MessagePublisher = util.NopPublisher{}
	if !cfg.Kafka.Disabled {
		publisher = util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")
	} else {
		logger.Warn().Msg("Kafka is disabled, catalog events will not be published")
	}
	defer publisher.Close()

	catalogService := service.NewCatalogService(
		repository.NewStore(db),
		shopsync.NewEngine(),
		redisCache,
		publisher,
		auditRepo,
		service.Options{
			CacheTTL:          cfg.Redis.TTL,
			ReconcileOnRead:   cfg.Sync.ReconcileOnRead,
			ReconcileCooldown: cfg.Sync.ReconcileCooldown,
		},
	)

	var consumer *processor.KafkaConsumer
	if !cfg.Kafka.Disabled {
		consumer = processor.NewKafkaConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ShopTopic,
			cfg.Kafka.GroupID,
			cfg.Kafka.MinBytes,
			cfg.Kafka.MaxBytes,
			catalogService,
		)
		consumer.Start(ctx)
	}

	var scheduler *processor.CronScheduler
	if cfg.Sync.SweepSchedule != "" {
		scheduler = processor.NewCronScheduler(catalogService)
		go func() {
			if err := scheduler.Start(ctx, cfg.Sync.SweepSchedule); err != nil {
				logger.Fatal().Err(err).Str("schedule", cfg.Sync.SweepSchedule).Msg("Failed to start sweep scheduler")
			}
		}()
	}

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	syncLimiter := handler.NewOwnerRateLimiter(cfg.Sync.SyncAllRate, cfg.Sync.SyncAllBurst)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	router := handler.SetupRoutes(catalogHandler, authMiddleware, syncLimiter, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // sync-all на большом каталоге
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Catalog Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Catalog Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}
	if consumer != nil {
		consumer.Stop()
	}

	logger.Info().Msg("Catalog Service stopped gracefully")
}
