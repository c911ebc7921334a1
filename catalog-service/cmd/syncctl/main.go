package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgshop/catalog-service/internal/app/catalog/bootstrap"
	"tgshop/catalog-service/internal/app/catalog/cli"
	"tgshop/catalog-service/internal/app/catalog/config"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/catalog-service/internal/app/catalog/service"
	"tgshop/catalog-service/internal/app/catalog/shopsync"
	"tgshop/catalog-service/internal/app/catalog/util"
	"tgshop/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(connect).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// connect собирает CatalogService с теми же хранилищами, что и HTTP-сервис:
// после сверки из CLI кеш листингов сбрасывается и событие уходит в Kafka
func connect(ctx context.Context) (cli.Backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Логи в stderr, чтобы не смешиваться с выводом --format json
	logger.InitWithWriter("syncctl", cfg.Log.Level, os.Stderr)

	db, err := bootstrap.ConnectDB(cfg.Database, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	redisCache, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	mongoClient, err := bootstrap.ConnectMongo(cfg.MongoDB)
	if err != nil {
		redisCache.Close()
		sqlDB.Close()
		return nil, nil, err
	}

	var publisher util.MessagePublisher = util.NopPublisher{}
	if !cfg.Kafka.Disabled {
		publisher = util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	svc := service.NewCatalogService(
		repository.NewStore(db),
		shopsync.NewEngine(),
		redisCache,
		publisher,
		repository.NewSyncAuditRepository(mongoClient.Database(cfg.MongoDB.Database)),
		service.Options{CacheTTL: cfg.Redis.TTL},
	)

	closeFn := func() {
		publisher.Close()
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
		redisCache.Close()
		sqlDB.Close()
	}

	return svc, closeFn, nil
}
