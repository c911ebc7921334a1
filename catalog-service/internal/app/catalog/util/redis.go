package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName        = "catalog"
	catalogKeyPrefix   = "catalog"
	reconcileKeyPrefix = "reconcile"
	mainShopField      = "main"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFrom оборачивает готовый клиент (тесты, общий пул)
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Листинги владельца лежат в одном hash: catalog:{owner} -> {shop} -> JSON.
// Любое изменение каталога затрагивает все магазины владельца, поэтому
// инвалидация - это один DEL.
func catalogKey(ownerID int64) string {
	return fmt.Sprintf("%s:%d", catalogKeyPrefix, ownerID)
}

func shopField(shopID *uint) string {
	if shopID == nil {
		return mainShopField
	}
	return strconv.FormatUint(uint64(*shopID), 10)
}

func reconcileKey(ownerID int64) string {
	return fmt.Sprintf("%s:%d", reconcileKeyPrefix, ownerID)
}

func (r *RedisClient) GetListing(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpHGet)
	data, err := r.client.HGet(ctx, catalogKey(ownerID), shopField(shopID)).Bytes()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, catalogKeyPrefix)
			return nil, false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpHGet)
		return nil, false, fmt.Errorf("failed to get listing from cache: %w", err)
	}

	var products []entity.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal listing: %w", err)
	}

	metrics.RecordCacheHit(serviceName, catalogKeyPrefix)
	return products, true, nil
}

func (r *RedisClient) SetListing(ctx context.Context, ownerID int64, shopID *uint, products []entity.Product, ttl time.Duration) error {
	if products == nil {
		products = []entity.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	key := catalogKey(ownerID)
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpHSet)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, shopField(shopID), data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpHSet)
		return fmt.Errorf("failed to set listing in cache: %w", err)
	}

	return nil
}

func (r *RedisClient) InvalidateOwner(ctx context.Context, ownerID int64) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := r.client.Del(ctx, catalogKey(ownerID)).Err()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

func (r *RedisClient) TryAcquireReconcile(ctx context.Context, ownerID int64, cooldown time.Duration) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	ok, err := r.client.SetNX(ctx, reconcileKey(ownerID), time.Now().Unix(), cooldown).Result()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return false, fmt.Errorf("failed to acquire reconcile cooldown: %w", err)
	}
	return ok, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
