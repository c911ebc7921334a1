package util

import (
	"context"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
)

// CatalogCache - кеш листингов магазинов и ключи паузы между сверками
// Используется для dependency injection и упрощения тестирования
type CatalogCache interface {
	// GetListing возвращает закешированный каталог магазина. ok == false при промахе
	GetListing(ctx context.Context, ownerID int64, shopID *uint) (products []entity.Product, ok bool, err error)
	SetListing(ctx context.Context, ownerID int64, shopID *uint, products []entity.Product, ttl time.Duration) error
	// InvalidateOwner сбрасывает листинги всех магазинов владельца
	InvalidateOwner(ctx context.Context, ownerID int64) error
	// TryAcquireReconcile ставит ключ паузы. false - сверка уже была недавно
	TryAcquireReconcile(ctx context.Context, ownerID int64, cooldown time.Duration) (bool, error)
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
