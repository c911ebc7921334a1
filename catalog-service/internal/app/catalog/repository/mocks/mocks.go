package mocks

import (
	"context"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/shopsync"

	"github.com/stretchr/testify/mock"
)

// MockCatalogCache мок для CatalogCache
type MockCatalogCache struct {
	mock.Mock
}

func (m *MockCatalogCache) GetListing(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, bool, error) {
	args := m.Called(ctx, ownerID, shopID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]entity.Product), args.Bool(1), args.Error(2)
}

func (m *MockCatalogCache) SetListing(ctx context.Context, ownerID int64, shopID *uint, products []entity.Product, ttl time.Duration) error {
	args := m.Called(ctx, ownerID, shopID, products, ttl)
	return args.Error(0)
}

func (m *MockCatalogCache) InvalidateOwner(ctx context.Context, ownerID int64) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *MockCatalogCache) TryAcquireReconcile(ctx context.Context, ownerID int64, cooldown time.Duration) (bool, error) {
	args := m.Called(ctx, ownerID, cooldown)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMessagePublisher мок для MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSyncAuditRepository мок для SyncAuditRepository
type MockSyncAuditRepository struct {
	mock.Mock
}

func (m *MockSyncAuditRepository) Record(ctx context.Context, run *entity.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSyncAuditRepository) ListByOwner(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SyncRun), args.Error(1)
}

// MockShopEventHandler мок для обработчика событий ботов
type MockShopEventHandler struct {
	mock.Mock
}

func (m *MockShopEventHandler) HandleShopEvent(ctx context.Context, event *entity.ShopEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockReconciler мок для фоновых сверок
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileOwner(ctx context.Context, ownerID int64, trigger string) (*shopsync.Report, error) {
	args := m.Called(ctx, ownerID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopsync.Report), args.Error(1)
}

func (m *MockReconciler) SweepAll(ctx context.Context, trigger string) (int, error) {
	args := m.Called(ctx, trigger)
	return args.Int(0), args.Error(1)
}
