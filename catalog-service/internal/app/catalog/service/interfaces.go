package service

import (
	"context"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/shopsync"
)

// CatalogServiceInterface - операции каталога, доступные HTTP-слою
type CatalogServiceInterface interface {
	CreateProduct(ctx context.Context, ownerID int64, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, ownerID int64, id uint) (*entity.Product, error)
	ListProducts(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, error)
	UpdateProduct(ctx context.Context, ownerID int64, id uint, req *entity.UpdateProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, ownerID int64, id uint) error
	SyncAll(ctx context.Context, ownerID int64) (*entity.SyncAllResponse, error)

	CreateCategory(ctx context.Context, ownerID int64, req *entity.CreateCategoryRequest) (*entity.Category, error)
	ListCategories(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Category, error)
	UpdateCategory(ctx context.Context, ownerID int64, id uint, req *entity.UpdateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, ownerID int64, id uint) error

	RegisterShop(ctx context.Context, ownerID int64, req *entity.RegisterShopRequest) (*entity.Shop, error)
	ListShops(ctx context.Context, ownerID int64) ([]entity.Shop, error)
	DeactivateShop(ctx context.Context, ownerID int64, id uint) error

	ListSyncRuns(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error)
}

// ShopEventHandler - обработчик событий ботов для Kafka consumer
type ShopEventHandler interface {
	HandleShopEvent(ctx context.Context, event *entity.ShopEvent) error
}

// Reconciler - фоновые и ручные сверки (cron, CLI)
type Reconciler interface {
	ReconcileOwner(ctx context.Context, ownerID int64, trigger string) (*shopsync.Report, error)
	SweepAll(ctx context.Context, trigger string) (int, error)
}

var (
	_ CatalogServiceInterface = (*CatalogService)(nil)
	_ ShopEventHandler        = (*CatalogService)(nil)
	_ Reconciler              = (*CatalogService)(nil)
)
