package repository

import (
	"context"
	"errors"

	"tgshop/catalog-service/internal/app/catalog/entity"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrShopNotFound     = errors.New("shop not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrForeignKey       = errors.New("foreign key violation")
)

// Store объединяет репозитории каталога и дает доступ к единице работы (транзакции).
// Все операции синхронизации получают Store явно, поэтому внутри Transaction
// мутация, распространение по магазинам и сверка выполняются в одной транзакции.
type Store interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Shops() ShopRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// ShopRepository работает с ботами-витринами (таблица bots).
// shopID == nil во всех методах означает главный магазин.
type ShopRepository interface {
	Create(ctx context.Context, shop *entity.Shop) error
	GetByID(ctx context.Context, id uint) (*entity.Shop, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]entity.Shop, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]entity.Shop, error)
	SetActive(ctx context.Context, id uint, active bool) error
	ListOwnersWithActiveShops(ctx context.Context) ([]int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uint) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uint) error
	ListByShop(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Category, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]entity.Category, error)
	FindByName(ctx context.Context, ownerID int64, shopID *uint, name string) (*entity.Category, error)
	SetParent(ctx context.Context, id uint, parentID *uint) error
	ClearParent(ctx context.Context, parentID uint) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uint) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uint) error
	ListByShop(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]entity.Product, error)

	// FindBySyncID ищет в магазине строку с заданным ключом корреляции
	FindBySyncID(ctx context.Context, ownerID int64, shopID *uint, syncID uint) (*entity.Product, error)
	ListBySyncID(ctx context.Context, ownerID int64, shopID *uint, syncID uint) ([]entity.Product, error)
	// ListByNamePrice - запасное сопоставление по (name, price), порядок по id
	ListByNamePrice(ctx context.Context, ownerID int64, shopID *uint, name string, price float64) ([]entity.Product, error)

	SetSyncID(ctx context.Context, id uint, syncID uint) error
	SetCategory(ctx context.Context, id uint, categoryID *uint) error
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	// ListByCategory - товары одной категории, порядок по id
	ListByCategory(ctx context.Context, categoryID uint) ([]entity.Product, error)
	DeleteByCategory(ctx context.Context, categoryID uint) (int64, error)
}

// SyncAuditRepository хранит историю проходов сверки каталога
type SyncAuditRepository interface {
	Record(ctx context.Context, run *entity.SyncRun) error
	ListByOwner(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error)
}
