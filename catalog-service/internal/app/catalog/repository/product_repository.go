package repository

import (
	"context"
	"errors"
	"fmt"

	"tgshop/catalog-service/internal/app/catalog/entity"

	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар. После вызова product.ID заполнен,
// что нужно для самоссылки sync_product_id
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", translateError(err))
	}
	return nil
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id uint) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// Update перезаписывает все изменяемые поля товара, включая ключ корреляции
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	// Select вместо map: обнуленные поля тоже пишутся, а images проходит через json serializer
	result := r.db.WithContext(ctx).Model(product).
		Select(
			"sync_product_id", "category_id", "name", "description", "price",
			"discount", "quantity", "images", "is_hidden", "is_preorder",
		).
		Updates(product)

	if result.Error != nil {
		return translateError(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete удаляет товар
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ListByShop получает каталог одного магазина
func (r *productRepository) ListByShop(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Scopes(inShop(ownerID, shopID)).
		Order("id ASC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// ListByOwner получает товары владельца во всех магазинах (главный и спутники)
func (r *productRepository) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("id ASC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

func (r *productRepository) FindBySyncID(ctx context.Context, ownerID int64, shopID *uint, syncID uint) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).
		Scopes(inShop(ownerID, shopID)).
		Where("sync_product_id = ?", syncID).
		Order("id ASC").
		First(&product)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

func (r *productRepository) ListBySyncID(ctx context.Context, ownerID int64, shopID *uint, syncID uint) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Scopes(inShop(ownerID, shopID)).
		Where("sync_product_id = ?", syncID).
		Order("id ASC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

func (r *productRepository) ListByNamePrice(ctx context.Context, ownerID int64, shopID *uint, name string, price float64) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Scopes(inShop(ownerID, shopID)).
		Where("name = ? AND price = ?", name, price).
		Order("id ASC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// SetSyncID точечно проставляет ключ корреляции (backfill)
func (r *productRepository) SetSyncID(ctx context.Context, id uint, syncID uint) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", id).
		Update("sync_product_id", syncID)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepository) SetCategory(ctx context.Context, id uint, categoryID *uint) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", id).
		Update("category_id", categoryID)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DeleteByIDs удаляет пачку товаров и возвращает число удаленных строк
func (r *productRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.Product{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *productRepository) ListByCategory(ctx context.Context, categoryID uint) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// DeleteByCategory удаляет все товары категории (каскад при удалении категории)
func (r *productRepository) DeleteByCategory(ctx context.Context, categoryID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&entity.Product{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
