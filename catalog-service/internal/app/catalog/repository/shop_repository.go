package repository

import (
	"context"
	"errors"
	"fmt"

	"tgshop/catalog-service/internal/app/catalog/entity"

	"gorm.io/gorm"
)

type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository создает новый репозиторий ботов-витрин
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) Create(ctx context.Context, shop *entity.Shop) error {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return fmt.Errorf("failed to create shop: %w", translateError(err))
	}
	return nil
}

func (r *shopRepository) GetByID(ctx context.Context, id uint) (*entity.Shop, error) {
	var shop entity.Shop
	result := r.db.WithContext(ctx).First(&shop, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, result.Error
	}

	return &shop, nil
}

func (r *shopRepository) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Shop, error) {
	var shops []entity.Shop
	result := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("id ASC").
		Find(&shops)

	if result.Error != nil {
		return nil, result.Error
	}

	return shops, nil
}

// ListActiveByOwner возвращает активные спутниковые магазины владельца.
// Именно они (плюс главный) участвуют в синхронизации
func (r *shopRepository) ListActiveByOwner(ctx context.Context, ownerID int64) ([]entity.Shop, error) {
	var shops []entity.Shop
	result := r.db.WithContext(ctx).
		Where("owner_user_id = ? AND is_active = ?", ownerID, true).
		Order("id ASC").
		Find(&shops)

	if result.Error != nil {
		return nil, result.Error
	}

	return shops, nil
}

// SetActive включает или отключает бота. Данные магазина при отключении не удаляются
func (r *shopRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Shop{}).
		Where("id = ?", id).
		Update("is_active", active)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrShopNotFound
	}

	return nil
}

// ListOwnersWithActiveShops нужен периодической сверке всех владельцев
func (r *shopRepository) ListOwnersWithActiveShops(ctx context.Context) ([]int64, error) {
	var owners []int64
	result := r.db.WithContext(ctx).
		Model(&entity.Shop{}).
		Where("is_active = ?", true).
		Distinct().
		Order("owner_user_id ASC").
		Pluck("owner_user_id", &owners)

	if result.Error != nil {
		return nil, result.Error
	}

	return owners, nil
}
