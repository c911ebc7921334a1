package repository

import (
	"context"
	"errors"
	"fmt"

	"tgshop/catalog-service/internal/app/catalog/entity"

	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create создает новую категорию
func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", translateError(err))
	}
	return nil
}

// GetByID получает категорию по ID
func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*entity.Category, error) {
	var category entity.Category
	result := r.db.WithContext(ctx).First(&category, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, result.Error
	}

	return &category, nil
}

// Update обновляет имя и родителя категории
func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	result := r.db.WithContext(ctx).Model(category).
		Select("name", "parent_id").
		Updates(category)

	if result.Error != nil {
		return translateError(result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete удаляет категорию. Товары категории удаляет вызывающий код
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Category{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *categoryRepository) ListByShop(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Category, error) {
	var categories []entity.Category
	result := r.db.WithContext(ctx).
		Scopes(inShop(ownerID, shopID)).
		Order("id ASC").
		Find(&categories)

	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

func (r *categoryRepository) ListByOwner(ctx context.Context, ownerID int64) ([]entity.Category, error) {
	var categories []entity.Category
	result := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("id ASC").
		Find(&categories)

	if result.Error != nil {
		return nil, result.Error
	}

	return categories, nil
}

// FindByName ищет категорию по имени в магазине. При дублях побеждает меньший id
func (r *categoryRepository) FindByName(ctx context.Context, ownerID int64, shopID *uint, name string) (*entity.Category, error) {
	var category entity.Category
	result := r.db.WithContext(ctx).
		Scopes(inShop(ownerID, shopID)).
		Where("name = ?", name).
		Order("id ASC").
		First(&category)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, result.Error
	}

	return &category, nil
}

func (r *categoryRepository) SetParent(ctx context.Context, id uint, parentID *uint) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Category{}).
		Where("id = ?", id).
		Update("parent_id", parentID)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// ClearParent отвязывает подкатегории удаляемой категории
func (r *categoryRepository) ClearParent(ctx context.Context, parentID uint) error {
	return r.db.WithContext(ctx).
		Model(&entity.Category{}).
		Where("parent_id = ?", parentID).
		Update("parent_id", nil).Error
}
