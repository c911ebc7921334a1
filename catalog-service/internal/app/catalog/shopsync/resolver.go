package shopsync

import (
	"context"
	"errors"
	"fmt"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/pkg/logger"
)

// MatchKind показывает, насколько уверенно найдена копия
type MatchKind int

const (
	MatchNone     MatchKind = iota // Копии нет, вызывающий код создает ее сам
	MatchExact                     // Найдена по sync_product_id (для категорий - по имени)
	MatchFallback                  // Найдена по (name, price), ключ корреляции проставлен заново
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchFallback:
		return "fallback"
	default:
		return "none"
	}
}

type ProductMatch struct {
	Kind    MatchKind
	Product *entity.Product
}

type CategoryMatch struct {
	Kind     MatchKind
	Category *entity.Category
}

// ResolveProduct ищет копию товара src в магазине target.
//
//  1. По sync_product_id источника.
//  2. Иначе по (name, price) среди еще не связанных строк. Найденной строке
//     проставляется ключ корреляции источника, если он у источника есть.
//  3. Иначе MatchNone. Отсутствие копии ошибкой не считается.
//
// Запасное сопоставление не забирает строки, уже связанные с другим товаром.
// Два разных товара с одинаковыми именем и ценой все равно неразличимы:
// выигрывает строка с меньшим id.
func (e *Engine) ResolveProduct(ctx context.Context, tx repository.Store, src *entity.Product, target *uint) (ProductMatch, error) {
	products := tx.Products()

	if src.SyncProductID != nil {
		p, err := products.FindBySyncID(ctx, src.OwnerUserID, target, *src.SyncProductID)
		if err == nil {
			return ProductMatch{Kind: MatchExact, Product: p}, nil
		}
		if !errors.Is(err, repository.ErrProductNotFound) {
			return ProductMatch{}, fmt.Errorf("failed to find counterpart by sync id: %w", err)
		}
	}

	candidates, err := products.ListByNamePrice(ctx, src.OwnerUserID, target, src.Name, src.Price)
	if err != nil {
		return ProductMatch{}, fmt.Errorf("failed to find counterpart by name and price: %w", err)
	}

	for i := range candidates {
		c := &candidates[i]
		if c.ID == src.ID || c.SyncProductID != nil {
			continue
		}

		if src.SyncProductID != nil {
			if err := products.SetSyncID(ctx, c.ID, *src.SyncProductID); err != nil {
				return ProductMatch{}, fmt.Errorf("failed to backfill sync id: %w", err)
			}
			c.SyncProductID = uintPtr(*src.SyncProductID)
		}

		return ProductMatch{Kind: MatchFallback, Product: c}, nil
	}

	return ProductMatch{Kind: MatchNone}, nil
}

// ResolveCategory ищет в магазине target категорию с именем name
func (e *Engine) ResolveCategory(ctx context.Context, tx repository.Store, ownerID int64, name string, target *uint) (CategoryMatch, error) {
	c, err := tx.Categories().FindByName(ctx, ownerID, target, name)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return CategoryMatch{Kind: MatchNone}, nil
		}
		return CategoryMatch{}, fmt.Errorf("failed to find category counterpart: %w", err)
	}
	return CategoryMatch{Kind: MatchExact, Category: c}, nil
}

// establishCorrelation гарантирует, что у src есть ключ корреляции, и возвращает его.
//
// Товар главного магазина ссылается сам на себя. Товар спутника без ключа
// сначала ищет уже существующий товар главного магазина по (name, price) и
// берет его ключ. Если такого нет и mint == true, в главном магазине
// создается копия, и ключом становится ее ID. При mint == false товар
// остается без ключа, а ok == false.
func (e *Engine) establishCorrelation(ctx context.Context, tx repository.Store, src *entity.Product, mint bool, res *Result) (uint, bool, error) {
	if src.SyncProductID != nil {
		return *src.SyncProductID, true, nil
	}

	products := tx.Products()

	if src.IsMain() {
		if err := products.SetSyncID(ctx, src.ID, src.ID); err != nil {
			return 0, false, fmt.Errorf("failed to set self sync id: %w", err)
		}
		src.SyncProductID = uintPtr(src.ID)
		return src.ID, true, nil
	}

	candidates, err := products.ListByNamePrice(ctx, src.OwnerUserID, nil, src.Name, src.Price)
	if err != nil {
		return 0, false, fmt.Errorf("failed to find main counterpart: %w", err)
	}

	if len(candidates) > 0 {
		main := &candidates[0]
		corr := main.CorrelationID()
		if main.SyncProductID == nil {
			if err := products.SetSyncID(ctx, main.ID, main.ID); err != nil {
				return 0, false, fmt.Errorf("failed to set self sync id on main counterpart: %w", err)
			}
		}
		if err := products.SetSyncID(ctx, src.ID, corr); err != nil {
			return 0, false, fmt.Errorf("failed to adopt main sync id: %w", err)
		}
		src.SyncProductID = uintPtr(corr)
		res.Linked++
		return corr, true, nil
	}

	if !mint {
		return 0, false, nil
	}

	categoryID, err := e.newCategoryMapper(tx, src.OwnerUserID, src.CategoryID).mapTo(ctx, nil)
	if err != nil {
		return 0, false, err
	}

	main := newProductCounterpart(src, nil, nil, categoryID)
	if err := products.Create(ctx, main); err != nil {
		return 0, false, fmt.Errorf("failed to create main counterpart: %w", err)
	}
	if err := products.SetSyncID(ctx, main.ID, main.ID); err != nil {
		return 0, false, fmt.Errorf("failed to set self sync id on main counterpart: %w", err)
	}
	if err := products.SetSyncID(ctx, src.ID, main.ID); err != nil {
		return 0, false, fmt.Errorf("failed to link source to main counterpart: %w", err)
	}
	src.SyncProductID = uintPtr(main.ID)
	res.Created++

	logger.Debug().
		Int64("owner_user_id", src.OwnerUserID).
		Uint("product_id", src.ID).
		Uint("main_product_id", main.ID).
		Msg("Created main counterpart for satellite product")

	return main.ID, true, nil
}

// categoryMapper переводит category_id товара-источника в ID одноименной
// категории магазина-цели. Имя исходной категории запрашивается один раз.
type categoryMapper struct {
	tx       repository.Store
	ownerID  int64
	sourceID *uint
	name     string
	loaded   bool
}

func (e *Engine) newCategoryMapper(tx repository.Store, ownerID int64, sourceID *uint) *categoryMapper {
	return &categoryMapper{tx: tx, ownerID: ownerID, sourceID: sourceID}
}

// mapTo возвращает ID категории в target или nil, если одноименной категории там нет
func (m *categoryMapper) mapTo(ctx context.Context, target *uint) (*uint, error) {
	if m.sourceID == nil {
		return nil, nil
	}

	if !m.loaded {
		m.loaded = true
		c, err := m.tx.Categories().GetByID(ctx, *m.sourceID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				logger.Debug().
					Uint("category_id", *m.sourceID).
					Msg("Source category not found, counterparts stay uncategorized")
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get source category: %w", err)
		}
		m.name = c.Name
	}

	if m.name == "" {
		return nil, nil
	}

	c, err := m.tx.Categories().FindByName(ctx, m.ownerID, target, m.name)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to map category: %w", err)
	}

	return uintPtr(c.ID), nil
}
