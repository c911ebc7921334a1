package shopsync

import (
	"context"
	"errors"
	"fmt"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/pkg/logger"
	"tgshop/pkg/metrics"
)

// PropagateProduct применяет изменение товара p ко всем остальным активным
// магазинам владельца. Основная запись (создание, обновление или удаление p)
// уже выполнена вызывающим кодом в той же транзакции tx.
//
// Для create и update p должен быть сохранен (p.ID != 0). Для delete p - это
// состояние строки до удаления.
func (e *Engine) PropagateProduct(ctx context.Context, tx repository.Store, p *entity.Product, action Action) (*Result, error) {
	targets, err := targetShops(ctx, tx, p.OwnerUserID, p.ShopID)
	if err != nil {
		return nil, err
	}

	res := &Result{Targets: len(targets)}

	switch action {
	case ActionCreate:
		err = e.propagateProductCreate(ctx, tx, p, targets, res)
	case ActionUpdate:
		err = e.propagateProductUpdate(ctx, tx, p, targets, res)
	case ActionDelete:
		err = e.propagateProductDelete(ctx, tx, p, targets, res)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordPropagation("product", string(action), res.Created, res.Updated, res.Deleted, res.Linked, res.Skipped)

	logger.Debug().
		Int64("owner_user_id", p.OwnerUserID).
		Uint("product_id", p.ID).
		Str("action", string(action)).
		Int("targets", res.Targets).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("linked", res.Linked).
		Int("skipped", res.Skipped).
		Msg("Product change propagated")

	return res, nil
}

func (e *Engine) propagateProductCreate(ctx context.Context, tx repository.Store, p *entity.Product, targets []*uint, res *Result) error {
	corr, _, err := e.establishCorrelation(ctx, tx, p, true, res)
	if err != nil {
		return err
	}

	categories := e.newCategoryMapper(tx, p.OwnerUserID, p.CategoryID)

	for _, target := range targets {
		match, err := e.ResolveProduct(ctx, tx, p, target)
		if err != nil {
			return err
		}

		switch match.Kind {
		case MatchExact:
			// Повторный create: копия уже есть
			continue
		case MatchFallback:
			res.Linked++
			continue
		}

		categoryID, err := categories.mapTo(ctx, target)
		if err != nil {
			return err
		}

		counterpart := newProductCounterpart(p, target, uintPtr(corr), categoryID)
		if err := tx.Products().Create(ctx, counterpart); err != nil {
			return fmt.Errorf("failed to create counterpart in shop %d: %w", shopKey(target), err)
		}
		res.Created++
	}

	return nil
}

// propagateProductUpdate перезаписывает поля существующих копий.
// Копия при update не создается: цель без копии пропускается.
func (e *Engine) propagateProductUpdate(ctx context.Context, tx repository.Store, p *entity.Product, targets []*uint, res *Result) error {
	if _, _, err := e.establishCorrelation(ctx, tx, p, false, res); err != nil {
		return err
	}

	categories := e.newCategoryMapper(tx, p.OwnerUserID, p.CategoryID)

	for _, target := range targets {
		match, err := e.ResolveProduct(ctx, tx, p, target)
		if err != nil {
			return err
		}

		if match.Kind == MatchNone {
			res.Skipped++
			continue
		}
		if match.Kind == MatchFallback {
			res.Linked++
		}

		categoryID, err := categories.mapTo(ctx, target)
		if err != nil {
			return err
		}

		counterpart := match.Product
		mapProductFields(counterpart, p)
		counterpart.CategoryID = categoryID

		if err := tx.Products().Update(ctx, counterpart); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				logger.Warn().
					Uint("product_id", counterpart.ID).
					Msg("Counterpart disappeared during update, skipping")
				res.Skipped++
				continue
			}
			return fmt.Errorf("failed to update counterpart %d: %w", counterpart.ID, err)
		}
		res.Updated++
	}

	return nil
}

// propagateProductDelete удаляет все копии логического товара во всех магазинах-целях.
// Связанная строка ищется по ключу корреляции. Для еще не связанной строки
// главного магазина ключом служит ее собственный ID, а непривязанные копии
// находятся по (name, price).
func (e *Engine) propagateProductDelete(ctx context.Context, tx repository.Store, p *entity.Product, targets []*uint, res *Result) error {
	products := tx.Products()

	var corr uint
	switch {
	case p.SyncProductID != nil:
		corr = *p.SyncProductID
	case p.IsMain():
		corr = p.ID
	}

	for _, target := range targets {
		ids := make([]uint, 0)

		if corr != 0 {
			linked, err := products.ListBySyncID(ctx, p.OwnerUserID, target, corr)
			if err != nil {
				return fmt.Errorf("failed to list counterparts by sync id: %w", err)
			}
			for _, c := range linked {
				if c.ID != p.ID {
					ids = append(ids, c.ID)
				}
			}
		}

		if p.SyncProductID == nil {
			unlinked, err := products.ListByNamePrice(ctx, p.OwnerUserID, target, p.Name, p.Price)
			if err != nil {
				return fmt.Errorf("failed to list counterparts by name and price: %w", err)
			}
			for _, c := range unlinked {
				if c.ID != p.ID && c.SyncProductID == nil {
					ids = append(ids, c.ID)
				}
			}
		}

		deleted, err := products.DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to delete counterparts in shop %d: %w", shopKey(target), err)
		}
		res.Deleted += int(deleted)
	}

	return nil
}

// PropagateCategory применяет изменение категории c к остальным активным
// магазинам владельца. Категории сопоставляются по имени. Для update
// previousName - имя до переименования (пустое, если имя не менялось).
func (e *Engine) PropagateCategory(ctx context.Context, tx repository.Store, c *entity.Category, action Action, previousName string) (*Result, error) {
	targets, err := targetShops(ctx, tx, c.OwnerUserID, c.ShopID)
	if err != nil {
		return nil, err
	}

	res := &Result{Targets: len(targets)}
	parents := e.newCategoryMapper(tx, c.OwnerUserID, c.ParentID)

	for _, target := range targets {
		switch action {
		case ActionCreate:
			err = e.propagateCategoryCreate(ctx, tx, c, target, parents, res)
		case ActionUpdate:
			lookup := previousName
			if lookup == "" {
				lookup = c.Name
			}
			err = e.propagateCategoryUpdate(ctx, tx, c, lookup, target, parents, res)
		case ActionDelete:
			err = e.propagateCategoryDelete(ctx, tx, c, target, res)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		if err != nil {
			return nil, err
		}
	}

	metrics.RecordPropagation("category", string(action), res.Created, res.Updated, res.Deleted, res.Linked, res.Skipped)

	logger.Debug().
		Int64("owner_user_id", c.OwnerUserID).
		Uint("category_id", c.ID).
		Str("action", string(action)).
		Int("targets", res.Targets).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("skipped", res.Skipped).
		Msg("Category change propagated")

	return res, nil
}

func (e *Engine) propagateCategoryCreate(ctx context.Context, tx repository.Store, c *entity.Category, target *uint, parents *categoryMapper, res *Result) error {
	match, err := e.ResolveCategory(ctx, tx, c.OwnerUserID, c.Name, target)
	if err != nil {
		return err
	}
	if match.Kind != MatchNone {
		return nil
	}

	parentID, err := parents.mapTo(ctx, target)
	if err != nil {
		return err
	}

	counterpart := newCategoryCounterpart(c, target, parentID)
	if err := tx.Categories().Create(ctx, counterpart); err != nil {
		return fmt.Errorf("failed to create category counterpart in shop %d: %w", shopKey(target), err)
	}
	res.Created++
	return nil
}

func (e *Engine) propagateCategoryUpdate(ctx context.Context, tx repository.Store, c *entity.Category, lookup string, target *uint, parents *categoryMapper, res *Result) error {
	match, err := e.ResolveCategory(ctx, tx, c.OwnerUserID, lookup, target)
	if err != nil {
		return err
	}
	if match.Kind == MatchNone {
		res.Skipped++
		return nil
	}

	parentID, err := parents.mapTo(ctx, target)
	if err != nil {
		return err
	}

	counterpart := match.Category
	mapCategoryFields(counterpart, c)
	// Категория не может быть родителем самой себе
	if parentID != nil && *parentID == counterpart.ID {
		parentID = nil
	}
	counterpart.ParentID = parentID

	if err := tx.Categories().Update(ctx, counterpart); err != nil {
		return fmt.Errorf("failed to update category counterpart %d: %w", counterpart.ID, err)
	}
	res.Updated++
	return nil
}

// propagateCategoryDelete удаляет одноименную категорию в target вместе с ее
// товарами. Дочерние категории остаются, но теряют родителя.
func (e *Engine) propagateCategoryDelete(ctx context.Context, tx repository.Store, c *entity.Category, target *uint, res *Result) error {
	match, err := e.ResolveCategory(ctx, tx, c.OwnerUserID, c.Name, target)
	if err != nil {
		return err
	}
	if match.Kind == MatchNone {
		return nil
	}

	id := match.Category.ID

	products, err := tx.Products().DeleteByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete products of category %d: %w", id, err)
	}
	if err := tx.Categories().ClearParent(ctx, id); err != nil {
		return fmt.Errorf("failed to detach children of category %d: %w", id, err)
	}
	if err := tx.Categories().Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete category counterpart %d: %w", id, err)
	}

	res.Deleted++
	logger.Debug().
		Uint("category_id", id).
		Int64("products_deleted", products).
		Msg("Category counterpart deleted")
	return nil
}
