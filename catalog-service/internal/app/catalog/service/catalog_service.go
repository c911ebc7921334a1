package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/catalog-service/internal/app/catalog/shopsync"
	"tgshop/catalog-service/internal/app/catalog/util"
	"tgshop/pkg/logger"
	"tgshop/pkg/metrics"

	"github.com/google/uuid"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrCategoryNotFound     = errors.New("category not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrShopNotFound         = errors.New("shop not found")
	ErrShopInactive         = errors.New("shop is inactive")
	ErrCategoryShopMismatch = errors.New("category belongs to another shop")
	ErrInvalidParent        = errors.New("category cannot be its own parent")
	ErrUnknownShopEvent     = errors.New("unknown shop event")
)

// Источники запуска сверки (метки метрик и поле trigger в аудите)
const (
	TriggerRead           = "read"
	TriggerManual         = "manual"
	TriggerCron           = "cron"
	TriggerShopEvent      = "shop_event"
	TriggerShopRegistered = "shop_registered"
	TriggerCLI            = "cli"
)

// Options - настройки чтения каталога
type Options struct {
	CacheTTL          time.Duration // TTL листинга в Redis
	ReconcileOnRead   bool          // Сверять каталог при промахе кеша
	ReconcileCooldown time.Duration // 0 - сверка при каждом промахе
}

// CatalogService обрабатывает бизнес-логику каталога всех магазинов владельца.
// Каждая мутация выполняется вместе с распространением по магазинам в одной
// транзакции. Кеш, события Kafka и аудит - после фиксации, их ошибки только логируются.
type CatalogService struct {
	store     repository.Store
	engine    *shopsync.Engine
	cache     util.CatalogCache
	publisher util.MessagePublisher
	audit     repository.SyncAuditRepository // может быть nil
	opts      Options
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	store repository.Store,
	engine *shopsync.Engine,
	cache util.CatalogCache,
	publisher util.MessagePublisher,
	audit repository.SyncAuditRepository,
	opts Options,
) *CatalogService {
	return &CatalogService{
		store:     store,
		engine:    engine,
		cache:     cache,
		publisher: publisher,
		audit:     audit,
		opts:      opts,
	}
}

// === PRODUCTS ===

// CreateProduct создает товар в указанном магазине (nil - главный) и его копии во всех остальных
func (s *CatalogService) CreateProduct(ctx context.Context, ownerID int64, req *entity.CreateProductRequest) (*entity.Product, error) {
	product := &entity.Product{
		OwnerUserID: ownerID,
		ShopID:      req.ShopID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Quantity:    req.Quantity,
		Images:      req.Images,
		IsHidden:    req.IsHidden,
		IsPreorder:  req.IsPreorder,
	}
	product.RoundMoney()

	var res *shopsync.Result
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := s.checkShop(ctx, tx, ownerID, req.ShopID); err != nil {
			return err
		}
		if err := s.checkCategory(ctx, tx, ownerID, req.ShopID, req.CategoryID); err != nil {
			return err
		}

		if err := tx.Products().Create(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		var err error
		res, err = s.engine.PropagateProduct(ctx, tx, product, shopsync.ActionCreate)
		if err != nil {
			return fmt.Errorf("failed to propagate product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterProductChange(ctx, entity.EventProductCreated, product, res)
	return product, nil
}

// GetProduct получает товар владельца по ID
func (s *CatalogService) GetProduct(ctx context.Context, ownerID int64, id uint) (*entity.Product, error) {
	return s.getOwnedProduct(ctx, s.store, ownerID, id)
}

// ListProducts возвращает каталог магазина. При промахе кеша каталог владельца
// сначала сверяется (не чаще ReconcileCooldown), затем листинг кешируется.
// Ошибка сверки возвращается вызывающему коду.
func (s *CatalogService) ListProducts(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Product, error) {
	if err := s.checkShop(ctx, s.store, ownerID, shopID); err != nil {
		return nil, err
	}

	products, ok, err := s.cache.GetListing(ctx, ownerID, shopID)
	if err != nil {
		logger.Warn().Err(err).Int64("owner_user_id", ownerID).Msg("Failed to read catalog cache")
	}
	if ok {
		return products, nil
	}

	if s.opts.ReconcileOnRead && s.acquireReconcile(ctx, ownerID) {
		if _, err := s.reconcile(ctx, ownerID, TriggerRead); err != nil {
			return nil, err
		}
	}

	products, err = s.store.Products().ListByShop(ctx, ownerID, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if err := s.cache.SetListing(ctx, ownerID, shopID, products, s.opts.CacheTTL); err != nil {
		logger.Warn().Err(err).Int64("owner_user_id", ownerID).Msg("Failed to cache catalog listing")
	}

	return products, nil
}

// UpdateProduct частично обновляет товар и переносит изменения в копии
func (s *CatalogService) UpdateProduct(ctx context.Context, ownerID int64, id uint, req *entity.UpdateProductRequest) (*entity.Product, error) {
	var product *entity.Product
	var res *shopsync.Result

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = s.getOwnedProduct(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.checkShop(ctx, tx, ownerID, product.ShopID); err != nil {
			return err
		}

		if req.CategoryID != nil {
			if err := s.checkCategory(ctx, tx, ownerID, product.ShopID, req.CategoryID); err != nil {
				return err
			}
			product.CategoryID = req.CategoryID
		}
		if req.ClearCategory {
			product.CategoryID = nil
		}
		applyProductUpdate(product, req)
		product.RoundMoney()

		if err := tx.Products().Update(ctx, product); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		res, err = s.engine.PropagateProduct(ctx, tx, product, shopsync.ActionUpdate)
		if err != nil {
			return fmt.Errorf("failed to propagate product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterProductChange(ctx, entity.EventProductUpdated, product, res)
	return product, nil
}

// DeleteProduct удаляет товар и все его копии
func (s *CatalogService) DeleteProduct(ctx context.Context, ownerID int64, id uint) error {
	var product *entity.Product
	var res *shopsync.Result

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = s.getOwnedProduct(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.checkShop(ctx, tx, ownerID, product.ShopID); err != nil {
			return err
		}

		if err := tx.Products().Delete(ctx, product.ID); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to delete product: %w", err)
		}

		res, err = s.engine.PropagateProduct(ctx, tx, product, shopsync.ActionDelete)
		if err != nil {
			return fmt.Errorf("failed to propagate product deletion: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterProductChange(ctx, entity.EventProductDeleted, product, res)
	return nil
}

// SyncAll немедленно выполняет полную сверку каталога владельца (POST /products/sync-all)
func (s *CatalogService) SyncAll(ctx context.Context, ownerID int64) (*entity.SyncAllResponse, error) {
	report, err := s.reconcile(ctx, ownerID, TriggerManual)
	if err != nil {
		return nil, err
	}

	return &entity.SyncAllResponse{
		SyncedCount:  report.SyncedCount(),
		DeletedCount: report.Deleted,
	}, nil
}

func applyProductUpdate(p *entity.Product, req *entity.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Discount != nil {
		p.Discount = *req.Discount
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Images != nil {
		p.Images = *req.Images
	}
	if req.IsHidden != nil {
		p.IsHidden = *req.IsHidden
	}
	if req.IsPreorder != nil {
		p.IsPreorder = *req.IsPreorder
	}
}

// === CATEGORIES ===

// CreateCategory создает категорию и одноименные категории в остальных магазинах
func (s *CatalogService) CreateCategory(ctx context.Context, ownerID int64, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	category := &entity.Category{
		OwnerUserID: ownerID,
		ShopID:      req.ShopID,
		Name:        req.Name,
		ParentID:    req.ParentID,
	}

	var res *shopsync.Result
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := s.checkShop(ctx, tx, ownerID, req.ShopID); err != nil {
			return err
		}
		if err := s.checkCategory(ctx, tx, ownerID, req.ShopID, req.ParentID); err != nil {
			return err
		}

		if err := tx.Categories().Create(ctx, category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}

		var err error
		res, err = s.engine.PropagateCategory(ctx, tx, category, shopsync.ActionCreate, "")
		if err != nil {
			return fmt.Errorf("failed to propagate category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCategoryChange(ctx, entity.EventCategoryCreated, category, res)
	return category, nil
}

// ListCategories возвращает категории одного магазина
func (s *CatalogService) ListCategories(ctx context.Context, ownerID int64, shopID *uint) ([]entity.Category, error) {
	if err := s.checkShop(ctx, s.store, ownerID, shopID); err != nil {
		return nil, err
	}

	categories, err := s.store.Categories().ListByShop(ctx, ownerID, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory переименовывает категорию или меняет родителя.
// Копии в других магазинах ищутся по старому имени.
func (s *CatalogService) UpdateCategory(ctx context.Context, ownerID int64, id uint, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	var category *entity.Category
	var res *shopsync.Result

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		category, err = s.getOwnedCategory(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.checkShop(ctx, tx, ownerID, category.ShopID); err != nil {
			return err
		}

		previousName := ""
		if req.Name != "" && req.Name != category.Name {
			previousName = category.Name
			category.Name = req.Name
		}
		if req.ParentID != nil {
			if *req.ParentID == category.ID {
				return ErrInvalidParent
			}
			if err := s.checkCategory(ctx, tx, ownerID, category.ShopID, req.ParentID); err != nil {
				return err
			}
			category.ParentID = req.ParentID
		}

		if err := tx.Categories().Update(ctx, category); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to update category: %w", err)
		}

		res, err = s.engine.PropagateCategory(ctx, tx, category, shopsync.ActionUpdate, previousName)
		if err != nil {
			return fmt.Errorf("failed to propagate category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCategoryChange(ctx, entity.EventCategoryUpdated, category, res)
	return category, nil
}

// DeleteCategory удаляет категорию вместе с ее товарами во всех магазинах.
// Дочерние категории остаются без родителя.
func (s *CatalogService) DeleteCategory(ctx context.Context, ownerID int64, id uint) error {
	var category *entity.Category
	var res *shopsync.Result

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		category, err = s.getOwnedCategory(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}

		if err := s.checkShop(ctx, tx, ownerID, category.ShopID); err != nil {
			return err
		}

		// Копии товаров в других магазинах могут лежать вне одноименной категории,
		// поэтому удаление каждого товара распространяется отдельно
		products, err := tx.Products().ListByCategory(ctx, category.ID)
		if err != nil {
			return fmt.Errorf("failed to list category products: %w", err)
		}
		if _, err := tx.Products().DeleteByCategory(ctx, category.ID); err != nil {
			return fmt.Errorf("failed to delete category products: %w", err)
		}
		productCopies := 0
		for i := range products {
			pres, err := s.engine.PropagateProduct(ctx, tx, &products[i], shopsync.ActionDelete)
			if err != nil {
				return fmt.Errorf("failed to propagate product deletion: %w", err)
			}
			productCopies += pres.Deleted
		}

		if err := tx.Categories().ClearParent(ctx, category.ID); err != nil {
			return fmt.Errorf("failed to detach child categories: %w", err)
		}
		if err := tx.Categories().Delete(ctx, category.ID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to delete category: %w", err)
		}

		res, err = s.engine.PropagateCategory(ctx, tx, category, shopsync.ActionDelete, "")
		if err != nil {
			return fmt.Errorf("failed to propagate category deletion: %w", err)
		}
		res.Deleted += productCopies
		return nil
	})
	if err != nil {
		return err
	}

	s.afterCategoryChange(ctx, entity.EventCategoryDeleted, category, res)
	return nil
}

// === SHOPS ===

// RegisterShop подключает нового бота-витрину и сразу наполняет его каталогом владельца
func (s *CatalogService) RegisterShop(ctx context.Context, ownerID int64, req *entity.RegisterShopRequest) (*entity.Shop, error) {
	shop := &entity.Shop{
		OwnerUserID: ownerID,
		Name:        req.Name,
		IsActive:    true,
	}

	if err := s.store.Shops().Create(ctx, shop); err != nil {
		return nil, fmt.Errorf("failed to register shop: %w", err)
	}

	if _, err := s.reconcile(ctx, ownerID, TriggerShopRegistered); err != nil {
		// Бот уже создан, каталог доедет со следующей сверкой
		logger.Error().Err(err).
			Int64("owner_user_id", ownerID).
			Uint("shop_id", shop.ID).
			Msg("Failed to fill new shop with catalog")
	}

	return shop, nil
}

// ListShops возвращает всех ботов владельца, включая отключенных
func (s *CatalogService) ListShops(ctx context.Context, ownerID int64) ([]entity.Shop, error) {
	shops, err := s.store.Shops().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return shops, nil
}

// DeactivateShop отключает бота. Его каталог сохраняется, но больше не синхронизируется
func (s *CatalogService) DeactivateShop(ctx context.Context, ownerID int64, id uint) error {
	shop, err := s.getOwnedShop(ctx, s.store, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.store.Shops().SetActive(ctx, shop.ID, false); err != nil {
		return fmt.Errorf("failed to deactivate shop: %w", err)
	}

	s.invalidate(ctx, ownerID)
	return nil
}

// HandleShopEvent обрабатывает событие жизненного цикла бота из Kafka
func (s *CatalogService) HandleShopEvent(ctx context.Context, event *entity.ShopEvent) error {
	shop, err := s.getOwnedShop(ctx, s.store, event.OwnerUserID, event.ShopID)
	if err != nil {
		return err
	}

	switch event.EventType {
	case entity.ShopEventActivated:
		if !shop.IsActive {
			if err := s.store.Shops().SetActive(ctx, shop.ID, true); err != nil {
				return fmt.Errorf("failed to activate shop: %w", err)
			}
		}
		if _, err := s.reconcile(ctx, shop.OwnerUserID, TriggerShopEvent); err != nil {
			return err
		}

	case entity.ShopEventDeactivated:
		if shop.IsActive {
			if err := s.store.Shops().SetActive(ctx, shop.ID, false); err != nil {
				return fmt.Errorf("failed to deactivate shop: %w", err)
			}
		}
		s.invalidate(ctx, shop.OwnerUserID)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownShopEvent, event.EventType)
	}

	logger.Info().
		Str("event_type", event.EventType).
		Uint("shop_id", shop.ID).
		Int64("owner_user_id", shop.OwnerUserID).
		Msg("Shop event handled")

	return nil
}

// === RECONCILIATION ===

// ReconcileOwner выполняет сверку каталога владельца и возвращает отчет
func (s *CatalogService) ReconcileOwner(ctx context.Context, ownerID int64, trigger string) (*shopsync.Report, error) {
	return s.reconcile(ctx, ownerID, trigger)
}

// SweepAll сверяет каталоги всех владельцев с активными ботами.
// Ошибка одного владельца не останавливает обход.
func (s *CatalogService) SweepAll(ctx context.Context, trigger string) (int, error) {
	owners, err := s.store.Shops().ListOwnersWithActiveShops(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list owners: %w", err)
	}

	var errs []error
	done := 0
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.reconcile(ctx, ownerID, trigger); err != nil {
			logger.Error().Err(err).Int64("owner_user_id", ownerID).Msg("Sweep: reconcile failed")
			errs = append(errs, fmt.Errorf("owner %d: %w", ownerID, err))
			continue
		}
		done++
	}

	logger.Info().
		Int("owners", len(owners)).
		Int("reconciled", done).
		Str("trigger", trigger).
		Msg("Catalog sweep finished")

	return done, errors.Join(errs...)
}

// ListSyncRuns возвращает последние проходы сверки владельца из аудита
func (s *CatalogService) ListSyncRuns(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error) {
	if s.audit == nil {
		return []entity.SyncRun{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := s.audit.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

func (s *CatalogService) reconcile(ctx context.Context, ownerID int64, trigger string) (*shopsync.Report, error) {
	started := time.Now()

	var report *shopsync.Report
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		report, err = s.engine.Reconcile(ctx, tx, ownerID)
		return err
	})

	duration := time.Since(started)
	if err != nil {
		metrics.RecordReconcile(trigger, duration, err, 0, 0, 0, 0)
		return nil, fmt.Errorf("failed to reconcile catalog: %w", err)
	}
	metrics.RecordReconcile(trigger, duration, nil, report.Created, report.Linked, report.Repaired, report.Deleted)

	if report.Changed() {
		s.invalidate(ctx, ownerID)
		s.publish(ctx, &entity.CatalogEvent{
			EventType:    entity.EventCatalogReconciled,
			OwnerUserID:  ownerID,
			Counterparts: report.SyncedCount() + report.Deleted,
		})
	}

	if report.Changed() || trigger == TriggerManual || trigger == TriggerCLI {
		s.recordRun(ctx, &entity.SyncRun{
			OwnerUserID: ownerID,
			Trigger:     trigger,
			Created:     report.Created,
			Linked:      report.Linked,
			Repaired:    report.Repaired,
			Deleted:     report.Deleted,
			StartedAt:   started.UTC(),
			DurationMs:  duration.Milliseconds(),
		})
	}

	return report, nil
}

func (s *CatalogService) acquireReconcile(ctx context.Context, ownerID int64) bool {
	if s.opts.ReconcileCooldown <= 0 {
		return true
	}
	ok, err := s.cache.TryAcquireReconcile(ctx, ownerID, s.opts.ReconcileCooldown)
	if err != nil {
		// Без Redis сверяем: лишняя сверка безопаснее пропущенной
		logger.Warn().Err(err).Int64("owner_user_id", ownerID).Msg("Failed to acquire reconcile cooldown")
		return true
	}
	return ok
}

// === HELPERS ===

func (s *CatalogService) getOwnedProduct(ctx context.Context, store repository.Store, ownerID int64, id uint) (*entity.Product, error) {
	product, err := store.Products().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product.OwnerUserID != ownerID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) getOwnedCategory(ctx context.Context, store repository.Store, ownerID int64, id uint) (*entity.Category, error) {
	category, err := store.Categories().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category.OwnerUserID != ownerID {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *CatalogService) getOwnedShop(ctx context.Context, store repository.Store, ownerID int64, id uint) (*entity.Shop, error) {
	shop, err := store.Shops().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShopNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if shop.OwnerUserID != ownerID {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// checkShop проверяет, что спутник принадлежит владельцу и активен. nil - главный магазин
func (s *CatalogService) checkShop(ctx context.Context, store repository.Store, ownerID int64, shopID *uint) error {
	if shopID == nil {
		return nil
	}
	shop, err := s.getOwnedShop(ctx, store, ownerID, *shopID)
	if err != nil {
		return err
	}
	if !shop.IsActive {
		return ErrShopInactive
	}
	return nil
}

// checkCategory проверяет, что категория принадлежит владельцу и тому же магазину
func (s *CatalogService) checkCategory(ctx context.Context, store repository.Store, ownerID int64, shopID *uint, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	category, err := s.getOwnedCategory(ctx, store, ownerID, *categoryID)
	if err != nil {
		return err
	}
	if shopKey(category.ShopID) != shopKey(shopID) {
		return ErrCategoryShopMismatch
	}
	return nil
}

func shopKey(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func (s *CatalogService) afterProductChange(ctx context.Context, eventType string, p *entity.Product, res *shopsync.Result) {
	s.invalidate(ctx, p.OwnerUserID)
	s.publish(ctx, &entity.CatalogEvent{
		EventType:     eventType,
		OwnerUserID:   p.OwnerUserID,
		ShopID:        p.ShopID,
		EntityID:      p.ID,
		SyncProductID: p.SyncProductID,
		Name:          p.Name,
		Counterparts:  res.Counterparts(),
	})
}

func (s *CatalogService) afterCategoryChange(ctx context.Context, eventType string, c *entity.Category, res *shopsync.Result) {
	s.invalidate(ctx, c.OwnerUserID)
	s.publish(ctx, &entity.CatalogEvent{
		EventType:    eventType,
		OwnerUserID:  c.OwnerUserID,
		ShopID:       c.ShopID,
		EntityID:     c.ID,
		Name:         c.Name,
		Counterparts: res.Counterparts(),
	})
}

func (s *CatalogService) invalidate(ctx context.Context, ownerID int64) {
	if err := s.cache.InvalidateOwner(ctx, ownerID); err != nil {
		// Данные уже зафиксированы, устаревший листинг доживет до TTL
		logger.Warn().Err(err).Int64("owner_user_id", ownerID).Msg("Failed to invalidate catalog cache")
	}
}

// publish отправляет событие каталога в Kafka
// Key - ID владельца, чтобы события одного каталога шли по порядку
func (s *CatalogService) publish(ctx context.Context, event *entity.CatalogEvent) {
	event.EventID = uuid.New()
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Str("event_type", event.EventType).Msg("Failed to marshal catalog event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, strconv.FormatInt(event.OwnerUserID, 10), data); err != nil {
		logger.Warn().Err(err).Str("event_type", event.EventType).Msg("Failed to publish catalog event")
	}
}

func (s *CatalogService) recordRun(ctx context.Context, run *entity.SyncRun) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, run); err != nil {
		logger.Warn().Err(err).Int64("owner_user_id", run.OwnerUserID).Msg("Failed to record sync run")
	}
}
