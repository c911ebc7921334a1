package shopsync

import (
	"context"
	"fmt"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/pkg/logger"
)

// Report - итог прохода сверки
type Report struct {
	Created  int // Созданные копии товаров и категорий
	Linked   int // Строки, получившие ключ корреляции
	Repaired int // Исправленные ссылки (ключ, категория, родитель)
	Deleted  int // Удаленные сироты и дубликаты
}

// SyncedCount - сколько строк сверка создала, связала или исправила
func (r *Report) SyncedCount() int {
	return r.Created + r.Linked + r.Repaired
}

// Changed сообщает, изменила ли сверка хоть что-то
func (r *Report) Changed() bool {
	return r.SyncedCount()+r.Deleted > 0
}

// reconcilePass держит состояние одного прохода сверки
type reconcilePass struct {
	tx      repository.Store
	ownerID int64
	shops   []uint // shopKey: 0 - главный, затем активные спутники по id
	cats    *categoryIndex
	report  *Report

	mains     []*entity.Product
	mainByID  map[uint]*entity.Product
	remap     map[uint]uint          // устаревший ключ главного товара -> новый
	present   map[uint]map[uint]bool // спутник -> ключи, у которых уже есть копия
	satellite map[uint][]*entity.Product
	gone      map[uint]bool // удаленные в этом проходе строки
}

// Reconcile приводит каталог владельца в согласованное состояние.
//
// После прохода каждый товар главного магазина ссылается сам на себя и имеет
// ровно одну копию в каждом активном спутнике, а каждый товар спутника связан
// с существующим товаром главного магазина. Категории с одинаковым именем есть
// во всех активных магазинах, ссылки на категории и родителей не выходят за
// пределы своего магазина. Строки неактивных магазинов не трогаются.
// Повторный вызов на согласованном каталоге ничего не меняет.
func (e *Engine) Reconcile(ctx context.Context, tx repository.Store, ownerID int64) (*Report, error) {
	start := time.Now()

	active, err := tx.Shops().ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shops: %w", err)
	}

	pass := &reconcilePass{
		tx:        tx,
		ownerID:   ownerID,
		shops:     []uint{0},
		report:    &Report{},
		mainByID:  make(map[uint]*entity.Product),
		remap:     make(map[uint]uint),
		present:   make(map[uint]map[uint]bool),
		satellite: make(map[uint][]*entity.Product),
		gone:      make(map[uint]bool),
	}
	for _, s := range active {
		pass.shops = append(pass.shops, s.ID)
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"categories", pass.reconcileCategories},
		{"load products", pass.loadProducts},
		{"normalize main", pass.normalizeMain},
		{"satellites", pass.reconcileSatellites},
		{"missing counterparts", pass.createMissing},
		{"product categories", pass.repairProductCategories},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", step.name, err)
		}
	}

	r := pass.report
	log := logger.ForOwner(ownerID)
	log.Info().
		Int("shops", len(pass.shops)).
		Int("created", r.Created).
		Int("linked", r.Linked).
		Int("repaired", r.Repaired).
		Int("deleted", r.Deleted).
		Dur("duration", time.Since(start)).
		Msg("Catalog reconciled")

	return r, nil
}

// === CATEGORIES ===

func (p *reconcilePass) reconcileCategories(ctx context.Context) error {
	all, err := p.tx.Categories().ListByOwner(ctx, p.ownerID)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	p.cats = buildCategoryIndex(all, p.shops)

	// Недостающие категории создаются без родителя, родитель ставится ниже
	created := make([]*entity.Category, 0)
	for _, name := range p.cats.names {
		for _, key := range p.shops {
			if p.cats.lookup(key, name) != nil {
				continue
			}
			c := &entity.Category{
				Name:        name,
				OwnerUserID: p.ownerID,
				ShopID:      shopRef(key),
			}
			if err := p.tx.Categories().Create(ctx, c); err != nil {
				return fmt.Errorf("failed to create category %q in shop %d: %w", name, key, err)
			}
			p.cats.add(c)
			created = append(created, c)
			p.report.Created++
		}
	}

	for _, c := range created {
		parentName := p.referenceParentName(c.Name)
		if parentName == "" {
			continue
		}
		parent := p.cats.lookup(shopKey(c.ShopID), parentName)
		if parent == nil || parent.ID == c.ID {
			continue
		}
		if err := p.tx.Categories().SetParent(ctx, c.ID, uintPtr(parent.ID)); err != nil {
			return fmt.Errorf("failed to set parent of category %d: %w", c.ID, err)
		}
		c.ParentID = uintPtr(parent.ID)
	}

	// Родитель из другого магазина или несуществующий родитель - дефект
	for i := range all {
		c := &all[i]
		if c.ParentID == nil || !p.isActive(c.ShopID) {
			continue
		}
		parent, ok := p.cats.byID[*c.ParentID]
		if ok && sameShop(parent.ShopID, c.ShopID) {
			continue
		}

		var fixed *uint
		if ok {
			if local := p.cats.lookup(shopKey(c.ShopID), parent.Name); local != nil && local.ID != c.ID {
				fixed = uintPtr(local.ID)
			}
		}
		if err := p.tx.Categories().SetParent(ctx, c.ID, fixed); err != nil {
			return fmt.Errorf("failed to repair parent of category %d: %w", c.ID, err)
		}
		c.ParentID = fixed
		p.report.Repaired++
	}

	return nil
}

// referenceParentName - имя родителя категории name в первом магазине, где он задан
func (p *reconcilePass) referenceParentName(name string) string {
	for _, key := range p.shops {
		c := p.cats.lookup(key, name)
		if c == nil || c.ParentID == nil {
			continue
		}
		if parent, ok := p.cats.byID[*c.ParentID]; ok {
			return parent.Name
		}
	}
	return ""
}

// === PRODUCTS ===

func (p *reconcilePass) loadProducts(ctx context.Context) error {
	all, err := p.tx.Products().ListByOwner(ctx, p.ownerID)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	for i := range all {
		row := &all[i]
		if !p.isActive(row.ShopID) {
			continue
		}
		if row.IsMain() {
			p.mains = append(p.mains, row)
			p.mainByID[row.ID] = row
			continue
		}
		key := shopKey(row.ShopID)
		p.satellite[key] = append(p.satellite[key], row)
	}

	return nil
}

// normalizeMain делает ключ каждого товара главного магазина равным его ID.
// Если старый ключ не совпадает ни с одним ID главного магазина и был только
// у одного товара, копии в спутниках переводятся на новый ключ (remap).
func (p *reconcilePass) normalizeMain(ctx context.Context) error {
	oldKeys := make(map[uint]int)
	for _, m := range p.mains {
		if m.SyncProductID != nil && *m.SyncProductID != m.ID {
			oldKeys[*m.SyncProductID]++
		}
	}

	for _, m := range p.mains {
		if m.SyncProductID != nil && *m.SyncProductID == m.ID {
			continue
		}

		old := m.SyncProductID
		if err := p.tx.Products().SetSyncID(ctx, m.ID, m.ID); err != nil {
			return fmt.Errorf("failed to set self sync id on product %d: %w", m.ID, err)
		}
		m.SyncProductID = uintPtr(m.ID)

		if old == nil {
			p.report.Linked++
			continue
		}
		p.report.Repaired++
		if _, isMainID := p.mainByID[*old]; !isMainID && oldKeys[*old] == 1 {
			p.remap[*old] = m.ID
		}
	}

	return nil
}

func (p *reconcilePass) reconcileSatellites(ctx context.Context) error {
	for _, key := range p.shops[1:] {
		if err := p.reconcileSatellite(ctx, key); err != nil {
			return fmt.Errorf("shop %d: %w", key, err)
		}
	}
	return nil
}

func (p *reconcilePass) reconcileSatellite(ctx context.Context, key uint) error {
	products := p.tx.Products()
	present := make(map[uint]bool)
	p.present[key] = present

	rows := p.satellite[key]
	pending := make([]*entity.Product, 0)
	doomed := make([]uint, 0)

	for _, row := range rows {
		if row.SyncProductID != nil {
			if to, ok := p.remap[*row.SyncProductID]; ok {
				if err := products.SetSyncID(ctx, row.ID, to); err != nil {
					return fmt.Errorf("failed to remap sync id of product %d: %w", row.ID, err)
				}
				row.SyncProductID = uintPtr(to)
				p.report.Repaired++
			}
		}

		if row.SyncProductID == nil {
			pending = append(pending, row)
			continue
		}
		if _, ok := p.mainByID[*row.SyncProductID]; !ok {
			pending = append(pending, row)
			continue
		}

		if present[*row.SyncProductID] {
			doomed = append(doomed, row.ID)
			continue
		}
		present[*row.SyncProductID] = true
	}

	// Сироты и непривязанные строки: сначала пробуем связать по (name, price)
	for _, row := range pending {
		match, anyMatch := p.matchMain(row, present)

		switch {
		case match != nil:
			if err := products.SetSyncID(ctx, row.ID, match.ID); err != nil {
				return fmt.Errorf("failed to relink product %d: %w", row.ID, err)
			}
			row.SyncProductID = uintPtr(match.ID)
			present[match.ID] = true
			p.report.Linked++

		case anyMatch || row.SyncProductID != nil:
			// Копия уже есть, либо сирота без пары в главном магазине
			doomed = append(doomed, row.ID)

		default:
			main, err := p.createMainFor(ctx, row)
			if err != nil {
				return err
			}
			present[main.ID] = true
		}
	}

	deleted, err := products.DeleteByIDs(ctx, doomed)
	if err != nil {
		return fmt.Errorf("failed to delete orphaned products: %w", err)
	}
	p.report.Deleted += int(deleted)
	for _, id := range doomed {
		p.gone[id] = true
	}

	if deleted > 0 {
		logger.Debug().
			Int64("owner_user_id", p.ownerID).
			Uint("shop_id", key).
			Int64("deleted", deleted).
			Msg("Removed orphaned and duplicate satellite products")
	}

	return nil
}

// matchMain ищет товар главного магазина с теми же (name, price), у которого
// в этом спутнике еще нет копии. anyMatch == true, если совпадения были,
// но все они уже заняты.
func (p *reconcilePass) matchMain(row *entity.Product, present map[uint]bool) (*entity.Product, bool) {
	anyMatch := false
	for _, m := range p.mains {
		if m.Name != row.Name || m.Price != row.Price {
			continue
		}
		anyMatch = true
		if !present[m.ID] {
			return m, true
		}
	}
	return nil, anyMatch
}

// createMainFor создает в главном магазине товар для строки спутника,
// которой там нет, и связывает обе строки
func (p *reconcilePass) createMainFor(ctx context.Context, row *entity.Product) (*entity.Product, error) {
	products := p.tx.Products()

	main := newProductCounterpart(row, nil, nil, p.cats.mapTo(row.CategoryID, 0))
	if err := products.Create(ctx, main); err != nil {
		return nil, fmt.Errorf("failed to create main product for %d: %w", row.ID, err)
	}
	if err := products.SetSyncID(ctx, main.ID, main.ID); err != nil {
		return nil, fmt.Errorf("failed to set self sync id on product %d: %w", main.ID, err)
	}
	main.SyncProductID = uintPtr(main.ID)

	if err := products.SetSyncID(ctx, row.ID, main.ID); err != nil {
		return nil, fmt.Errorf("failed to link product %d: %w", row.ID, err)
	}
	row.SyncProductID = uintPtr(main.ID)

	p.mains = append(p.mains, main)
	p.mainByID[main.ID] = main
	p.report.Created++

	return main, nil
}

// createMissing - симметричный проход: у каждого товара главного магазина
// должна быть копия в каждом активном спутнике
func (p *reconcilePass) createMissing(ctx context.Context) error {
	for _, key := range p.shops[1:] {
		present := p.present[key]
		for _, m := range p.mains {
			if present[m.ID] {
				continue
			}
			c := newProductCounterpart(m, shopRef(key), uintPtr(m.ID), p.cats.mapTo(m.CategoryID, key))
			if err := p.tx.Products().Create(ctx, c); err != nil {
				return fmt.Errorf("failed to create counterpart of %d in shop %d: %w", m.ID, key, err)
			}
			present[m.ID] = true
			p.report.Created++
		}
	}
	return nil
}

// repairProductCategories переводит ссылки на категории другого магазина
// на одноименную категорию своего магазина, а висячие ссылки обнуляет
func (p *reconcilePass) repairProductCategories(ctx context.Context) error {
	rows := make([]*entity.Product, 0, len(p.mains))
	rows = append(rows, p.mains...)
	for _, key := range p.shops[1:] {
		rows = append(rows, p.satellite[key]...)
	}

	for _, row := range rows {
		if row.CategoryID == nil || p.gone[row.ID] {
			continue
		}
		c, ok := p.cats.byID[*row.CategoryID]
		if ok && sameShop(c.ShopID, row.ShopID) {
			continue
		}

		fixed := p.cats.mapTo(row.CategoryID, shopKey(row.ShopID))
		if err := p.tx.Products().SetCategory(ctx, row.ID, fixed); err != nil {
			return fmt.Errorf("failed to repair category of product %d: %w", row.ID, err)
		}
		row.CategoryID = fixed
		p.report.Repaired++
	}

	return nil
}

func (p *reconcilePass) isActive(shopID *uint) bool {
	key := shopKey(shopID)
	for _, k := range p.shops {
		if k == key {
			return true
		}
	}
	return false
}
