package shopsync

import "tgshop/catalog-service/internal/app/catalog/entity"

// categoryIndex - снимок категорий владельца для одного прохода сверки.
// Строится один раз, чтобы не искать категорию по имени для каждого товара.
type categoryIndex struct {
	byID   map[uint]*entity.Category
	byName map[uint]map[string]*entity.Category // shopKey -> name -> первая по id
	names  []string                             // объединение имен: сначала главный магазин
}

// buildCategoryIndex индексирует категории. byID содержит все категории
// владельца, byName - только категории магазинов из shops (по порядку).
func buildCategoryIndex(categories []entity.Category, shops []uint) *categoryIndex {
	ix := &categoryIndex{
		byID:   make(map[uint]*entity.Category, len(categories)),
		byName: make(map[uint]map[string]*entity.Category, len(shops)),
	}

	grouped := make(map[uint][]*entity.Category, len(shops))
	for i := range categories {
		c := &categories[i]
		ix.byID[c.ID] = c
		key := shopKey(c.ShopID)
		grouped[key] = append(grouped[key], c)
	}

	seen := make(map[string]bool)
	for _, key := range shops {
		ix.byName[key] = make(map[string]*entity.Category)
		for _, c := range grouped[key] {
			if _, ok := ix.byName[key][c.Name]; !ok {
				ix.byName[key][c.Name] = c
			}
			if !seen[c.Name] {
				seen[c.Name] = true
				ix.names = append(ix.names, c.Name)
			}
		}
	}

	return ix
}

func (ix *categoryIndex) lookup(key uint, name string) *entity.Category {
	return ix.byName[key][name]
}

func (ix *categoryIndex) add(c *entity.Category) {
	ix.byID[c.ID] = c
	key := shopKey(c.ShopID)
	if ix.byName[key] == nil {
		ix.byName[key] = make(map[string]*entity.Category)
	}
	if _, ok := ix.byName[key][c.Name]; !ok {
		ix.byName[key][c.Name] = c
	}
}

// mapTo переводит categoryID в ID одноименной категории магазина key.
// Возвращает nil, если категория неизвестна или в key нет такого имени.
func (ix *categoryIndex) mapTo(categoryID *uint, key uint) *uint {
	if categoryID == nil {
		return nil
	}
	src, ok := ix.byID[*categoryID]
	if !ok {
		return nil
	}
	if shopKey(src.ShopID) == key {
		return uintPtr(src.ID)
	}
	if c := ix.lookup(key, src.Name); c != nil {
		return uintPtr(c.ID)
	}
	return nil
}
