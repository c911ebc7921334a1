package shopsync

import "tgshop/catalog-service/internal/app/catalog/entity"

// mapProductFields копирует изменяемые поля товара.
// Владелец, магазин, ключ корреляции и категория сюда не входят:
// категория сопоставляется по имени отдельно для каждого магазина.
func mapProductFields(dst, src *entity.Product) {
	dst.Name = src.Name
	dst.Description = src.Description
	dst.Price = src.Price
	dst.Discount = src.Discount
	dst.Quantity = src.Quantity
	dst.Images = append([]string(nil), src.Images...)
	dst.IsHidden = src.IsHidden
	dst.IsPreorder = src.IsPreorder
}

// mapCategoryFields копирует изменяемые поля категории (родитель сопоставляется отдельно)
func mapCategoryFields(dst, src *entity.Category) {
	dst.Name = src.Name
}

// newProductCounterpart строит копию товара для магазина target
func newProductCounterpart(src *entity.Product, target *uint, syncID *uint, categoryID *uint) *entity.Product {
	p := &entity.Product{
		OwnerUserID:   src.OwnerUserID,
		ShopID:        target,
		SyncProductID: syncID,
		CategoryID:    categoryID,
	}
	mapProductFields(p, src)
	return p
}

func newCategoryCounterpart(src *entity.Category, target *uint, parentID *uint) *entity.Category {
	c := &entity.Category{
		OwnerUserID: src.OwnerUserID,
		ShopID:      target,
		ParentID:    parentID,
	}
	mapCategoryFields(c, src)
	return c
}
