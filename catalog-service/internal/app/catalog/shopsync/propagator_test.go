package shopsync

import (
	"context"
	"testing"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository"
	"tgshop/catalog-service/internal/app/catalog/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const owner int64 = 42

type fixture struct {
	ctx    context.Context
	store  repository.Store
	db     *gorm.DB
	engine *Engine
	b      *entity.Shop
	c      *entity.Shop
}

// newFixture: главный магазин владельца и два активных спутника B и C
func newFixture(t *testing.T) *fixture {
	store, db := repotest.NewStore(t)
	return &fixture{
		ctx:    context.Background(),
		store:  store,
		db:     db,
		engine: NewEngine(),
		b:      repotest.Shop(t, db, owner, "B", true),
		c:      repotest.Shop(t, db, owner, "C", true),
	}
}

// createProduct выполняет основную запись и распространение в одной транзакции
func (f *fixture) createProduct(t *testing.T, p *entity.Product) *Result {
	t.Helper()
	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(f.ctx, p); err != nil {
			return err
		}
		var err error
		res, err = f.engine.PropagateProduct(f.ctx, tx, p, ActionCreate)
		return err
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) updateProduct(t *testing.T, p *entity.Product) *Result {
	t.Helper()
	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		if err := tx.Products().Update(f.ctx, p); err != nil {
			return err
		}
		var err error
		res, err = f.engine.PropagateProduct(f.ctx, tx, p, ActionUpdate)
		return err
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) deleteProduct(t *testing.T, p *entity.Product) *Result {
	t.Helper()
	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		if err := tx.Products().Delete(f.ctx, p.ID); err != nil {
			return err
		}
		var err error
		res, err = f.engine.PropagateProduct(f.ctx, tx, p, ActionDelete)
		return err
	})
	require.NoError(t, err)
	return res
}

func widget() *entity.Product {
	return &entity.Product{
		OwnerUserID: owner,
		Name:        "Widget",
		Description: "Blue widget",
		Price:       10,
		Quantity:    5,
		Images:      []string{"a.jpg", "b.jpg"},
	}
}

// ==================== ParseAction Tests ====================

func TestParseAction(t *testing.T) {
	for _, s := range []string{"create", "update", "delete"} {
		a, err := ParseAction(s)
		require.NoError(t, err)
		assert.Equal(t, Action(s), a)
	}

	_, err := ParseAction("upsert")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

// ==================== Product Create Tests ====================

func TestPropagateProduct_CreateFromMain(t *testing.T) {
	// Arrange
	f := newFixture(t)
	p := widget()

	// Act
	res := f.createProduct(t, p)

	// Assert
	assert.Equal(t, 2, res.Targets)
	assert.Equal(t, 2, res.Created)

	main := repotest.ProductsIn(t, f.db, owner, nil)
	require.Len(t, main, 1)
	require.NotNil(t, main[0].SyncProductID)
	assert.Equal(t, main[0].ID, *main[0].SyncProductID)

	for _, shop := range []*entity.Shop{f.b, f.c} {
		rows := repotest.ProductsIn(t, f.db, owner, &shop.ID)
		require.Len(t, rows, 1, "shop %s", shop.Name)
		assert.Equal(t, "Widget", rows[0].Name)
		assert.Equal(t, 10.0, rows[0].Price)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, rows[0].Images)
		require.NotNil(t, rows[0].SyncProductID)
		assert.Equal(t, main[0].ID, *rows[0].SyncProductID)
	}
}

func TestPropagateProduct_CreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := widget()
	f.createProduct(t, p)

	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		var err error
		res, err = f.engine.PropagateProduct(f.ctx, tx, p, ActionCreate)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Created)
	assert.Len(t, repotest.ProductsIn(t, f.db, owner, &f.b.ID), 1)
	assert.Len(t, repotest.ProductsIn(t, f.db, owner, &f.c.ID), 1)
}

func TestPropagateProduct_CreateFromSatelliteMintsMain(t *testing.T) {
	f := newFixture(t)
	p := &entity.Product{OwnerUserID: owner, ShopID: &f.b.ID, Name: "Gadget", Price: 5}

	res := f.createProduct(t, p)

	// Главная копия и копия в C
	assert.Equal(t, 2, res.Created)

	main := repotest.ProductsIn(t, f.db, owner, nil)
	require.Len(t, main, 1)
	assert.Equal(t, "Gadget", main[0].Name)
	require.NotNil(t, main[0].SyncProductID)
	assert.Equal(t, main[0].ID, *main[0].SyncProductID)

	src := repotest.ProductsIn(t, f.db, owner, &f.b.ID)
	require.Len(t, src, 1)
	require.NotNil(t, src[0].SyncProductID)
	assert.Equal(t, main[0].ID, *src[0].SyncProductID)

	other := repotest.ProductsIn(t, f.db, owner, &f.c.ID)
	require.Len(t, other, 1)
	assert.Equal(t, main[0].ID, *other[0].SyncProductID)
}

func TestPropagateProduct_CreateFromSatelliteAdoptsMainMatch(t *testing.T) {
	f := newFixture(t)
	existing := repotest.Product(t, f.db, &entity.Product{OwnerUserID: owner, Name: "Gadget", Price: 5})

	p := &entity.Product{OwnerUserID: owner, ShopID: &f.b.ID, Name: "Gadget", Price: 5}
	res := f.createProduct(t, p)

	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, 1, res.Created) // только C

	main := repotest.ProductsIn(t, f.db, owner, nil)
	require.Len(t, main, 1)
	assert.Equal(t, existing.ID, *main[0].SyncProductID)
	assert.Equal(t, existing.ID, *p.SyncProductID)
}

func TestPropagateProduct_CreateLinksLegacyCounterpart(t *testing.T) {
	f := newFixture(t)
	legacy := repotest.Product(t, f.db, &entity.Product{OwnerUserID: owner, ShopID: &f.b.ID, Name: "Widget", Price: 10})

	res := f.createProduct(t, widget())

	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, 1, res.Created)

	rows := repotest.ProductsIn(t, f.db, owner, &f.b.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, legacy.ID, rows[0].ID)
	require.NotNil(t, rows[0].SyncProductID)
}

func TestPropagateProduct_FallbackDoesNotStealLinkedRow(t *testing.T) {
	f := newFixture(t)
	first := widget()
	f.createProduct(t, first)

	// Второй логический товар с тем же именем и ценой
	second := widget()
	f.createProduct(t, second)

	rows := repotest.ProductsIn(t, f.db, owner, &f.b.ID)
	require.Len(t, rows, 2)
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, []uint{*rows[0].SyncProductID, *rows[1].SyncProductID})
}

func TestPropagateProduct_MapsCategoryByName(t *testing.T) {
	f := newFixture(t)
	food := repotest.Category(t, f.db, owner, nil, "Food", nil)
	foodB := repotest.Category(t, f.db, owner, &f.b.ID, "Food", nil)

	p := widget()
	p.CategoryID = &food.ID
	f.createProduct(t, p)

	rowsB := repotest.ProductsIn(t, f.db, owner, &f.b.ID)
	require.Len(t, rowsB, 1)
	require.NotNil(t, rowsB[0].CategoryID)
	assert.Equal(t, foodB.ID, *rowsB[0].CategoryID)

	// В C категории Food нет
	rowsC := repotest.ProductsIn(t, f.db, owner, &f.c.ID)
	require.Len(t, rowsC, 1)
	assert.Nil(t, rowsC[0].CategoryID)
}

func TestPropagateProduct_SkipsInactiveShops(t *testing.T) {
	f := newFixture(t)
	off := repotest.Shop(t, f.db, owner, "Off", false)

	res := f.createProduct(t, widget())

	assert.Equal(t, 2, res.Targets)
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &off.ID))
}

// ==================== Product Update Tests ====================

func TestPropagateProduct_Update(t *testing.T) {
	f := newFixture(t)
	p := widget()
	f.createProduct(t, p)

	p.Price = 12
	p.Quantity = 1
	p.IsHidden = true
	res := f.updateProduct(t, p)

	assert.Equal(t, 2, res.Updated)
	for _, shop := range []*entity.Shop{f.b, f.c} {
		rows := repotest.ProductsIn(t, f.db, owner, &shop.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, 12.0, rows[0].Price)
		assert.Equal(t, 1, rows[0].Quantity)
		assert.True(t, rows[0].IsHidden)
		assert.Equal(t, p.ID, *rows[0].SyncProductID)
	}
}

func TestPropagateProduct_UpdateDoesNotCreate(t *testing.T) {
	f := newFixture(t)
	p := repotest.Product(t, f.db, widget())

	p.Price = 12
	res := f.updateProduct(t, p)

	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.b.ID))
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.c.ID))
}

func TestPropagateProduct_UpdateFromSatellite(t *testing.T) {
	f := newFixture(t)
	p := widget()
	f.createProduct(t, p)

	rowB := repotest.ProductsIn(t, f.db, owner, &f.b.ID)[0]
	rowB.Description = "Edited in B"
	res := f.updateProduct(t, &rowB)

	assert.Equal(t, 2, res.Updated)
	main := repotest.ProductsIn(t, f.db, owner, nil)
	assert.Equal(t, "Edited in B", main[0].Description)
	assert.Equal(t, "Edited in B", repotest.ProductsIn(t, f.db, owner, &f.c.ID)[0].Description)
}

// ==================== Product Delete Tests ====================

func TestPropagateProduct_DeleteFromMain(t *testing.T) {
	f := newFixture(t)
	p := widget()
	f.createProduct(t, p)

	res := f.deleteProduct(t, p)

	assert.Equal(t, 2, res.Deleted)
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, nil))
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.b.ID))
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.c.ID))
}

func TestPropagateProduct_DeleteFromSatelliteRemovesAll(t *testing.T) {
	f := newFixture(t)
	p := widget()
	f.createProduct(t, p)

	rowC := repotest.ProductsIn(t, f.db, owner, &f.c.ID)[0]
	res := f.deleteProduct(t, &rowC)

	assert.Equal(t, 2, res.Deleted)
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, nil))
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.b.ID))
}

func TestPropagateProduct_DeleteLegacyUnlinked(t *testing.T) {
	f := newFixture(t)
	p := repotest.Product(t, f.db, widget())
	repotest.Product(t, f.db, &entity.Product{OwnerUserID: owner, ShopID: &f.b.ID, Name: "Widget", Price: 10})
	// Другой товар с тем же именем, уже связанный с чем-то еще, не трогаем
	kept := repotest.Product(t, f.db, &entity.Product{OwnerUserID: owner, ShopID: &f.c.ID, Name: "Widget", Price: 10, SyncProductID: repotest.Ptr(999)})

	res := f.deleteProduct(t, p)

	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.b.ID))
	rowsC := repotest.ProductsIn(t, f.db, owner, &f.c.ID)
	require.Len(t, rowsC, 1)
	assert.Equal(t, kept.ID, rowsC[0].ID)
}

// ==================== Category Tests ====================

func TestPropagateCategory_CreateMapsParent(t *testing.T) {
	f := newFixture(t)
	rootB := repotest.Category(t, f.db, owner, &f.b.ID, "Root", nil)
	root := repotest.Category(t, f.db, owner, nil, "Root", nil)

	child := &entity.Category{OwnerUserID: owner, Name: "Child", ParentID: &root.ID}
	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		if err := tx.Categories().Create(f.ctx, child); err != nil {
			return err
		}
		var err error
		res, err = f.engine.PropagateCategory(f.ctx, tx, child, ActionCreate, "")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)

	catsB := repotest.CategoriesIn(t, f.db, owner, &f.b.ID)
	require.Len(t, catsB, 2)
	assert.Equal(t, "Child", catsB[1].Name)
	require.NotNil(t, catsB[1].ParentID)
	assert.Equal(t, rootB.ID, *catsB[1].ParentID)

	catsC := repotest.CategoriesIn(t, f.db, owner, &f.c.ID)
	require.Len(t, catsC, 1)
	assert.Nil(t, catsC[0].ParentID)
}

func TestPropagateCategory_Rename(t *testing.T) {
	f := newFixture(t)
	c := repotest.Category(t, f.db, owner, nil, "Drinks", nil)
	repotest.Category(t, f.db, owner, &f.b.ID, "Drinks", nil)

	c.Name = "Beverages"
	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		if err := tx.Categories().Update(f.ctx, c); err != nil {
			return err
		}
		var err error
		res, err = f.engine.PropagateCategory(f.ctx, tx, c, ActionUpdate, "Drinks")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	catsB := repotest.CategoriesIn(t, f.db, owner, &f.b.ID)
	require.Len(t, catsB, 1)
	assert.Equal(t, "Beverages", catsB[0].Name)
}

func TestPropagateCategory_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	c := repotest.Category(t, f.db, owner, nil, "Drinks", nil)
	cB := repotest.Category(t, f.db, owner, &f.b.ID, "Drinks", nil)
	childB := repotest.Category(t, f.db, owner, &f.b.ID, "Juice", &cB.ID)
	repotest.Product(t, f.db, &entity.Product{OwnerUserID: owner, ShopID: &f.b.ID, CategoryID: &cB.ID, Name: "Cola", Price: 2})

	var res *Result
	err := f.store.Transaction(f.ctx, func(tx repository.Store) error {
		if err := tx.Categories().Delete(f.ctx, c.ID); err != nil {
			return err
		}
		var err error
		res, err = f.engine.PropagateCategory(f.ctx, tx, c, ActionDelete, "")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, repotest.ProductsIn(t, f.db, owner, &f.b.ID))

	catsB := repotest.CategoriesIn(t, f.db, owner, &f.b.ID)
	require.Len(t, catsB, 1)
	assert.Equal(t, childB.ID, catsB[0].ID)
	assert.Nil(t, catsB[0].ParentID)
}

func TestPropagate_UnknownAction(t *testing.T) {
	f := newFixture(t)
	p := repotest.Product(t, f.db, widget())

	_, err := f.engine.PropagateProduct(f.ctx, f.store, p, Action("merge"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}
