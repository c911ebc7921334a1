// Package repotest поднимает Store на SQLite в памяти для тестов сервисного
// слоя и синхронизации, где sqlmock потребовал бы описывать десятки запросов.
package repotest

import (
	"fmt"
	"strings"
	"testing"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/catalog-service/internal/app/catalog/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB открывает отдельную базу для каждого теста
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entity.Shop{}, &entity.Category{}, &entity.Product{}))
	return db
}

// NewStore возвращает Store поверх новой базы и саму базу для проверок
func NewStore(t testing.TB) (repository.Store, *gorm.DB) {
	t.Helper()
	db := OpenDB(t)
	return repository.NewStore(db), db
}

func Shop(t testing.TB, db *gorm.DB, ownerID int64, name string, active bool) *entity.Shop {
	t.Helper()
	s := &entity.Shop{OwnerUserID: ownerID, Name: name, IsActive: active}
	require.NoError(t, db.Create(s).Error)
	return s
}

func Category(t testing.TB, db *gorm.DB, ownerID int64, shopID *uint, name string, parentID *uint) *entity.Category {
	t.Helper()
	c := &entity.Category{OwnerUserID: ownerID, ShopID: shopID, Name: name, ParentID: parentID}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Product вставляет строку как есть, без распространения
func Product(t testing.TB, db *gorm.DB, p *entity.Product) *entity.Product {
	t.Helper()
	require.NoError(t, db.Create(p).Error)
	return p
}

// ProductsIn возвращает товары одного магазина по возрастанию id
func ProductsIn(t testing.TB, db *gorm.DB, ownerID int64, shopID *uint) []entity.Product {
	t.Helper()
	var out []entity.Product
	q := db.Where("owner_user_id = ?", ownerID)
	if shopID == nil {
		q = q.Where("bot_id IS NULL")
	} else {
		q = q.Where("bot_id = ?", *shopID)
	}
	require.NoError(t, q.Order("id ASC").Find(&out).Error)
	return out
}

func CategoriesIn(t testing.TB, db *gorm.DB, ownerID int64, shopID *uint) []entity.Category {
	t.Helper()
	var out []entity.Category
	q := db.Where("owner_user_id = ?", ownerID)
	if shopID == nil {
		q = q.Where("bot_id IS NULL")
	} else {
		q = q.Where("bot_id = ?", *shopID)
	}
	require.NoError(t, q.Order("id ASC").Find(&out).Error)
	return out
}

func Ptr(v uint) *uint {
	return &v
}
