package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type store struct {
	db         *gorm.DB
	products   ProductRepository
	categories CategoryRepository
	shops      ShopRepository
}

// NewStore создает Store поверх GORM.
// db может быть как корневым соединением, так и открытой транзакцией.
func NewStore(db *gorm.DB) Store {
	return &store{
		db:         db,
		products:   NewProductRepository(db),
		categories: NewCategoryRepository(db),
		shops:      NewShopRepository(db),
	}
}

func (s *store) Products() ProductRepository     { return s.products }
func (s *store) Categories() CategoryRepository { return s.categories }
func (s *store) Shops() ShopRepository           { return s.shops }

// Transaction выполняет fn в транзакции PostgreSQL.
// Ошибка из fn откатывает все изменения, включая уже распространенные копии.
// Вложенный вызов использует SAVEPOINT.
func (s *store) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// inShop ограничивает запрос строками владельца в одном магазине
func inShop(ownerID int64, shopID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("owner_user_id = ?", ownerID)
		if shopID == nil {
			return db.Where("bot_id IS NULL")
		}
		return db.Where("bot_id = ?", *shopID)
	}
}

// translateError переводит коды ошибок PostgreSQL в ошибки репозитория
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrDuplicateKey
		case "23503": // foreign_key_violation
			return ErrForeignKey
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
