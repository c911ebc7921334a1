package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Shop представляет бота-витрину владельца (спутниковый магазин)
// Главный магазин владельца отдельной строкой не хранится: его shop_id = NULL
type Shop struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerUserID int64     `json:"owner_user_id" gorm:"not null;index"` // Telegram ID владельца
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Shop) TableName() string {
	return "bots"
}

// Category представляет категорию товаров внутри одного магазина
// Имя категории служит ключом корреляции между магазинами одного владельца
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;index:idx_categories_owner_shop_name,priority:3"`
	OwnerUserID int64     `json:"owner_user_id" gorm:"not null;index:idx_categories_owner_shop_name,priority:1"`
	ShopID      *uint     `json:"shop_id" gorm:"column:bot_id;index:idx_categories_owner_shop_name,priority:2"` // NULL = главный магазин
	ParentID    *uint     `json:"parent_id"`                                                                      // Родитель всегда из того же магазина
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Category) TableName() string {
	return "categories"
}

// Product представляет товар в каталоге конкретного магазина
type Product struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OwnerUserID   int64     `json:"owner_user_id" gorm:"not null;index:idx_products_owner_shop,priority:1"`
	ShopID        *uint     `json:"shop_id" gorm:"column:bot_id;index:idx_products_owner_shop,priority:2"` // NULL = главный магазин
	SyncProductID *uint     `json:"sync_product_id" gorm:"index"`                                            // Общий ID логического товара во всех магазинах
	CategoryID    *uint     `json:"category_id" gorm:"index"`
	Name          string    `json:"name" gorm:"type:varchar(200);not null"`
	Description   string    `json:"description" gorm:"type:text"`
	Price         float64   `json:"price" gorm:"type:decimal(12,2);not null"`
	Discount      float64   `json:"discount" gorm:"type:decimal(5,2);not null"` // Скидка в процентах
	Quantity      int       `json:"quantity" gorm:"not null"`
	Images        []string  `json:"images" gorm:"type:text;serializer:json"`
	IsHidden      bool      `json:"is_hidden" gorm:"not null"`
	IsPreorder    bool      `json:"is_preorder" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Product) TableName() string {
	return "products"
}

// IsMain сообщает, принадлежит ли товар главному магазину
func (p *Product) IsMain() bool {
	return p.ShopID == nil
}

// RoundMoney приводит цену и скидку к точности колонок decimal(…,2).
// Без этого строка в памяти и сохраненная строка расходятся, и поиск
// копии по (name, price) промахивается
func (p *Product) RoundMoney() {
	p.Price = roundCents(p.Price)
	p.Discount = roundCents(p.Discount)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CorrelationID возвращает ключ корреляции товара:
// sync_product_id, а если он еще не назначен - собственный ID
func (p *Product) CorrelationID() uint {
	if p.SyncProductID != nil {
		return *p.SyncProductID
	}
	return p.ID
}

// CatalogEvent представляет событие изменения каталога для Kafka
type CatalogEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	EventType     string    `json:"event_type"` // PRODUCT_CREATED, CATEGORY_DELETED, CATALOG_RECONCILED и т.д.
	OwnerUserID   int64     `json:"owner_user_id"`
	ShopID        *uint     `json:"shop_id,omitempty"`
	EntityID      uint      `json:"entity_id,omitempty"`
	SyncProductID *uint     `json:"sync_product_id,omitempty"`
	Name          string    `json:"name,omitempty"`
	Counterparts  int       `json:"counterparts"` // Сколько копий в других магазинах затронуто
	Timestamp     time.Time `json:"timestamp"`
}

const (
	EventProductCreated    = "PRODUCT_CREATED"
	EventProductUpdated    = "PRODUCT_UPDATED"
	EventProductDeleted    = "PRODUCT_DELETED"
	EventCategoryCreated   = "CATEGORY_CREATED"
	EventCategoryUpdated   = "CATEGORY_UPDATED"
	EventCategoryDeleted   = "CATEGORY_DELETED"
	EventCatalogReconciled = "CATALOG_RECONCILED"
)

// ShopEvent представляет событие жизненного цикла бота, приходящее из Telegram-бота
type ShopEvent struct {
	EventType   string    `json:"event_type"` // SHOP_ACTIVATED, SHOP_DEACTIVATED
	ShopID      uint      `json:"shop_id"`
	OwnerUserID int64     `json:"owner_user_id"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	ShopEventActivated   = "SHOP_ACTIVATED"
	ShopEventDeactivated = "SHOP_DEACTIVATED"
)

// SyncRun - запись аудита одного прохода сверки каталога (хранится в MongoDB)
type SyncRun struct {
	OwnerUserID int64     `json:"owner_user_id" bson:"owner_user_id"`
	Trigger     string    `json:"trigger" bson:"trigger"` // read, manual, cron, shop_event, shop_registered
	Created     int       `json:"created" bson:"created"`
	Linked      int       `json:"linked" bson:"linked"`
	Repaired    int       `json:"repaired" bson:"repaired"`
	Deleted     int       `json:"deleted" bson:"deleted"`
	StartedAt   time.Time `json:"started_at" bson:"started_at"`
	DurationMs  int64     `json:"duration_ms" bson:"duration_ms"`
}
