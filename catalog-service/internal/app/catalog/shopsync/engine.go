// Package shopsync поддерживает каталог владельца согласованным между главным
// магазином и его спутниками (ботами-витринами).
//
// Копии одного логического товара в разных магазинах связаны ключом
// sync_product_id, который равен ID товара главного магазина. Категории
// связываются по имени. Все методы получают repository.Store явно: вызывающий
// код открывает транзакцию, выполняет основную запись, вызывает Propagate*
// и фиксирует транзакцию один раз.
package shopsync

import (
	"context"
	"errors"
	"fmt"

	"tgshop/catalog-service/internal/app/catalog/repository"
)

// Action - вид изменения, которое нужно распространить по магазинам
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var ErrUnknownAction = errors.New("unknown sync action")

// ParseAction разбирает строковое действие (create|update|delete)
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionCreate, ActionUpdate, ActionDelete:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Result - итог распространения одного изменения
type Result struct {
	Targets int // Сколько магазинов было целями
	Created int // Создано копий
	Updated int // Обновлено копий
	Deleted int // Удалено копий
	Linked  int // Копий, привязанных по запасному ключу (backfill sync_product_id)
	Skipped int // Целей без копии при update
}

// Counterparts возвращает число созданных, обновленных и удаленных копий
func (r *Result) Counterparts() int {
	return r.Created + r.Updated + r.Deleted
}

// Engine реализует распространение изменений и сверку каталога
type Engine struct{}

// NewEngine создает движок синхронизации
func NewEngine() *Engine {
	return &Engine{}
}

// targetShops вычисляет множество магазинов-целей для изменения в магазине source:
//   - изменение в главном магазине: все активные спутники владельца;
//   - изменение в спутнике: главный магазин и остальные активные спутники.
func targetShops(ctx context.Context, tx repository.Store, ownerID int64, source *uint) ([]*uint, error) {
	shops, err := tx.Shops().ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shops: %w", err)
	}

	targets := make([]*uint, 0, len(shops)+1)
	if source != nil {
		targets = append(targets, nil)
	}
	for i := range shops {
		if source != nil && *source == shops[i].ID {
			continue
		}
		id := shops[i].ID
		targets = append(targets, &id)
	}

	return targets, nil
}

// shopKey сворачивает nullable shop_id в ключ карты: 0 - главный магазин
func shopKey(shopID *uint) uint {
	if shopID == nil {
		return 0
	}
	return *shopID
}

func shopRef(key uint) *uint {
	if key == 0 {
		return nil
	}
	id := key
	return &id
}

func sameShop(a, b *uint) bool {
	return shopKey(a) == shopKey(b)
}

func uintPtr(v uint) *uint {
	return &v
}
