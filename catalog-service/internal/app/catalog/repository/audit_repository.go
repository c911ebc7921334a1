package repository

import (
	"context"
	"fmt"
	"time"

	"tgshop/catalog-service/internal/app/catalog/entity"
	"tgshop/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type syncAuditRepository struct {
	collection *mongo.Collection
}

// NewSyncAuditRepository создает репозиторий аудита сверок в MongoDB.
// Индекс (owner_user_id, started_at) нужен для выборки последних запусков владельца
func NewSyncAuditRepository(db *mongo.Database) SyncAuditRepository {
	collection := db.Collection("sync_runs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner_user_id", Value: 1},
			{Key: "started_at", Value: -1},
		},
		Options: options.Index().SetName("owner_started_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		// Индекс мог быть создан другим экземпляром сервиса
		logger.Warn().Err(err).Msg("Failed to create index on sync_runs")
	}

	return &syncAuditRepository{collection: collection}
}

func (r *syncAuditRepository) Record(ctx context.Context, run *entity.SyncRun) error {
	if _, err := r.collection.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

func (r *syncAuditRepository) ListByOwner(ctx context.Context, ownerID int64, limit int64) ([]entity.SyncRun, error) {
	filter := bson.M{"owner_user_id": ownerID}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sync runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := make([]entity.SyncRun, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode sync runs: %w", err)
	}

	return runs, nil
}
