package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	editorerrors "tablebook/internal/editor/errors"
	"tablebook/pkg/config"
	mongodb "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"
)

const (
	CollectionName = "layout_events"

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// LayoutEventRepository is the editor's audit trail.
type LayoutEventRepository interface {
	Insert(ctx context.Context, event *model.LayoutEvent) error
	FindByTable(ctx context.Context, tableID int, limit int) ([]*model.LayoutEvent, error)
}

type mongoLayoutEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLayoutEventRepository(cfg *config.Config) LayoutEventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLayoutEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoLayoutEventRepository) Insert(ctx context.Context, event *model.LayoutEvent) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if event.At.IsZero() {
		event.At = time.Now()
	}
	event.At = event.At.UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to insert layout event: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

// FindByTable returns the newest events of a table first.
func (r *mongoLayoutEventRepository) FindByTable(ctx context.Context, tableID int, limit int) ([]*model.LayoutEvent, error) {
	if tableID <= 0 {
		return nil, fmt.Errorf("%w: %d", editorerrors.ErrInvalidTableID, tableID)
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(clampLimit(limit))).
		SetSort(bson.D{{Key: "at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"table_id": tableID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query layout events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*model.LayoutEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode layout events: %w", err)
	}
	return events, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return min(limit, MaxHistoryLimit)
}
