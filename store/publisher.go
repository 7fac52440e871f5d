package store

import (
	"context"
	"errors"
	"time"

	"github.com/kevinaaaquil/ontimenews/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertPublisher(ctx context.Context, p *models.Publisher) (primitive.ObjectID, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := db.Publishers().InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	p.ID = id
	return id, nil
}

func (db *DB) ListPublishers(ctx context.Context) ([]models.Publisher, error) {
	cur, err := db.Publishers().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	publishers := []models.Publisher{}
	if err := cur.All(ctx, &publishers); err != nil {
		return nil, err
	}
	return publishers, nil
}
