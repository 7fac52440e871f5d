package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/ontimenews/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertNotificationLog records a decline email attempt.
func (db *DB) InsertNotificationLog(ctx context.Context, entry *models.NotificationLog) error {
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	_, err := db.Notifications().InsertOne(ctx, entry)
	return err
}

// NotificationLogsForArticle returns the attempts for one article, newest first.
func (db *DB) NotificationLogsForArticle(ctx context.Context, articleID primitive.ObjectID) ([]models.NotificationLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sentAt", Value: -1}})
	cur, err := db.Notifications().Find(ctx, bson.M{"articleId": articleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	logs := []models.NotificationLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
