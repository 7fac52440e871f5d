package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/kevinaaaquil/ontimenews/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertArticle(ctx context.Context, article *models.Article) (primitive.ObjectID, error) {
	article.Email = normalizeEmail(article.Email)
	if article.Status == "" {
		article.Status = models.StatusPending
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}
	res, err := db.Articles().InsertOne(ctx, article)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	article.ID = id
	return id, nil
}

func (db *DB) ListArticles(ctx context.Context, f models.ArticleFilter) ([]models.Article, error) {
	return db.findArticles(ctx, articleFilter(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (db *DB) ArticleByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	var a models.Article
	err := db.Articles().FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) ArticlesByAuthor(ctx context.Context, email string) ([]models.Article, error) {
	return db.findArticles(ctx, bson.M{"email": normalizeEmail(email)}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// SearchArticles matches term anywhere in the title, ignoring case.
func (db *DB) SearchArticles(ctx context.Context, term string) ([]models.Article, error) {
	return db.findArticles(ctx, titleSearchFilter(term))
}

func (db *DB) TopViewedArticles(ctx context.Context, limit int64) ([]models.Article, error) {
	return db.findArticles(ctx, bson.M{}, topViewedOptions(limit))
}

// UpdateArticle sets only the fields present in upd. It reports whether the
// article exists.
func (db *DB) UpdateArticle(ctx context.Context, id primitive.ObjectID, upd models.ArticleUpdate) (bool, error) {
	fields := upd.Fields()
	if email, ok := fields["email"].(string); ok {
		fields["email"] = normalizeEmail(email)
	}
	if len(fields) == 0 {
		n, err := db.Articles().CountDocuments(ctx, bson.M{"_id": id})
		return n > 0, err
	}
	res, err := db.Articles().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// TransitionArticle applies t only while the article is in one of the
// statuses t allows. It returns false when nothing matched, either because
// the article is gone or because its status does not permit t.
func (db *DB) TransitionArticle(ctx context.Context, id primitive.ObjectID, t models.Transition) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	update, err := transitionUpdate(t)
	if err != nil {
		return false, err
	}
	filter := statusFilter(t.AllowedFrom())
	filter["_id"] = id
	res, err := db.Articles().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// IncrementViewCount atomically adds one view and returns the updated
// article, or nil if it does not exist.
func (db *DB) IncrementViewCount(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	var a models.Article
	err := db.Articles().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"viewCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteArticle removes the article and returns how many documents went away.
// A missing id is not an error.
func (db *DB) DeleteArticle(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := db.Articles().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (db *DB) findArticles(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Article, error) {
	cur, err := db.Articles().Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	articles := []models.Article{}
	if err := cur.All(ctx, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func titleSearchFilter(term string) bson.M {
	return bson.M{"title": primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}}
}

func topViewedOptions(limit int64) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "viewCount", Value: -1}}).
		SetLimit(limit)
}

// statusFilter matches any of statuses. Pending also matches documents
// that were stored without a status.
func statusFilter(statuses []models.ArticleStatus) bson.M {
	vals := bson.A{}
	pending := false
	for _, s := range statuses {
		vals = append(vals, string(s))
		if s == models.StatusPending {
			pending = true
		}
	}
	in := bson.M{"status": bson.M{"$in": vals}}
	if !pending {
		return in
	}
	return bson.M{"$or": bson.A{in, bson.M{"status": bson.M{"$exists": false}}}}
}

func articleFilter(f models.ArticleFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter = statusFilter([]models.ArticleStatus{f.Status})
	}
	if f.Publisher != "" {
		filter["publisher"] = f.Publisher
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.PremiumOnly {
		filter["isPremium"] = models.PremiumMarker
	}
	return filter
}

func transitionUpdate(t models.Transition) (bson.M, error) {
	switch t.Action {
	case models.ActionApprove:
		return bson.M{
			"$set":   bson.M{"status": models.StatusApproved},
			"$unset": bson.M{"decline": ""},
		}, nil
	case models.ActionDecline:
		return bson.M{"$set": bson.M{"status": models.StatusDeclined, "decline": t.Reason}}, nil
	case models.ActionPremium:
		return bson.M{"$set": bson.M{"isPremium": models.PremiumMarker}}, nil
	}
	return nil, fmt.Errorf("unknown action %q", t.Action)
}
