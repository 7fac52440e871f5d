package handlers

import (
	"context"
	"io"

	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/kevinaaaquil/ontimenews/backend/service"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are the slices of the Credential Store and the
// external services each handler needs. *store.DB implements every store
// interface here.

type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	RegisterUser(ctx context.Context, user *models.User) (*primitive.ObjectID, error)
	PromoteUser(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type ArticleStore interface {
	InsertArticle(ctx context.Context, article *models.Article) (primitive.ObjectID, error)
	ListArticles(ctx context.Context, f models.ArticleFilter) ([]models.Article, error)
	ArticleByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error)
	ArticlesByAuthor(ctx context.Context, email string) ([]models.Article, error)
	SearchArticles(ctx context.Context, term string) ([]models.Article, error)
	TopViewedArticles(ctx context.Context, limit int64) ([]models.Article, error)
	UpdateArticle(ctx context.Context, id primitive.ObjectID, upd models.ArticleUpdate) (bool, error)
	TransitionArticle(ctx context.Context, id primitive.ObjectID, t models.Transition) (bool, error)
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) (*models.Article, error)
	DeleteArticle(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type PublisherStore interface {
	InsertPublisher(ctx context.Context, p *models.Publisher) (primitive.ObjectID, error)
	ListPublishers(ctx context.Context) ([]models.Publisher, error)
}

type NotificationLog interface {
	InsertNotificationLog(ctx context.Context, entry *models.NotificationLog) error
	NotificationLogsForArticle(ctx context.Context, articleID primitive.ObjectID) ([]models.NotificationLog, error)
}

type Tokens interface {
	Issue(claims map[string]any) (string, error)
	Verify(token string) (*service.Claims, error)
}

type PaymentCreator interface {
	CreateIntent(ctx context.Context, price decimal.Decimal) (string, error)
}

type ImageStorage interface {
	UploadImage(ctx context.Context, body io.Reader, contentType string) (string, error)
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

type DeclineNotifier interface {
	NotifyDeclined(ctx context.Context, article *models.Article) error
}
