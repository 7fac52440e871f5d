package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kevinaaaquil/ontimenews/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RegisterUser inserts the user unless the email is already taken. It
// returns the new id, or nil when a user with that email already exists.
// The upsert plus the unique email index keeps concurrent registrations
// from creating duplicates.
func (db *DB) RegisterUser(ctx context.Context, user *models.User) (*primitive.ObjectID, error) {
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"email": user.Email},
		bson.M{"$setOnInsert": user},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if res.UpsertedID == nil {
		return nil, nil
	}
	id, ok := res.UpsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected upserted id type")
	}
	user.ID = id
	return &id, nil
}

// PromoteUser sets the user's role to admin. It reports whether the user exists.
func (db *DB) PromoteUser(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": models.RoleAdmin}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// EnsureAdmin makes sure the given email exists with the admin role, so a
// fresh deployment has someone able to promote others.
func (db *DB) EnsureAdmin(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	_, err := db.Users().UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set":         bson.M{"role": models.RoleAdmin},
			"$setOnInsert": bson.M{"createdAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
