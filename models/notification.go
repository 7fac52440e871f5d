package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationLog records a decline email sent, or attempted, to an author.
type NotificationLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ArticleID primitive.ObjectID `bson:"articleId" json:"articleId"`
	Title     string             `bson:"title" json:"title"`
	ToEmail   string             `bson:"toEmail" json:"toEmail"`
	Reason    string             `bson:"reason" json:"reason"`
	SentBy    string             `bson:"sentBy" json:"sentBy"`
	Delivered bool               `bson:"delivered" json:"delivered"`
	Error     string             `bson:"error,omitempty" json:"error,omitempty"`
	SentAt    time.Time          `bson:"sentAt" json:"sentAt"`
}
