// internal/app/store/news/newsstore.go
package news

import (
	"context"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads the newsletter subscriber list. Subscriptions are managed by
// the newsletter tooling.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("news_subscribers")}
}

// Eligible reports whether email may be offered the newsletter, i.e. is not
// subscribed yet.
func (s *Store) Eligible(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email_ci": text.Fold(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
