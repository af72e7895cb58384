// internal/app/store/links/linkstore.go
package links

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrMalformedToken is returned for link tokens that are not UUIDs.
var ErrMalformedToken = errors.New("links: malformed token")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("links")}
}

// NormalizeToken parses a link token and returns its canonical form.
func NormalizeToken(token string) (string, error) {
	u, err := uuid.Parse(token)
	if err != nil {
		return "", ErrMalformedToken
	}
	return u.String(), nil
}

// Create inserts a link. A new UUID token is assigned when ID is empty.
func (s *Store) Create(ctx context.Context, l models.Link) (models.Link, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, l)
	return l, err
}

// GetByID returns the link for token. Malformed tokens yield
// ErrMalformedToken, unknown ones mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, token string) (models.Link, error) {
	var l models.Link
	id, err := NormalizeToken(token)
	if err != nil {
		return l, err
	}
	err = s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	return l, err
}
