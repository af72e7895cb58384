// internal/app/store/badgedefaults/badgedefaultsstore.go
package badgedefaults

import (
	"context"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("badge_defaults")}
}

// Create inserts an empty badge-defaults record and returns its id.
func (s *Store) Create(ctx context.Context) (primitive.ObjectID, error) {
	d := models.BadgeDefaults{ID: primitive.NewObjectID(), CreatedAt: time.Now().UTC()}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return primitive.NilObjectID, err
	}
	return d.ID, nil
}

// GetByID returns a single record by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.BadgeDefaults, error) {
	var d models.BadgeDefaults
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	return d, err
}
