// internal/app/store/shifts/shiftstore.go
package shifts

import (
	"context"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("shifts")}
}

var byBegin = options.Find().SetSort(bson.D{{Key: "begin", Value: 1}, {Key: "_id", Value: 1}})

// Create inserts a new shift. If CreatedAt is zero, it will be set to now (UTC).
func (s *Store) Create(ctx context.Context, sh models.Shift) (models.Shift, error) {
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = time.Now().UTC()
	}
	res, err := s.c.InsertOne(ctx, sh)
	if err != nil {
		return sh, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		sh.ID = oid
	}
	return sh, nil
}

// GetByID returns a single shift by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Shift, error) {
	var sh models.Shift
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sh)
	return sh, err
}

// ListByJob returns all shifts of a job ordered by begin.
func (s *Store) ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Shift, error) {
	return s.find(ctx, bson.M{"job_id": jobID})
}

// ListByEvent returns all shifts of an event ordered by begin.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Shift, error) {
	return s.find(ctx, bson.M{"event_id": eventID})
}

// ListByIDs returns the shifts with the given ids ordered by begin.
// Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Shift, error) {
	if len(ids) == 0 {
		return []models.Shift{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Shift, error) {
	cur, err := s.c.Find(ctx, filter, byBegin)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Shift{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
