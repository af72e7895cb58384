// internal/app/store/helpers/helperstore.go
package helpers

import (
	"context"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("helpers")}
}

var byName = options.Find().SetSort(bson.D{{Key: "surname", Value: 1}, {Key: "firstname", Value: 1}, {Key: "_id", Value: 1}})

// Create inserts a helper. The folded email and timestamps are filled in.
func (s *Store) Create(ctx context.Context, h models.Helper) (models.Helper, error) {
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	h.EmailCI = text.Fold(h.Email)
	if h.Shifts == nil {
		h.Shifts = []primitive.ObjectID{}
	}

	res, err := s.c.InsertOne(ctx, h)
	if err != nil {
		return h, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		h.ID = oid
	}
	return h, nil
}

// GetByID returns a single helper by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Helper, error) {
	var h models.Helper
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&h)
	return h, err
}

// ListByShifts returns helpers registered for at least one of the shifts.
func (s *Store) ListByShifts(ctx context.Context, shiftIDs []primitive.ObjectID) ([]models.Helper, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"shifts": bson.M{"$in": shiftIDs}})
}

// ListByIDs returns the helpers with the given ids. Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Helper, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListByEmail returns the helpers of an event registered with email,
// compared case-insensitively.
func (s *Store) ListByEmail(ctx context.Context, eventID primitive.ObjectID, email string) ([]models.Helper, error) {
	return s.find(ctx, bson.M{"event_id": eventID, "email_ci": text.Fold(email)})
}

// CountByShifts returns the number of registered helpers per shift id.
// Shifts without helpers are absent from the map.
func (s *Store) CountByShifts(ctx context.Context, shiftIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(shiftIDs))
	if len(shiftIDs) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"shifts": bson.M{"$in": shiftIDs}}}},
		{{Key: "$unwind", Value: "$shifts"}},
		{{Key: "$match", Value: bson.M{"shifts": bson.M{"$in": shiftIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$shifts", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// SetValidated marks the helper's email as confirmed.
func (s *Store) SetValidated(ctx context.Context, id primitive.ObjectID) error {
	return s.set(ctx, id, bson.M{"validated": true})
}

// SetMailFailed records why the last mail to the helper failed. An empty
// reason clears the field. Either way the helper is due for a retry at once.
func (s *Store) SetMailFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	return s.set(ctx, id, bson.M{"mail_failed": reason, "mail_retry_after": nil})
}

// DeferMailRetry records the latest failure and keeps the helper out of
// ListMailFailed until the given time.
func (s *Store) DeferMailRetry(ctx context.Context, id primitive.ObjectID, reason string, until time.Time) error {
	return s.set(ctx, id, bson.M{"mail_failed": reason, "mail_retry_after": until.UTC()})
}

// ListMailFailed returns helpers created since the given time whose last
// mail failed and whose retry is due at now, oldest first.
func (s *Store) ListMailFailed(ctx context.Context, since, now time.Time, limit int64) ([]models.Helper, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{
		"mail_failed":      bson.M{"$nin": bson.A{nil, ""}},
		"created_at":       bson.M{"$gte": since},
		"mail_retry_after": bson.M{"$not": bson.M{"$gt": now}},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Helper
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Helper, error) {
	cur, err := s.c.Find(ctx, filter, byName)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Helper
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
