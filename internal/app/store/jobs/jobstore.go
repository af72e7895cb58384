// internal/app/store/jobs/jobstore.go
package jobs

import (
	"context"
	"time"

	"github.com/dalemusser/helferhub/internal/app/store/badgedefaults"
	"github.com/dalemusser/helferhub/internal/app/system/badgeprovision"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c      *mongo.Collection
	badges badgeprovision.Creator
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jobs"), badges: badgedefaults.New(db)}
}

// Save inserts the job when it has no id yet and replaces it otherwise.
// Badge defaults are provisioned first when the event has badges enabled,
// so a persisted job of such an event always carries a badge-defaults id.
// j is only updated (id, timestamps, badge defaults) once the write
// succeeded; a failed save may leave an unattached badge-defaults record.
func (s *Store) Save(ctx context.Context, ev models.Event, j *models.Job) error {
	out := *j
	if _, err := badgeprovision.Ensure(ctx, s.badges, ev, &out); err != nil {
		return err
	}

	now := time.Now().UTC()
	out.EventID = ev.ID
	out.UpdatedAt = now

	var err error
	if out.ID.IsZero() {
		out.ID = primitive.NewObjectID()
		out.CreatedAt = now
		_, err = s.c.InsertOne(ctx, out)
	} else {
		_, err = s.c.ReplaceOne(ctx, bson.M{"_id": out.ID}, out, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return err
	}
	*j = out
	return nil
}

// GetByID returns a single job by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Job, error) {
	var j models.Job
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&j)
	return j, err
}

// ListByEvent returns the jobs of an event ordered by name.
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Job, error) {
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Job
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddCoordinator adds a helper to the job's coordinators. Adding an existing
// coordinator is a no-op.
func (s *Store) AddCoordinator(ctx context.Context, jobID, helperID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{
		"$addToSet": bson.M{"coordinators": helperID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetArchivedCoordinators stores the frozen coordinator count of a job.
func (s *Store) SetArchivedCoordinators(ctx context.Context, jobID primitive.ObjectID, n int) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": jobID}, bson.M{"$set": bson.M{
		"archived_number_coordinators": n,
		"updated_at":                   time.Now().UTC(),
	}})
	return err
}
