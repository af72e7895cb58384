// Package lookup resolves the (event, job, shift, helper) chain addressed by a
// URL and checks that every link of the chain belongs to the previous one.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when any element is missing, malformed or does not
// belong to its parent. Callers map it to 404.
var ErrNotFound = errors.New("lookup: not found")

type EventFinder interface {
	GetByURLName(ctx context.Context, urlName string) (models.Event, error)
}

type JobFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Job, error)
}

type ShiftFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Shift, error)
}

type HelperFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Helper, error)
}

// Query names the elements to resolve. Empty ids are skipped; the event is
// always required. A shift requires a job.
type Query struct {
	Event  string
	Job    string
	Shift  string
	Helper string
}

// Result holds the resolved elements. Elements not asked for stay nil.
type Result struct {
	Event  models.Event
	Job    *models.Job
	Shift  *models.Shift
	Helper *models.Helper
}

// Resolver loads elements through the finders. Finders for elements that
// are never queried may be nil.
type Resolver struct {
	Events  EventFinder
	Jobs    JobFinder
	Shifts  ShiftFinder
	Helpers HelperFinder
}

// Resolve loads the event, then each requested element, verifying:
//   - job.EventID == event.ID
//   - shift.JobID == job.ID
//   - helper.EventID == event.ID, and helper holds the shift when one is given
func (rv Resolver) Resolve(ctx context.Context, q Query) (Result, error) {
	var res Result

	ev, err := rv.Events.GetByURLName(ctx, q.Event)
	if err != nil {
		return res, notFound("event", err)
	}
	res.Event = ev

	if q.Job != "" {
		id, err := primitive.ObjectIDFromHex(q.Job)
		if err != nil {
			return res, ErrNotFound
		}
		job, err := rv.Jobs.GetByID(ctx, id)
		if err != nil {
			return res, notFound("job", err)
		}
		if job.EventID != ev.ID {
			return res, ErrNotFound
		}
		res.Job = &job
	}

	if q.Shift != "" {
		if res.Job == nil {
			return res, ErrNotFound
		}
		id, err := primitive.ObjectIDFromHex(q.Shift)
		if err != nil {
			return res, ErrNotFound
		}
		s, err := rv.Shifts.GetByID(ctx, id)
		if err != nil {
			return res, notFound("shift", err)
		}
		if s.JobID != res.Job.ID {
			return res, ErrNotFound
		}
		res.Shift = &s
	}

	if q.Helper != "" {
		id, err := primitive.ObjectIDFromHex(q.Helper)
		if err != nil {
			return res, ErrNotFound
		}
		h, err := rv.Helpers.GetByID(ctx, id)
		if err != nil {
			return res, notFound("helper", err)
		}
		if h.EventID != ev.ID {
			return res, ErrNotFound
		}
		if res.Shift != nil && !h.HasShift(res.Shift.ID) {
			return res, ErrNotFound
		}
		res.Helper = &h
	}

	return res, nil
}

// notFound maps missing documents to ErrNotFound and wraps anything else.
func notFound(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("load %s: %w", what, err)
}
