package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data directly in Mongo.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateEvent creates an active event with the given slug.
func (f *Fixtures) CreateEvent(ctx context.Context, urlName string, mutate ...func(*models.Event)) models.Event {
	f.t.Helper()
	now := time.Now().UTC()
	ev := models.Event{
		ID:        primitive.NewObjectID(),
		URLName:   urlName,
		Name:      "Event " + urlName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range mutate {
		m(&ev)
	}
	f.insert(ctx, "events", ev)
	return ev
}

// CreateJob creates a public job in ev.
func (f *Fixtures) CreateJob(ctx context.Context, ev models.Event, name string, mutate ...func(*models.Job)) models.Job {
	f.t.Helper()
	now := time.Now().UTC()
	j := models.Job{
		ID:        primitive.NewObjectID(),
		EventID:   ev.ID,
		Name:      name,
		Public:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range mutate {
		m(&j)
	}
	f.insert(ctx, "jobs", j)
	return j
}

// CreateShift creates a shift of job lasting duration from begin.
func (f *Fixtures) CreateShift(ctx context.Context, job models.Job, begin time.Time, duration time.Duration, helpers int) models.Shift {
	f.t.Helper()
	s := models.Shift{
		ID:              primitive.NewObjectID(),
		JobID:           job.ID,
		EventID:         job.EventID,
		Begin:           begin,
		End:             begin.Add(duration),
		NumberOfHelpers: helpers,
		CreatedAt:       time.Now().UTC(),
	}
	f.insert(ctx, "shifts", s)
	return s
}

// CreateHelper registers a helper of ev for the given shifts.
func (f *Fixtures) CreateHelper(ctx context.Context, ev models.Event, email string, shifts ...models.Shift) models.Helper {
	f.t.Helper()
	now := time.Now().UTC()
	h := models.Helper{
		ID:               primitive.NewObjectID(),
		EventID:          ev.ID,
		Firstname:        "Test",
		Surname:          "Helper",
		Email:            email,
		EmailCI:          text.Fold(email),
		PrivacyStatement: true,
		Shifts:           []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, s := range shifts {
		h.Shifts = append(h.Shifts, s.ID)
	}
	f.insert(ctx, "helpers", h)
	return h
}
