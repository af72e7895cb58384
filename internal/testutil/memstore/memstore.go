// Package memstore is an in-memory stand-in for the Mongo stores, used by
// handler and service tests. Method sets mirror the real stores; missing
// documents yield mongo.ErrNoDocuments.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/helferhub/internal/app/store/links"
	"github.com/dalemusser/helferhub/internal/app/system/badgeprovision"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DB holds all collections.
type DB struct {
	mu          sync.Mutex
	events      []models.Event
	jobs        []models.Job
	shifts      []models.Shift
	helpers     []models.Helper
	links       []models.Link
	badges      []models.BadgeDefaults
	subscribers map[string]bool
	failures    map[string]error
}

func New() *DB {
	return &DB{subscribers: map[string]bool{}, failures: map[string]error{}}
}

// FailOn makes op (e.g. "helpers.Create") return err until cleared with nil.
func (db *DB) FailOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.failures, op)
		return
	}
	db.failures[op] = err
}

func (db *DB) fail(op string) error { return db.failures[op] }

func (db *DB) Events() *Events               { return &Events{db} }
func (db *DB) Jobs() *Jobs                   { return &Jobs{db} }
func (db *DB) Shifts() *Shifts               { return &Shifts{db} }
func (db *DB) Helpers() *Helpers             { return &Helpers{db} }
func (db *DB) Links() *Links                 { return &Links{db} }
func (db *DB) News() *News                   { return &News{db} }
func (db *DB) BadgeDefaults() *BadgeDefaults { return &BadgeDefaults{db} }

func has(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func intersects(a, b []primitive.ObjectID) bool {
	for _, x := range a {
		if has(b, x) {
			return true
		}
	}
	return false
}

/*─────────────────────────────── events ───────────────────────────────*/

type Events struct{ db *DB }

func (s *Events) Create(_ context.Context, e models.Event) (models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("events.Create"); err != nil {
		return e, err
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	s.db.events = append(s.db.events, e)
	return e, nil
}

func (s *Events) Update(_ context.Context, e models.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.events {
		if s.db.events[i].ID == e.ID {
			s.db.events[i] = e
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *Events) GetByURLName(_ context.Context, urlName string) (models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("events.GetByURLName"); err != nil {
		return models.Event{}, err
	}
	for _, e := range s.db.events {
		if e.URLName == urlName {
			return e, nil
		}
	}
	return models.Event{}, mongo.ErrNoDocuments
}

func (s *Events) GetByID(_ context.Context, id primitive.ObjectID) (models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.events {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Event{}, mongo.ErrNoDocuments
}

func (s *Events) List(_ context.Context) ([]models.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := append([]models.Event(nil), s.db.events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Events) SetArchived(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("events.SetArchived"); err != nil {
		return err
	}
	for i := range s.db.events {
		if s.db.events[i].ID == id {
			s.db.events[i].Archived = true
			s.db.events[i].Active = false
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

/*──────────────────────────── badge defaults ───────────────────────────*/

type BadgeDefaults struct{ db *DB }

func (s *BadgeDefaults) Create(_ context.Context) (primitive.ObjectID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("badgedefaults.Create"); err != nil {
		return primitive.NilObjectID, err
	}
	d := models.BadgeDefaults{ID: primitive.NewObjectID(), CreatedAt: time.Now().UTC()}
	s.db.badges = append(s.db.badges, d)
	return d.ID, nil
}

// Count returns how many records exist.
func (s *BadgeDefaults) Count() int {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return len(s.db.badges)
}

/*──────────────────────────────── jobs ─────────────────────────────────*/

type Jobs struct{ db *DB }

// Save mirrors jobs.Store.Save including badge provisioning.
func (s *Jobs) Save(ctx context.Context, ev models.Event, j *models.Job) error {
	out := *j
	if _, err := badgeprovision.Ensure(ctx, s.db.BadgeDefaults(), ev, &out); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("jobs.Save"); err != nil {
		return err
	}
	out.EventID = ev.ID
	if out.ID.IsZero() {
		out.ID = primitive.NewObjectID()
	}
	*j = out
	for i := range s.db.jobs {
		if s.db.jobs[i].ID == out.ID {
			s.db.jobs[i] = out
			return nil
		}
	}
	s.db.jobs = append(s.db.jobs, out)
	return nil
}

func (s *Jobs) GetByID(_ context.Context, id primitive.ObjectID) (models.Job, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, j := range s.db.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return models.Job{}, mongo.ErrNoDocuments
}

func (s *Jobs) ListByEvent(_ context.Context, eventID primitive.ObjectID) ([]models.Job, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("jobs.ListByEvent"); err != nil {
		return nil, err
	}
	var out []models.Job
	for _, j := range s.db.jobs {
		if j.EventID == eventID {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out, nil
}

func (s *Jobs) AddCoordinator(_ context.Context, jobID, helperID primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.jobs {
		if s.db.jobs[i].ID == jobID {
			if !has(s.db.jobs[i].Coordinators, helperID) {
				s.db.jobs[i].Coordinators = append(s.db.jobs[i].Coordinators, helperID)
			}
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *Jobs) SetArchivedCoordinators(_ context.Context, jobID primitive.ObjectID, n int) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("jobs.SetArchivedCoordinators"); err != nil {
		return err
	}
	for i := range s.db.jobs {
		if s.db.jobs[i].ID == jobID {
			s.db.jobs[i].ArchivedNumberCoordinators = n
			return nil
		}
	}
	return nil
}

/*─────────────────────────────── shifts ────────────────────────────────*/

type Shifts struct{ db *DB }

func (s *Shifts) Create(_ context.Context, sh models.Shift) (models.Shift, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if sh.ID.IsZero() {
		sh.ID = primitive.NewObjectID()
	}
	s.db.shifts = append(s.db.shifts, sh)
	return sh, nil
}

func (s *Shifts) GetByID(_ context.Context, id primitive.ObjectID) (models.Shift, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, sh := range s.db.shifts {
		if sh.ID == id {
			return sh, nil
		}
	}
	return models.Shift{}, mongo.ErrNoDocuments
}

func (s *Shifts) ListByJob(_ context.Context, jobID primitive.ObjectID) ([]models.Shift, error) {
	return s.filter(func(sh models.Shift) bool { return sh.JobID == jobID }), nil
}

func (s *Shifts) ListByEvent(_ context.Context, eventID primitive.ObjectID) ([]models.Shift, error) {
	return s.filter(func(sh models.Shift) bool { return sh.EventID == eventID }), nil
}

func (s *Shifts) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Shift, error) {
	return s.filter(func(sh models.Shift) bool { return has(ids, sh.ID) }), nil
}

func (s *Shifts) filter(keep func(models.Shift) bool) []models.Shift {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Shift{}
	for _, sh := range s.db.shifts {
		if keep(sh) {
			out = append(out, sh)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Begin.Before(out[j].Begin) })
	return out
}

/*─────────────────────────────── helpers ───────────────────────────────*/

type Helpers struct{ db *DB }

func (s *Helpers) Create(_ context.Context, h models.Helper) (models.Helper, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("helpers.Create"); err != nil {
		return h, err
	}
	if h.ID.IsZero() {
		h.ID = primitive.NewObjectID()
	}
	h.EmailCI = strings.ToLower(h.Email)
	if h.Shifts == nil {
		h.Shifts = []primitive.ObjectID{}
	}
	s.db.helpers = append(s.db.helpers, h)
	return h, nil
}

// All returns every stored helper in insertion order.
func (s *Helpers) All() []models.Helper {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.Helper(nil), s.db.helpers...)
}

func (s *Helpers) GetByID(_ context.Context, id primitive.ObjectID) (models.Helper, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, h := range s.db.helpers {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Helper{}, mongo.ErrNoDocuments
}

func (s *Helpers) ListByShifts(_ context.Context, shiftIDs []primitive.ObjectID) ([]models.Helper, error) {
	return s.filter(func(h models.Helper) bool { return intersects(h.Shifts, shiftIDs) }), nil
}

func (s *Helpers) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Helper, error) {
	return s.filter(func(h models.Helper) bool { return has(ids, h.ID) }), nil
}

func (s *Helpers) ListByEmail(_ context.Context, eventID primitive.ObjectID, email string) ([]models.Helper, error) {
	ci := strings.ToLower(strings.TrimSpace(email))
	return s.filter(func(h models.Helper) bool { return h.EventID == eventID && strings.ToLower(h.Email) == ci }), nil
}

func (s *Helpers) CountByShifts(_ context.Context, shiftIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := map[primitive.ObjectID]int{}
	for _, h := range s.db.helpers {
		for _, id := range h.Shifts {
			if has(shiftIDs, id) {
				out[id]++
			}
		}
	}
	return out, nil
}

func (s *Helpers) SetValidated(_ context.Context, id primitive.ObjectID) error {
	return s.update(id, func(h *models.Helper) { h.Validated = true })
}

func (s *Helpers) SetMailFailed(_ context.Context, id primitive.ObjectID, reason string) error {
	return s.update(id, func(h *models.Helper) {
		h.MailFailed = reason
		h.MailRetryAfter = nil
	})
}

func (s *Helpers) DeferMailRetry(_ context.Context, id primitive.ObjectID, reason string, until time.Time) error {
	return s.update(id, func(h *models.Helper) {
		h.MailFailed = reason
		h.MailRetryAfter = &until
	})
}

func (s *Helpers) ListMailFailed(_ context.Context, since, now time.Time, limit int64) ([]models.Helper, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("helpers.ListMailFailed"); err != nil {
		return nil, err
	}
	var out []models.Helper
	for _, h := range s.db.helpers {
		if h.MailFailed != "" && !h.CreatedAt.Before(since) && (h.MailRetryAfter == nil || !h.MailRetryAfter.After(now)) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Helpers) update(id primitive.ObjectID, fn func(*models.Helper)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.helpers {
		if s.db.helpers[i].ID == id {
			fn(&s.db.helpers[i])
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *Helpers) filter(keep func(models.Helper) bool) []models.Helper {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Helper
	for _, h := range s.db.helpers {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

/*──────────────────────────────── links ────────────────────────────────*/

type Links struct{ db *DB }

func (s *Links) Create(_ context.Context, l models.Link) (models.Link, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.db.links = append(s.db.links, l)
	return l, nil
}

func (s *Links) GetByID(_ context.Context, token string) (models.Link, error) {
	id, err := links.NormalizeToken(token)
	if err != nil {
		return models.Link{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, l := range s.db.links {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Link{}, mongo.ErrNoDocuments
}

/*──────────────────────────────── news ─────────────────────────────────*/

type News struct{ db *DB }

// Subscribe seeds a subscriber.
func (s *News) Subscribe(email string) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.subscribers[strings.ToLower(email)] = true
}

func (s *News) Eligible(_ context.Context, email string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fail("news.Eligible"); err != nil {
		return false, err
	}
	return !s.db.subscribers[strings.ToLower(email)], nil
}
