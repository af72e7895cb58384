// Package eventimport creates an event with its jobs and shifts from a YAML
// file. It backs `helferctl import-event`.
package eventimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/helferhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrExists is returned when an event with the same url name is stored.
var ErrExists = errors.New("eventimport: event already exists")

type EventStore interface {
	GetByURLName(ctx context.Context, urlName string) (models.Event, error)
	Create(ctx context.Context, e models.Event) (models.Event, error)
}

type JobStore interface {
	Save(ctx context.Context, ev models.Event, j *models.Job) error
}

type ShiftStore interface {
	Create(ctx context.Context, sh models.Shift) (models.Shift, error)
}

type UserStore interface {
	GetByLoginID(ctx context.Context, loginID string) (models.User, error)
}

// Runner runs fn as one unit of work.
type Runner func(ctx context.Context, fn func(ctx context.Context) error) error

type Importer struct {
	Events EventStore
	Jobs   JobStore
	Shifts ShiftStore
	Users  UserStore
	Run    Runner
	Log    *zap.Logger
}

func New(events EventStore, jobs JobStore, shifts ShiftStore, users UserStore, run Runner, logger *zap.Logger) *Importer {
	if run == nil {
		run = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	return &Importer{Events: events, Jobs: jobs, Shifts: shifts, Users: users, Run: run, Log: logger}
}

// Result summarizes an import.
type Result struct {
	Event  models.Event
	Jobs   int
	Shifts int
}

// Import stores the event described by f. Admin login ids must exist.
func (im *Importer) Import(ctx context.Context, f *File) (Result, error) {
	if err := Validate(f); err != nil {
		return Result{}, err
	}

	_, err := im.Events.GetByURLName(ctx, f.URLName)
	switch {
	case err == nil:
		return Result{}, fmt.Errorf("%w: %s", ErrExists, f.URLName)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return Result{}, fmt.Errorf("check event %q: %w", f.URLName, err)
	}

	loc, err := f.Location()
	if err != nil {
		return Result{}, err
	}

	admins, err := im.resolveUsers(ctx, f.Admins)
	if err != nil {
		return Result{}, err
	}

	var res Result
	err = im.Run(ctx, func(ctx context.Context) error {
		res = Result{}

		ev, err := im.Events.Create(ctx, models.Event{
			URLName:        f.URLName,
			Name:           f.Name,
			ContactEmail:   f.ContactEmail,
			Timezone:       loc.String(),
			Active:         f.Active,
			Badges:         f.Badges,
			MailValidation: f.MailValidation,
			AskShirt:       f.AskShirt,
			AskVegetarian:  f.AskVegetarian,
			Admins:         admins,
		})
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		res.Event = ev

		for _, spec := range f.Jobs {
			n, err := im.importJob(ctx, ev, spec, loc)
			if err != nil {
				return fmt.Errorf("job %q: %w", spec.Name, err)
			}
			res.Jobs++
			res.Shifts += n
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	im.Log.Info("event imported",
		zap.String("event", res.Event.URLName),
		zap.Int("jobs", res.Jobs),
		zap.Int("shifts", res.Shifts))
	return res, nil
}

func (im *Importer) importJob(ctx context.Context, ev models.Event, spec JobSpec, loc *time.Location) (int, error) {
	jobAdmins, err := im.resolveUsers(ctx, spec.Admins)
	if err != nil {
		return 0, err
	}

	job := models.Job{
		Name:                 spec.Name,
		Public:               spec.Public,
		InfectionInstruction: spec.InfectionInstruction,
		Description:          htmlsanitize.Sanitize(spec.Description),
		JobAdmins:            jobAdmins,
	}
	if err := im.Jobs.Save(ctx, ev, &job); err != nil {
		return 0, err
	}

	n := 0
	for _, s := range spec.Shifts {
		begins, length, err := s.Occurrences(loc)
		if err != nil {
			return n, err
		}
		for _, b := range begins {
			_, err := im.Shifts.Create(ctx, models.Shift{
				JobID:           job.ID,
				EventID:         ev.ID,
				Name:            s.Name,
				Begin:           b,
				End:             b.Add(length),
				NumberOfHelpers: s.Helpers,
				Blocked:         s.Blocked,
			})
			if err != nil {
				return n, fmt.Errorf("create shift at %s: %w", b.Format(TimeLayout), err)
			}
			n++
		}
	}
	return n, nil
}

func (im *Importer) resolveUsers(ctx context.Context, loginIDs []string) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, login := range loginIDs {
		u, err := im.Users.GetByLoginID(ctx, login)
		if err != nil {
			return nil, fmt.Errorf("admin %q: %w", login, err)
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}
