// Package archive freezes an event: every job's live coordinator count is
// stored as its archived count and the event is flagged archived.
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrAlreadyArchived is returned when the event was archived before.
var ErrAlreadyArchived = errors.New("archive: event already archived")

type EventStore interface {
	GetByURLName(ctx context.Context, urlName string) (models.Event, error)
	SetArchived(ctx context.Context, id primitive.ObjectID) error
}

type JobStore interface {
	ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Job, error)
	SetArchivedCoordinators(ctx context.Context, jobID primitive.ObjectID, n int) error
}

// Runner runs fn as one unit of work. txn.Run bound to a database fits.
type Runner func(ctx context.Context, fn func(ctx context.Context) error) error

// Direct runs fn without a transaction.
func Direct(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type Service struct {
	Events EventStore
	Jobs   JobStore
	Run    Runner
	Log    *zap.Logger
}

func New(events EventStore, jobs JobStore, run Runner, logger *zap.Logger) *Service {
	if run == nil {
		run = Direct
	}
	return &Service{Events: events, Jobs: jobs, Run: run, Log: logger}
}

// Result summarizes an archival.
type Result struct {
	Event        models.Event
	Jobs         int
	Coordinators int
}

// Archive snapshots the coordinator counts of every job of the event and
// flags it archived. Coordinator edits running at the same time may or may
// not be reflected in the snapshot.
func (s *Service) Archive(ctx context.Context, urlName string) (Result, error) {
	ev, err := s.Events.GetByURLName(ctx, urlName)
	if err != nil {
		return Result{}, fmt.Errorf("load event %q: %w", urlName, err)
	}
	if ev.Archived {
		return Result{Event: ev}, ErrAlreadyArchived
	}

	var res Result
	err = s.Run(ctx, func(ctx context.Context) error {
		// Reset so a retried attempt starts clean.
		res = Result{Event: ev}

		jobs, err := s.Jobs.ListByEvent(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		for _, j := range jobs {
			n := j.NumCoordinators(ev)
			if err := s.Jobs.SetArchivedCoordinators(ctx, j.ID, n); err != nil {
				return fmt.Errorf("snapshot job %q: %w", j.Name, err)
			}
			res.Jobs++
			res.Coordinators += n
		}
		if err := s.Events.SetArchived(ctx, ev.ID); err != nil {
			return fmt.Errorf("flag event archived: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{Event: ev}, err
	}

	res.Event.Archived = true
	res.Event.Active = false
	s.Log.Info("event archived",
		zap.String("event", ev.URLName),
		zap.Int("jobs", res.Jobs),
		zap.Int("coordinators", res.Coordinators))
	return res, nil
}
