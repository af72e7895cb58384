// Package badgeprovision attaches badge defaults to jobs of badge-enabled events.
package badgeprovision

import (
	"context"
	"fmt"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Creator creates an empty badge-defaults record and returns its id.
type Creator interface {
	Create(ctx context.Context) (primitive.ObjectID, error)
}

// Ensure makes sure job carries a badge-defaults id when ev has badges
// enabled. It must run before the job is written. An existing id is never
// replaced; with badges disabled nothing happens.
//
// Ensure reports whether it attached a new record.
func Ensure(ctx context.Context, c Creator, ev models.Event, job *models.Job) (bool, error) {
	if !job.NeedsBadgeDefaults(ev) {
		return false, nil
	}
	id, err := c.Create(ctx)
	if err != nil {
		return false, fmt.Errorf("create badge defaults for job %q: %w", job.Name, err)
	}
	job.BadgeDefaultsID = &id
	return true, nil
}

// EventUpdater persists an event.
type EventUpdater interface {
	Update(ctx context.Context, e models.Event) error
}

// JobSaver lists and saves the jobs of an event. Save provisions badge
// defaults through Ensure.
type JobSaver interface {
	ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Job, error)
	Save(ctx context.Context, ev models.Event, j *models.Job) error
}

// Enable switches badges on for ev and saves every job once so each one
// gets its badge defaults. It returns how many jobs were saved.
func Enable(ctx context.Context, events EventUpdater, jobs JobSaver, ev models.Event) (int, error) {
	if !ev.Badges {
		ev.Badges = true
		if err := events.Update(ctx, ev); err != nil {
			return 0, fmt.Errorf("enable badges on %q: %w", ev.URLName, err)
		}
	}

	list, err := jobs.ListByEvent(ctx, ev.ID)
	if err != nil {
		return 0, fmt.Errorf("list jobs of %q: %w", ev.URLName, err)
	}
	n := 0
	for i := range list {
		if !list[i].NeedsBadgeDefaults(ev) {
			continue
		}
		if err := jobs.Save(ctx, ev, &list[i]); err != nil {
			return n, fmt.Errorf("save job %q: %w", list[i].Name, err)
		}
		n++
	}
	return n, nil
}
