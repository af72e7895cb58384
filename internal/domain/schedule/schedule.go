// Package schedule groups and reconciles shift data for display.
//
// All functions are pure and operate on plain slices; loading happens in the
// stores. Shifts must carry a non-zero Begin.
package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Day is one calendar date with the shifts beginning on it.
type Day struct {
	Date   time.Time // midnight of the date, in the location of its shifts
	Shifts []models.Shift
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func (k dayKey) before(o dayKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	if k.month != o.month {
		return k.month < o.month
	}
	return k.day < o.day
}

// ShiftsByDay buckets shifts by the calendar date of Begin, taken in the
// location Begin already carries. Days are ascending; shifts within a day are
// ascending by Begin with ties kept in input order. Every input shift appears
// exactly once in the output.
func ShiftsByDay(shifts []models.Shift) []Day {
	buckets := make(map[dayKey]*Day)
	var keys []dayKey

	for _, s := range shifts {
		y, m, d := s.Begin.Date()
		k := dayKey{y, m, d}
		b, ok := buckets[k]
		if !ok {
			b = &Day{Date: time.Date(y, m, d, 0, 0, 0, 0, s.Begin.Location())}
			buckets[k] = b
			keys = append(keys, k)
		}
		b.Shifts = append(b.Shifts, s)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	days := make([]Day, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		sort.SliceStable(b.Shifts, func(i, j int) bool {
			return b.Shifts[i].Begin.Before(b.Shifts[j].Begin)
		})
		days = append(days, *b)
	}
	return days
}

// ShiftLister loads all shifts of a job.
type ShiftLister interface {
	ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Shift, error)
}

// ShiftsByDayForJob groups the given shifts, or all shifts of the job when
// shifts is nil, with Begin and End taken in loc. A non-nil empty slice
// yields no days; it is not read as "all shifts".
func ShiftsByDayForJob(ctx context.Context, lister ShiftLister, job models.Job, shifts []models.Shift, loc *time.Location) ([]Day, error) {
	if shifts == nil {
		var err error
		shifts, err = lister.ListByJob(ctx, job.ID)
		if err != nil {
			return nil, err
		}
	}
	return ShiftsByDay(In(shifts, loc)), nil
}

// In returns a copy of shifts with Begin and End moved into loc.
// A nil loc leaves the times as they are.
func In(shifts []models.Shift, loc *time.Location) []models.Shift {
	if loc == nil || shifts == nil {
		return shifts
	}
	out := make([]models.Shift, len(shifts))
	for i, s := range shifts {
		s.Begin = s.Begin.In(loc)
		s.End = s.End.In(loc)
		out[i] = s
	}
	return out
}

// HelpersAndCoordinators merges helpers holding a shift of a job with the
// job's coordinators. Shift holders come first in input order, followed by
// coordinators not already listed. Duplicates are dropped by id.
func HelpersAndCoordinators(shiftHolders, coordinators []models.Helper) []models.Helper {
	seen := make(map[primitive.ObjectID]struct{}, len(shiftHolders)+len(coordinators))
	out := make([]models.Helper, 0, len(shiftHolders)+len(coordinators))

	for _, list := range [][]models.Helper{shiftHolders, coordinators} {
		for _, h := range list {
			if _, dup := seen[h.ID]; dup {
				continue
			}
			seen[h.ID] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}

// FilterByJob returns the shifts belonging to jobID, preserving order.
func FilterByJob(shifts []models.Shift, jobID primitive.ObjectID) []models.Shift {
	var out []models.Shift
	for _, s := range shifts {
		if s.JobID == jobID {
			out = append(out, s)
		}
	}
	return out
}

// IDs returns the ids of the shifts in order.
func IDs(shifts []models.Shift) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(shifts))
	for _, s := range shifts {
		ids = append(ids, s.ID)
	}
	return ids
}
