// internal/app/features/jobs/roster.go
package jobs

import (
	"errors"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/helferhub/internal/app/features/errors"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/helferhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/helferhub/internal/app/system/lookup"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/domain/schedule"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type shiftRow struct {
	Name    string
	Time    string
	Need    int
	Helpers []models.Helper
	Full    bool
}

type dayRow struct {
	Date   string
	Shifts []shiftRow
}

type rosterPageData struct {
	formutil.Base
	Event           models.Event
	Job             models.Job
	Description     template.HTML
	Days            []dayRow
	People          []models.Helper // shift holders and coordinators, deduplicated
	Coordinators    []models.Helper
	NumCoordinators int
	Candidates      []models.Helper // shift holders who are not coordinators yet
}

// resolveJob loads the (event, job) chain and checks job admin rights. It
// writes the response and returns false when the request must stop.
func (h *Handler) resolveJob(w http.ResponseWriter, r *http.Request) (models.Event, models.Job, bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "resolve job")
	defer cancel()

	res, err := h.resolver().Resolve(ctx, lookup.Query{
		Event: chi.URLParam(r, "event"),
		Job:   chi.URLParam(r, "job"),
	})
	if errors.Is(err, lookup.ErrNotFound) {
		http.NotFound(w, r)
		return models.Event{}, models.Job{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve job failed", err, "A database error occurred.", "/")
		return models.Event{}, models.Job{}, false
	}
	if !res.Job.IsAdmin(res.Event, auth.PrincipalFrom(r)) {
		uierrors.RenderForbidden(w, r, h.Render, "You are not an admin of this job.", "/")
		return models.Event{}, models.Job{}, false
	}
	return res.Event, *res.Job, true
}

// ServeRoster shows the shifts of a job by day with their helpers, plus the
// job's coordinators.
// GET /manage/{event}/jobs/{job}
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	ev, job, ok := h.resolveJob(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "job roster")
	defer cancel()

	days, err := schedule.ShiftsByDayForJob(ctx, h.Shifts, job, nil, ev.Location())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load shifts failed", err, "A database error occurred.", "/")
		return
	}
	var shiftIDs []primitive.ObjectID
	for _, d := range days {
		shiftIDs = append(shiftIDs, schedule.IDs(d.Shifts)...)
	}

	holders, err := h.Helpers.ListByShifts(ctx, shiftIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load helpers failed", err, "A database error occurred.", "/")
		return
	}
	coordinators, err := h.Helpers.ListByIDs(ctx, job.Coordinators)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load coordinators failed", err, "A database error occurred.", "/")
		return
	}

	data := rosterPageData{
		Event:           ev,
		Job:             job,
		Description:     htmlsanitize.Description(job.Description),
		Days:            dayRows(days, holders),
		People:          schedule.HelpersAndCoordinators(holders, coordinators),
		Coordinators:    coordinators,
		NumCoordinators: job.NumCoordinators(ev),
	}
	for _, hp := range holders {
		if !job.HasCoordinator(hp.ID) {
			data.Candidates = append(data.Candidates, hp)
		}
	}
	formutil.SetBase(&data.Base, r, job.Name, "/")
	data.Flashes = h.Flash.Flashes(w, r)
	h.Render(w, r, "jobs_roster", data)
}

func dayRows(days []schedule.Day, holders []models.Helper) []dayRow {
	out := make([]dayRow, 0, len(days))
	for _, d := range days {
		row := dayRow{Date: d.Date.Format("Monday, 2 January 2006")}
		for _, sh := range d.Shifts {
			var hs []models.Helper
			for _, hp := range holders {
				if hp.HasShift(sh.ID) {
					hs = append(hs, hp)
				}
			}
			row.Shifts = append(row.Shifts, shiftRow{
				Name:    sh.Name,
				Time:    sh.Begin.Format("15:04") + " - " + sh.End.Format("15:04"),
				Need:    sh.NumberOfHelpers,
				Helpers: hs,
				Full:    sh.IsFull(len(hs)),
			})
		}
		out = append(out, row)
	}
	return out
}
