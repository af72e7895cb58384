// internal/app/features/jobs/export.go
package jobs

import (
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/csvutil"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/domain/schedule"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeRosterCSV downloads the job roster, one row per helper and shift.
// Coordinators without a shift get a row with empty shift columns.
// GET /manage/{event}/jobs/{job}/roster.csv
func (h *Handler) ServeRosterCSV(w http.ResponseWriter, r *http.Request) {
	ev, job, ok := h.resolveJob(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "job roster csv")
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

	csvutil.Attach(w, ev.URLName+"-"+job.Name+".csv")
	cw := csvutil.NewWriter(w)
	cw.Write(rosterHeader(ev)...)

	seen := make(map[primitive.ObjectID]bool)
	for _, d := range days {
		for _, sh := range d.Shifts {
			for _, hp := range holders {
				if !hp.HasShift(sh.ID) {
					continue
				}
				seen[hp.ID] = true
				cw.Write(rosterRow(ev, job, &sh, hp)...)
			}
		}
	}
	for _, c := range coordinators {
		if !seen[c.ID] {
			cw.Write(rosterRow(ev, job, nil, c)...)
		}
	}

	if err := cw.Flush(); err != nil {
		h.Log.Warn("write roster csv", zap.String("job_id", job.ID.Hex()), zap.Error(err))
	}
}

func rosterHeader(ev models.Event) []string {
	cols := []string{"Date", "Begin", "End", "Shift", "Firstname", "Surname", "Email", "Phone"}
	if ev.AskShirt {
		cols = append(cols, "Shirt")
	}
	if ev.AskVegetarian {
		cols = append(cols, "Vegetarian")
	}
	return append(cols, "Coordinator")
}

func rosterRow(ev models.Event, job models.Job, sh *models.Shift, hp models.Helper) []string {
	row := make([]string, 4, 11)
	if sh != nil {
		row[0] = sh.Begin.Format("2006-01-02")
		row[1] = sh.Begin.Format("15:04")
		row[2] = sh.End.Format("15:04")
		row[3] = sh.Name
	}
	row = append(row, hp.Firstname, hp.Surname, hp.Email, hp.Phone)
	if ev.AskShirt {
		row = append(row, hp.Shirt)
	}
	if ev.AskVegetarian {
		row = append(row, csvutil.YesNo(hp.Vegetarian))
	}
	return append(row, csvutil.YesNo(job.HasCoordinator(hp.ID)))
}
