// internal/app/features/registration/confirm.go
package registration

import (
	"errors"
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/helferhub/internal/app/system/lookup"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/domain/schedule"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type registeredShift struct {
	Job  string
	Name string
	Time string
}

type registeredDay struct {
	Date   string
	Shifts []registeredShift
}

type registeredPageData struct {
	formutil.Base
	Event  models.Event
	Helper models.Helper
	Days   []registeredDay
	News   bool
}

type validatePageData struct {
	formutil.Base
	Event            models.Event
	AlreadyValidated bool
}

// resolveHelper loads the (event, helper) chain from the URL. It writes the
// response and returns false when the chain does not resolve.
func (h *Handler) resolveHelper(w http.ResponseWriter, r *http.Request) (lookup.Result, bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "resolve helper")
	defer cancel()

	res, err := h.resolver().Resolve(ctx, lookup.Query{
		Event:  chi.URLParam(r, "event"),
		Helper: chi.URLParam(r, "helper"),
	})
	if errors.Is(err, lookup.ErrNotFound) {
		http.NotFound(w, r)
		return res, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve helper failed", err, "A database error occurred.", "/")
		return res, false
	}
	return res, true
}

// ServeRegistered shows the helper's registration after the redirect.
// GET /{event}/registered/{helper}
func (h *Handler) ServeRegistered(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolveHelper(w, r)
	if !ok {
		return
	}
	helper := *res.Helper

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "registered page")
	defer cancel()

	shifts, err := h.Shifts.ListByIDs(ctx, helper.Shifts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load shifts failed", err, "A database error occurred.", "/")
		return
	}
	jobs, err := h.Jobs.ListByEvent(ctx, res.Event.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load jobs failed", err, "A database error occurred.", "/")
		return
	}

	news, err := h.News.Eligible(ctx, helper.Email)
	if err != nil {
		// The newsletter hint is optional.
		h.Log.Warn("news eligibility check failed", zap.Error(err))
		news = false
	}

	data := registeredPageData{
		Event:  res.Event,
		Helper: helper,
		Days:   registeredDays(schedule.In(shifts, res.Event.Location()), jobs),
		News:   news,
	}
	formutil.SetBase(&data.Base, r, res.Event.Name, "/")
	data.Flashes = h.Flash.Flashes(w, r)
	h.Render(w, r, "registration_registered", data)
}

// ServeValidate confirms the helper's e-mail address.
// GET|POST /{event}/validate/{helper}
func (h *Handler) ServeValidate(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolveHelper(w, r)
	if !ok {
		return
	}
	if !res.Event.MailValidation {
		http.NotFound(w, r)
		return
	}

	already := res.Helper.Validated

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "validate helper")
	defer cancel()
	if err := h.Helpers.SetValidated(ctx, res.Helper.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "validate helper failed", err, "Your e-mail address could not be confirmed.", "/")
		return
	}
	if !already {
		h.Log.Info("helper validated",
			zap.String("event", res.Event.URLName),
			zap.String("helper_id", res.Helper.ID.Hex()))
	}

	data := validatePageData{Event: res.Event, AlreadyValidated: already}
	formutil.SetBase(&data.Base, r, res.Event.Name, "/")
	h.Render(w, r, "registration_validate", data)
}

func registeredDays(shifts []models.Shift, jobs []models.Job) []registeredDay {
	names := make(map[string]string, len(jobs))
	for _, j := range jobs {
		names[j.ID.Hex()] = j.Name
	}
	var out []registeredDay
	for _, d := range schedule.ShiftsByDay(shifts) {
		rd := registeredDay{Date: d.Date.Format("Monday, 2 January 2006")}
		for _, sh := range d.Shifts {
			rd.Shifts = append(rd.Shifts, registeredShift{
				Job:  names[sh.JobID.Hex()],
				Name: sh.Name,
				Time: sh.Begin.Format("15:04") + " - " + sh.End.Format("15:04"),
			})
		}
		out = append(out, rd)
	}
	return out
}
