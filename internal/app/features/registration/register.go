// internal/app/features/registration/register.go
package registration

import (
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/helferhub/internal/app/features/errors"
	"github.com/dalemusser/helferhub/internal/app/store/links"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/helferhub/internal/app/system/limits"
	"github.com/dalemusser/helferhub/internal/app/system/ratelimit"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MailFailedMessage is flashed when the confirmation could not be sent.
const MailFailedMessage = "Sending the mail failed, but the registration was saved."

type eventPageData struct {
	formutil.Base
	Event models.Event
}

type formPageData struct {
	formutil.Base
	Event      models.Event
	Link       bool
	Jobs       []jobChoice
	Input      RegisterInput
	Errors     map[string]string
	ShirtSizes []string
}

// ServeForm handles GET and POST of /{event}/registration[/{link}].
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "registration form")
	defer cancel()

	ev, err := h.Events.GetByURLName(ctx, chi.URLParam(r, "event"))
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load event failed", err, "A database error occurred.", "/")
		return
	}

	var link *models.Link
	if token := chi.URLParam(r, "link"); token != "" {
		l, err := h.Links.GetByID(ctx, token)
		switch {
		case errors.Is(err, links.ErrMalformedToken), errors.Is(err, mongo.ErrNoDocuments):
			data := eventPageData{Event: ev}
			formutil.SetBase(&data.Base, r, ev.Name, "/")
			h.Render(w, r, "registration_invalid_link", data)
			return
		case err != nil:
			h.ErrLog.LogServerError(w, r, "load link failed", err, "A database error occurred.", "/")
			return
		}
		if l.EventID != ev.ID {
			http.NotFound(w, r)
			return
		}
		link = &l
	}

	jobs, err := h.Jobs.ListByEvent(ctx, ev.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load jobs failed", err, "A database error occurred.", "/")
		return
	}

	if !ev.Active && link == nil {
		p := auth.PrincipalFrom(r)
		if !p.Authenticated() {
			data := eventPageData{Event: ev}
			formutil.SetBase(&data.Base, r, ev.Name, "/")
			h.Render(w, r, "registration_not_active", data)
			return
		}
		if !ev.IsInvolved(p, jobs) {
			uierrors.RenderForbidden(w, r, h.Render, "You are not allowed to register helpers for this event.", "/")
			return
		}
	}

	var offered []models.Shift
	if link != nil {
		offered, err = h.Shifts.ListByIDs(ctx, link.Shifts)
	} else {
		offered, err = h.Shifts.ListByEvent(ctx, ev.ID)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load shifts failed", err, "A database error occurred.", "/")
		return
	}

	form := NewRegisterForm(ev, jobs, onlyEvent(offered, ev.ID), link != nil)
	counts, err := h.Helpers.CountByShifts(ctx, form.OfferedIDs())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count helpers failed", err, "A database error occurred.", "/")
		return
	}

	if r.Method == http.MethodPost {
		if h.Throttle != nil && !h.Throttle.Allow(ratelimit.ClientIP(r)) {
			h.ErrLog.LogTooManyRequests(w, r, "registration throttled",
				"Too many registrations from your network. Please try again later.", r.URL.Path)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxRegistrationFormSize)
		if err := form.Bind(r); err != nil {
			h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", r.URL.Path)
			return
		}

		var existing []models.Helper
		if form.Input.Email != "" {
			existing, err = h.Helpers.ListByEmail(ctx, ev.ID, form.Input.Email)
			if err != nil {
				h.ErrLog.LogServerError(w, r, "check duplicate registration failed", err, "A database error occurred.", "/")
				return
			}
		}

		if form.Validate(counts, existing) {
			helper, err := h.Helpers.Create(ctx, form.Helper(time.Now().UTC()))
			if err != nil {
				h.ErrLog.LogServerError(w, r, "create helper failed", err, "Your registration could not be saved.", r.URL.Path)
				return
			}
			h.Log.Info("helper registered",
				zap.String("event", ev.URLName),
				zap.String("helper_id", helper.ID.Hex()),
				zap.Int("shifts", len(helper.Shifts)),
				zap.Bool("link", link != nil))

			h.sendConfirmation(w, r, ev, helper)

			http.Redirect(w, r, "/"+ev.URLName+"/registered/"+helper.ID.Hex(), http.StatusSeeOther)
			return
		}
	}

	data := formPageData{
		Event:      ev,
		Link:       link != nil,
		Jobs:       form.Choices(counts),
		Input:      form.Input,
		Errors:     form.Errors.ByField(),
		ShirtSizes: ShirtSizes,
	}
	formutil.SetBase(&data.Base, r, ev.Name, "/")
	if form.Errors.HasErrors() {
		data.SetError("Please correct the errors below.")
	}
	h.Render(w, r, "registration_form", data)
}

// sendConfirmation mails the helper. A failed mail never undoes the
// registration; it is recorded on the helper and flashed instead.
func (h *Handler) sendConfirmation(w http.ResponseWriter, r *http.Request, ev models.Event, helper models.Helper) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "registration mail")
	defer cancel()

	err := h.Notify.SendRegistration(ctx, ev, helper, false)
	if err == nil {
		return
	}
	h.Log.Warn("registration mail failed",
		zap.String("event", ev.URLName),
		zap.String("helper_id", helper.ID.Hex()),
		zap.Error(err))

	rctx, rcancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "record mail failure")
	defer rcancel()
	if err := h.Helpers.SetMailFailed(rctx, helper.ID, err.Error()); err != nil {
		h.Log.Error("record mail failure", zap.String("helper_id", helper.ID.Hex()), zap.Error(err))
	}
	if err := h.Flash.AddFlash(w, r, auth.FlashError, MailFailedMessage); err != nil {
		h.Log.Error("store flash", zap.Error(err))
	}
}

// onlyEvent drops shifts that belong to another event. Links are scoped to
// one event, but their shift list is not enforced by the store.
func onlyEvent(shifts []models.Shift, eventID primitive.ObjectID) []models.Shift {
	out := shifts[:0:0]
	for _, sh := range shifts {
		if sh.EventID == eventID {
			out = append(out, sh)
		}
	}
	return out
}
