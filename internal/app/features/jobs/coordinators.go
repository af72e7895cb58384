// internal/app/features/jobs/coordinators.go
package jobs

import (
	"errors"
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/inputval"
	"github.com/dalemusser/helferhub/internal/app/system/lookup"
	"github.com/dalemusser/helferhub/internal/app/system/navigation"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type addCoordinatorInput struct {
	Helper string `validate:"required,objectid" label:"Helper"`
}

// HandleAddCoordinator makes a helper of the event a coordinator of the job.
// POST /manage/{event}/jobs/{job}/coordinators
func (h *Handler) HandleAddCoordinator(w http.ResponseWriter, r *http.Request) {
	ev, job, ok := h.resolveJob(w, r)
	if !ok {
		return
	}
	back := "/manage/" + ev.URLName + "/jobs/" + job.ID.Hex()

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}
	back = navigation.SafeBackURL(r, navigation.ManageBackURL(ev.URLName, back))
	in := addCoordinatorInput{Helper: r.PostFormValue("helper")}
	if res := inputval.Validate(in); res.HasErrors() {
		h.flash(w, r, auth.FlashError, res.First())
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if ev.Archived {
		h.flash(w, r, auth.FlashError, "Archived events can not be changed.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add coordinator")
	defer cancel()

	res, err := h.resolver().Resolve(ctx, lookup.Query{Event: ev.URLName, Helper: in.Helper})
	if errors.Is(err, lookup.ErrNotFound) {
		h.flash(w, r, auth.FlashError, "This helper is not registered for the event.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve helper failed", err, "A database error occurred.", back)
		return
	}

	helperID, _ := primitive.ObjectIDFromHex(in.Helper)
	if err := h.Jobs.AddCoordinator(ctx, job.ID, helperID); err != nil {
		h.ErrLog.LogServerError(w, r, "add coordinator failed", err, "The coordinator could not be added.", back)
		return
	}
	actor := auth.PrincipalFrom(r).UserID
	h.Log.Info("coordinator added",
		zap.String("event", ev.URLName),
		zap.String("job_id", job.ID.Hex()),
		zap.String("helper_id", helperID.Hex()),
		zap.String("by", actor.Hex()))
	h.Audit.CoordinatorAdded(ctx, r, actor, ev.URLName, job.ID, helperID)

	h.flash(w, r, auth.FlashSuccess, res.Helper.FullName()+" is now a coordinator.")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, level, msg string) {
	if err := h.Flash.AddFlash(w, r, level, msg); err != nil {
		h.Log.Error("store flash", zap.Error(err))
	}
}
