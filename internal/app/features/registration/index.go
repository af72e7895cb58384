// internal/app/features/registration/index.go
package registration

import (
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/domain/models"
)

type indexPageData struct {
	formutil.Base
	ActiveEvents   []models.Event
	InvolvedEvents []models.Event
}

// ServeIndex lists events open for registration and, for signed-in
// organizers, the inactive events they are involved in.
// GET /
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "event index")
	defer cancel()

	events, err := h.Events.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list events failed", err, "A database error occurred.", "")
		return
	}

	p := auth.PrincipalFrom(r)
	var data indexPageData
	for _, ev := range events {
		if ev.Active {
			data.ActiveEvents = append(data.ActiveEvents, ev)
			continue
		}
		if !p.Authenticated() {
			continue
		}
		involved := ev.IsAdmin(p)
		if !involved {
			jobs, err := h.Jobs.ListByEvent(ctx, ev.ID)
			if err != nil {
				h.ErrLog.LogServerError(w, r, "list jobs failed", err, "A database error occurred.", "")
				return
			}
			involved = ev.IsInvolved(p, jobs)
		}
		if involved {
			data.InvolvedEvents = append(data.InvolvedEvents, ev)
		}
	}

	formutil.SetBase(&data.Base, r, "Events", "/")
	data.Flashes = h.Flash.Flashes(w, r)
	h.Render(w, r, "registration_index", data)
}
