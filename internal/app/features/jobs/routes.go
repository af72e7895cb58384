// internal/app/features/jobs/routes.go
package jobs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /manage. requireSignedIn guards every page.
func Routes(h *Handler, requireSignedIn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireSignedIn)
	r.Get("/{event}/jobs/{job}", h.ServeRoster)
	r.Get("/{event}/jobs/{job}/roster.csv", h.ServeRosterCSV)
	r.Post("/{event}/jobs/{job}/coordinators", h.HandleAddCoordinator)
	return r
}
