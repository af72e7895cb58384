// internal/app/features/registration/routes.go
package registration

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeIndex)

	r.Route("/{event}", func(r chi.Router) {
		r.Get("/registration", h.ServeForm)
		r.Post("/registration", h.ServeForm)
		r.Get("/registration/{link}", h.ServeForm)
		r.Post("/registration/{link}", h.ServeForm)

		r.Get("/registered/{helper}", h.ServeRegistered)

		r.Get("/validate/{helper}", h.ServeValidate)
		r.Post("/validate/{helper}", h.ServeValidate)
	})
	return r
}
