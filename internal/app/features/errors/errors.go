// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/waffle/pantry/templates"
)

// RenderFunc renders a named template. templates.Render in production.
type RenderFunc func(w http.ResponseWriter, r *http.Request, name string, data any)

// PageData is the view model for error pages.
type PageData struct {
	formutil.Base
	Message string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct {
	Render RenderFunc
}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{Render: templates.Render}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, h.Render, "You don't have permission to view this page.", "/")
}

// NotFound renders the 404 page for unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	data := PageData{Message: "The page you are looking for does not exist."}
	formutil.SetBase(&data.Base, r, "Not found", "/")
	w.WriteHeader(http.StatusNotFound)
	h.Render(w, r, "error_not_found", data)
}
