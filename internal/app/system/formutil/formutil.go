// Package formutil provides the fields every rendered page needs and helpers
// for re-rendering forms with validation errors.
//
// Embed Base in page data structs:
//
//	type formData struct {
//		formutil.Base
//		Firstname string
//	}
//
//	data := formData{Firstname: in.Firstname}
//	formutil.SetBase(&data.Base, r, "Registration", "/")
//	data.SetError("Please select at least one shift.")
package formutil

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// Base contains common fields for pages that can be embedded in page data structs.
type Base struct {
	Title       string
	IsLoggedIn  bool
	UserName    string
	Superuser   bool
	BackURL     string
	CurrentPath string
	CSRFField   template.HTML
	Flashes     []auth.Flash
	Error       template.HTML
}

// SetBase populates the common Base fields from the request.
//
// Parameters:
//   - b: pointer to the Base struct to populate
//   - r: the HTTP request
//   - title: the page title
//   - backDefault: default URL for the back button if none in request
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.Title = title
	if u, ok := auth.CurrentUser(r); ok {
		b.IsLoggedIn = true
		b.UserName = u.Name
		b.Superuser = u.Superuser
	}
	b.BackURL = httpnav.ResolveBackURL(r, backDefault)
	b.CurrentPath = httpnav.CurrentPath(r)
	b.CSRFField = csrf.TemplateField(r)
}

// SetError sets the error message on a Base struct. The message is escaped.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// HasFlash reports whether a flash of the given level is pending.
func (b *Base) HasFlash(level string) bool {
	for _, f := range b.Flashes {
		if f.Level == level {
			return true
		}
	}
	return false
}
