// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ForbiddenData builds the view model for error_forbidden.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func ForbiddenData(r *http.Request, msg, backURL string) PageData {
	data := PageData{Message: msg}
	formutil.SetBase(&data.Base, r, "Access denied", "/")
	if backURL != "" {
		data.BackURL = backURL
	}
	return data
}

// RenderForbidden writes 403 and shows the access error page.
func RenderForbidden(w http.ResponseWriter, r *http.Request, render RenderFunc, msg, backURL string) {
	w.WriteHeader(http.StatusForbidden)
	render(w, r, "error_forbidden", ForbiddenData(r, msg, backURL))
}

// ErrorLogger logs failures and shows a friendly error page instead of a
// bare status text.
type ErrorLogger struct {
	Log    *zap.Logger
	Render RenderFunc
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger, Render: templates.Render}
}

// LogServerError logs err with request context and renders a 500 page.
// userMsg is shown to the user; logMsg and err only go to the log.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.Log.Error(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	e.render(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.Log.Warn(logMsg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	e.render(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL)
}

// LogTooManyRequests logs a throttled request and renders a 429 page.
func (e *ErrorLogger) LogTooManyRequests(w http.ResponseWriter, r *http.Request, logMsg, userMsg, backURL string) {
	e.Log.Warn(logMsg,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	e.render(w, r, http.StatusTooManyRequests, "Too many requests", userMsg, backURL)
}

func (e *ErrorLogger) render(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	data := PageData{Message: msg}
	formutil.SetBase(&data.Base, r, title, "/")
	if backURL != "" {
		data.BackURL = backURL
	}
	w.WriteHeader(status)
	e.Render(w, r, "error_server", data)
}
