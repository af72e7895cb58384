// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/helferhub/internal/app/features/errors"
	userstore "github.com/dalemusser/helferhub/internal/app/store/users"
	"github.com/dalemusser/helferhub/internal/app/system/auditlog"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/formutil"
	"github.com/dalemusser/helferhub/internal/app/system/limits"
	"github.com/dalemusser/helferhub/internal/app/system/normalize"
	"github.com/dalemusser/helferhub/internal/app/system/ratelimit"
	"github.com/dalemusser/helferhub/internal/app/system/timeouts"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// Authenticator checks a login id and password. Unknown users and wrong
// passwords both yield userstore.ErrBadCredentials.
type Authenticator interface {
	Authenticate(ctx context.Context, loginID, password string) (models.User, error)
}

// Sessions signs organizers in and out.
type Sessions interface {
	SignIn(w http.ResponseWriter, r *http.Request, u auth.SessionUser) error
	SignOut(w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	Users    Authenticator
	Sessions Sessions
	Limiter  *ratelimit.LoginLimiter
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	Render   uierrors.RenderFunc
}

func NewHandler(users Authenticator, sessions Sessions, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Sessions: sessions,
		Limiter:  ratelimit.NewLoginLimiter(),
		Audit:    audit,
		ErrLog:   errLog,
		Log:      logger,
		Render:   templates.Render,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	formutil.Base
	LoginID   string // What the user typed
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{ReturnURL: query.Get(r, "return")}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	h.Render(w, r, "login", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	loginID := normalize.LoginID(r.PostFormValue("login_id"))
	password := r.PostFormValue("password")
	returnURL := r.PostFormValue("return")
	if loginID == "" || password == "" {
		h.renderFormWithError(w, r, "Please enter your login ID and password.", loginID, returnURL)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "authenticate")
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, loginID); !ok {
			h.Audit.LoginRateLimited(ctx, r, loginID)
			w.WriteHeader(http.StatusTooManyRequests)
			h.renderFormWithError(w, r, msg, loginID, returnURL)
			return
		}
	}

	u, err := h.Users.Authenticate(ctx, loginID, password)
	if errors.Is(err, userstore.ErrBadCredentials) {
		h.Log.Info("login failed", zap.String("login_id", loginID))
		h.Audit.LoginFailed(ctx, r, loginID)
		h.renderFormWithError(w, r, "Invalid login ID or password.", loginID, returnURL)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "authenticate failed", err, "A server error occurred.", "/login")
		return
	}

	su := auth.SessionUser{
		ID:        u.ID.Hex(),
		Name:      u.FullName,
		LoginID:   u.LoginID,
		Superuser: u.Superuser,
	}
	if err := h.Sessions.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("login_id", loginID))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", loginID, returnURL)
		return
	}
	h.Log.Info("login", zap.String("user_id", su.ID), zap.String("login_id", loginID))
	if h.Limiter != nil {
		h.Limiter.ResetAccount(loginID)
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, loginID)

	dest := urlutil.SafeReturn(returnURL, "", "/")
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, loginID, returnURL string) {
	data := loginFormData{LoginID: loginID, ReturnURL: returnURL}
	formutil.SetBase(&data.Base, r, "Sign in", "/")
	data.SetError(msg)
	h.Render(w, r, "login", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /logout                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Audit.Logout(r.Context(), r, u.ID)
	}
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
