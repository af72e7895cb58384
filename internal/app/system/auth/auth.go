// Package auth keeps the signed-in organizer and flash messages in a
// gorilla/sessions cookie.
package auth

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	loginIDKey   = "login_id"
	superuserKey = "superuser"
)

// Flash levels, matching the CSS classes used by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	ID        string
	Name      string
	LoginID   string
	Superuser bool
}

// Principal converts the session user into the domain identity.
func (u *SessionUser) Principal() models.Principal {
	if u == nil {
		return models.Principal{}
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return models.Principal{}
	}
	return models.Principal{UserID: oid, Name: u.Name, Superuser: u.Superuser}
}

// UserFetcher reloads a user on each request. Returning nil treats the
// request as signed out.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds the cookie store. An empty key yields a random
// one, so sessions do not survive a restart; that is only acceptable in dev.
// In production (secure=true) cookies are Secure + SameSite=None; over
// plain http in dev they are SameSite=Lax.
func NewSessionManager(key, name, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if name == "" {
		return nil, errors.New("session name is empty")
	}
	raw := []byte(key)
	switch {
	case key == "" && secure:
		return nil, errors.New("session key is empty; provide ≥32 random chars")
	case key == "":
		raw = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not set; using a random key, sessions end on restart")
	case len(key) < 32:
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(raw)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher enables per-request user reloading.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	// A decode error (rotated key, tampered cookie) yields a fresh session.
	sess, _ := sm.store.Get(r, sm.name)
	return sess
}

// SignIn stores u in the session.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess := sm.session(r)
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[loginIDKey] = u.LoginID
	sess.Values[superuserKey] = u.Superuser
	return sess.Save(r, w)
}

// SignOut drops the user from the session, keeping pending flashes.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	for _, k := range []string{userIDKey, userNameKey, loginIDKey, superuserKey} {
		delete(sess.Values, k)
	}
	return sess.Save(r, w)
}

// AddFlash queues a message for the next page.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, level, msg string) error {
	sess := sm.session(r)
	sess.AddFlash(Flash{Level: level, Message: msg})
	return sess.Save(r, w)
}

// Flashes returns and clears the queued messages.
func (sm *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := sm.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("clear flashes", zap.Error(err))
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// LoadSessionUser injects the user into context if they are signed in.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sm.session(r)
		id, _ := sess.Values[userIDKey].(string)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		var u *SessionUser
		if sm.fetcher != nil {
			u = sm.fetcher.FetchUser(r.Context(), id)
		} else {
			name, _ := sess.Values[userNameKey].(string)
			login, _ := sess.Values[loginIDKey].(string)
			super, _ := sess.Values[superuserKey].(bool)
			u = &SessionUser{ID: id, Name: name, LoginID: login, Superuser: super}
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		dest := "/login?return=" + url.QueryEscape(r.URL.RequestURI())
		switch {
		case r.Header.Get("HX-Request") == "true":
			w.Header().Set("HX-Redirect", dest)
			w.WriteHeader(http.StatusUnauthorized)
		case wantsHTML(r):
			http.Redirect(w, r, dest, http.StatusSeeOther)
		default:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	})
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// PrincipalFrom returns the request's principal; anonymous when signed out.
func PrincipalFrom(r *http.Request) models.Principal {
	u, _ := CurrentUser(r)
	return u.Principal()
}

// WithTestUser injects u into the request context. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
