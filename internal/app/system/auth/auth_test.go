package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// carry copies the cookies set on rec into a fresh request.
func carry(rec *httptest.ResponseRecorder, path string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewSessionManager_SecureRequiresKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, true, zap.NewNop()); err == nil {
		t.Error("expected error for empty key in secure mode")
	}
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err != nil {
		t.Errorf("dev mode should fall back to a random key: %v", err)
	}
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/manage/fest/jobs/1", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?return=") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/data", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/manage", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", rec.Header().Get("HX-Redirect"))
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)
	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := auth.WithTestUser(httptest.NewRequest("GET", "/manage", nil), &auth.SessionUser{ID: primitive.NewObjectID().Hex()})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected handler to be called")
	}
}

func TestSignIn_LoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	id := primitive.NewObjectID()

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{
		ID: id.Hex(), Name: "Olga Organizer", LoginID: "olga", Superuser: true,
	}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	var got *auth.SessionUser
	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
		p := auth.PrincipalFrom(r)
		if p.UserID != id || !p.Superuser {
			t.Errorf("PrincipalFrom = %+v", p)
		}
	})).ServeHTTP(httptest.NewRecorder(), carry(rec, "/"))

	if got == nil || got.Name != "Olga Organizer" || got.LoginID != "olga" {
		t.Fatalf("CurrentUser = %+v", got)
	}
}

type nilFetcher struct{}

func (nilFetcher) FetchUser(context.Context, string) *auth.SessionUser { return nil }

func TestLoadSessionUser_FetcherCanRevoke(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(nilFetcher{})

	rec := httptest.NewRecorder()
	_ = sm.SignIn(rec, httptest.NewRequest("POST", "/login", nil), auth.SessionUser{ID: primitive.NewObjectID().Hex()})

	sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.CurrentUser(r); ok {
			t.Error("expected deleted user to be signed out")
		}
	})).ServeHTTP(httptest.NewRecorder(), carry(rec, "/"))
}

func TestFlashes_RoundTripAndClear(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.AddFlash(rec, httptest.NewRequest("POST", "/", nil), auth.FlashError, "mail failed"); err != nil {
		t.Fatalf("AddFlash: %v", err)
	}

	rec2 := httptest.NewRecorder()
	flashes := sm.Flashes(rec2, carry(rec, "/"))
	if len(flashes) != 1 || flashes[0].Level != auth.FlashError || flashes[0].Message != "mail failed" {
		t.Fatalf("Flashes = %+v", flashes)
	}

	if again := sm.Flashes(httptest.NewRecorder(), carry(rec2, "/")); len(again) != 0 {
		t.Errorf("expected flashes cleared, got %+v", again)
	}
}

func TestPrincipalFrom_Anonymous(t *testing.T) {
	p := auth.PrincipalFrom(httptest.NewRequest("GET", "/", nil))
	if p.Authenticated() {
		t.Errorf("expected anonymous principal, got %+v", p)
	}
}
