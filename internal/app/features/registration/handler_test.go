package registration_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/helferhub/internal/app/features/errors"
	"github.com/dalemusser/helferhub/internal/app/features/registration"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/mailer"
	"github.com/dalemusser/helferhub/internal/app/system/ratelimit"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/testutil"
	"github.com/dalemusser/helferhub/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	err  error
	sent []models.Helper
}

func (f *fakeNotifier) SendRegistration(_ context.Context, _ models.Event, h models.Helper, _ bool) error {
	f.sent = append(f.sent, h)
	return f.err
}

type fakeFlash struct {
	pending []auth.Flash
}

func (f *fakeFlash) AddFlash(_ http.ResponseWriter, _ *http.Request, level, msg string) error {
	f.pending = append(f.pending, auth.Flash{Level: level, Message: msg})
	return nil
}

func (f *fakeFlash) Flashes(_ http.ResponseWriter, _ *http.Request) []auth.Flash {
	out := f.pending
	f.pending = nil
	return out
}

type testEnv struct {
	db     *memstore.DB
	router http.Handler
	spy    *testutil.RenderSpy
	notify *fakeNotifier
	flash  *fakeFlash
	h      *registration.Handler

	ev    models.Event
	job   models.Job
	shift models.Shift
}

var day = time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, mutate func(*models.Event)) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := memstore.New()

	ev := models.Event{URLName: "fest", Name: "Summer Fest", Active: true}
	if mutate != nil {
		mutate(&ev)
	}
	ev, err := db.Events().Create(ctx, ev)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	job := models.Job{EventID: ev.ID, Name: "Bar", Public: true}
	if err := db.Jobs().Save(ctx, ev, &job); err != nil {
		t.Fatalf("save job: %v", err)
	}
	shift, _ := db.Shifts().Create(ctx, models.Shift{
		JobID: job.ID, EventID: ev.ID,
		Begin: day.Add(18 * time.Hour), End: day.Add(22 * time.Hour),
		NumberOfHelpers: 2,
	})

	spy := &testutil.RenderSpy{}
	notify := &fakeNotifier{}
	flash := &fakeFlash{}
	errLog := &uierrors.ErrorLogger{Log: zap.NewNop(), Render: spy.Render}

	h := registration.NewHandler(registration.Stores{
		Events:  db.Events(),
		Jobs:    db.Jobs(),
		Shifts:  db.Shifts(),
		Helpers: db.Helpers(),
		Links:   db.Links(),
		News:    db.News(),
	}, notify, flash, errLog, zap.NewNop())
	h.Render = spy.Render

	return &testEnv{
		db: db, router: registration.Routes(h), spy: spy, notify: notify, flash: flash, h: h,
		ev: ev, job: job, shift: shift,
	}
}

func (e *testEnv) addShift(t *testing.T, job models.Job, begin time.Time, hours int, helpers int, blocked bool) models.Shift {
	t.Helper()
	sh, err := e.db.Shifts().Create(context.Background(), models.Shift{
		JobID: job.ID, EventID: job.EventID,
		Begin: begin, End: begin.Add(time.Duration(hours) * time.Hour),
		NumberOfHelpers: helpers, Blocked: blocked,
	})
	if err != nil {
		t.Fatalf("create shift: %v", err)
	}
	return sh
}

func (e *testEnv) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func validForm(shifts ...models.Shift) url.Values {
	v := url.Values{
		"firstname":         {"Ada"},
		"surname":           {"Lovelace"},
		"email":             {"Ada@Example.org"},
		"privacy_statement": {"on"},
	}
	for _, sh := range shifts {
		v.Add("shifts", sh.ID.Hex())
	}
	return v
}

func formErrors(t *testing.T, spy *testutil.RenderSpy) map[string]string {
	t.Helper()
	last := spy.Last()
	if last.Name != "registration_form" {
		t.Fatalf("rendered %q, want registration_form", last.Name)
	}
	v := reflectField(t, last.Data, "Errors")
	m, _ := v.(map[string]string)
	return m
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(testutil.NewFormRequest("/fest/registration", validForm(env.shift)))

	helpers := env.db.Helpers().All()
	if len(helpers) != 1 {
		t.Fatalf("stored %d helpers, want 1", len(helpers))
	}
	h := helpers[0]
	rec.AssertRedirect(t, "/fest/registered/"+h.ID.Hex())

	if h.Email != "ada@example.org" {
		t.Errorf("email = %q, want normalized address", h.Email)
	}
	if len(h.Shifts) != 1 || h.Shifts[0] != env.shift.ID {
		t.Errorf("shifts = %v", h.Shifts)
	}
	if !h.Validated {
		t.Error("helper should be validated when mail validation is off")
	}
	if len(env.notify.sent) != 1 {
		t.Errorf("sent %d mails, want 1", len(env.notify.sent))
	}

	rec = env.do(httptest.NewRequest("GET", "/fest/registered/"+h.ID.Hex(), nil))
	rec.AssertStatus(t, http.StatusOK)
	if got := env.spy.Last().Name; got != "registration_registered" {
		t.Errorf("rendered %q", got)
	}
}

func TestRegister_Throttled(t *testing.T) {
	env := newTestEnv(t, nil)
	env.h.Throttle = ratelimit.New(1, time.Hour)

	env.do(testutil.NewFormRequest("/fest/registration", validForm(env.shift)))
	form := validForm(env.shift)
	form.Set("email", "grace@example.org")
	rec := env.do(testutil.NewFormRequest("/fest/registration", form))

	rec.AssertStatus(t, http.StatusTooManyRequests)
	if n := len(env.db.Helpers().All()); n != 1 {
		t.Errorf("stored %d helpers, want 1", n)
	}

	// Viewing the form is never throttled.
	rec = env.do(httptest.NewRequest("GET", "/fest/registration", nil))
	rec.AssertStatus(t, http.StatusOK)
}

func TestRegister_MailValidationLeavesHelperUnvalidated(t *testing.T) {
	env := newTestEnv(t, func(e *models.Event) { e.MailValidation = true })

	env.do(testutil.NewFormRequest("/fest/registration", validForm(env.shift)))

	if h := env.db.Helpers().All(); len(h) != 1 || h[0].Validated {
		t.Fatalf("unexpected helpers: %+v", h)
	}
}

func TestForm_InactiveEventAnonymous(t *testing.T) {
	env := newTestEnv(t, func(e *models.Event) { e.Active = false })

	rec := env.do(httptest.NewRequest("GET", "/fest/registration", nil))
	rec.AssertStatus(t, http.StatusOK)
	if got := env.spy.Last().Name; got != "registration_not_active" {
		t.Errorf("rendered %q, want registration_not_active", got)
	}

	env.do(testutil.NewFormRequest("/fest/registration", validForm(env.shift)))
	if n := len(env.db.Helpers().All()); n != 0 {
		t.Errorf("stored %d helpers for an inactive event", n)
	}
}

func TestForm_InactiveEventNotInvolved(t *testing.T) {
	env := newTestEnv(t, func(e *models.Event) { e.Active = false })

	req := testutil.WithUser(httptest.NewRequest("GET", "/fest/registration", nil), testutil.OrganizerUser())
	rec := env.do(req)

	rec.AssertStatus(t, http.StatusForbidden)
	if got := env.spy.Last().Name; got != "error_forbidden" {
		t.Errorf("rendered %q, want error_forbidden", got)
	}
}

func TestForm_InactiveEventJobAdmin(t *testing.T) {
	user := testutil.OrganizerUser()
	env := newTestEnv(t, func(e *models.Event) { e.Active = false })
	env.job.JobAdmins = []primitive.ObjectID{user.ObjectID()}
	if err := env.db.Jobs().Save(context.Background(), env.ev, &env.job); err != nil {
		t.Fatal(err)
	}

	rec := env.do(testutil.WithUser(httptest.NewRequest("GET", "/fest/registration", nil), user))

	rec.AssertStatus(t, http.StatusOK)
	if got := env.spy.Last().Name; got != "registration_form" {
		t.Errorf("rendered %q, want registration_form", got)
	}
}

func TestForm_UnknownEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(httptest.NewRequest("GET", "/nope/registration", nil))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestForm_LinkOfOtherEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	other, _ := env.db.Events().Create(ctx, models.Event{URLName: "other", Name: "Other", Active: true})
	link, _ := env.db.Links().Create(ctx, models.Link{EventID: other.ID})

	rec := env.do(testutil.NewFormRequest("/fest/registration/"+link.ID, validForm(env.shift)))

	rec.AssertStatus(t, http.StatusNotFound)
	if n := len(env.db.Helpers().All()); n != 0 {
		t.Errorf("stored %d helpers", n)
	}
}

func TestForm_InvalidLink(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, token := range []string{"not-a-uuid", "0b7e3c1e-7f55-4a5c-9d0b-6c9a1d8e2f10"} {
		rec := env.do(httptest.NewRequest("GET", "/fest/registration/"+token, nil))
		rec.AssertStatus(t, http.StatusOK)
		if got := env.spy.Last().Name; got != "registration_invalid_link" {
			t.Errorf("token %q: rendered %q, want registration_invalid_link", token, got)
		}
	}
}

func TestForm_LinkOffersBlockedShiftOnInactiveEvent(t *testing.T) {
	env := newTestEnv(t, func(e *models.Event) { e.Active = false })
	blocked := env.addShift(t, env.job, day.Add(10*time.Hour), 2, 1, true)
	link, _ := env.db.Links().Create(context.Background(), models.Link{
		EventID: env.ev.ID, Shifts: []primitive.ObjectID{blocked.ID},
	})

	rec := env.do(testutil.NewFormRequest("/fest/registration/"+link.ID, validForm(blocked)))

	helpers := env.db.Helpers().All()
	if len(helpers) != 1 {
		t.Fatalf("stored %d helpers, want 1 (rendered %q)", len(helpers), env.spy.Last().Name)
	}
	rec.AssertRedirect(t, "/fest/registered/"+helpers[0].ID.Hex())
}

func TestForm_MailFailureKeepsRegistration(t *testing.T) {
	env := newTestEnv(t, nil)
	env.notify.err = &mailer.DeliveryError{Backend: "smtp", Err: errors.New("connection refused")}

	rec := env.do(testutil.NewFormRequest("/fest/registration", validForm(env.shift)))

	helpers := env.db.Helpers().All()
	if len(helpers) != 1 {
		t.Fatalf("stored %d helpers, want 1", len(helpers))
	}
	rec.AssertRedirect(t, "/fest/registered/"+helpers[0].ID.Hex())
	if helpers[0].MailFailed == "" {
		t.Error("mail failure not recorded on helper")
	}

	flashes := env.flash.pending
	if len(flashes) != 1 || flashes[0].Level != auth.FlashError || flashes[0].Message != registration.MailFailedMessage {
		t.Errorf("flashes = %+v", flashes)
	}
}

func TestForm_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, env *testEnv) url.Values
		field string
	}{
		{
			name: "missing privacy statement",
			setup: func(t *testing.T, env *testEnv) url.Values {
				v := validForm(env.shift)
				v.Del("privacy_statement")
				return v
			},
			field: "PrivacyStatement",
		},
		{
			name: "invalid email",
			setup: func(t *testing.T, env *testEnv) url.Values {
				v := validForm(env.shift)
				v.Set("email", "not-an-address")
				return v
			},
			field: "Email",
		},
		{
			name: "no shifts",
			setup: func(t *testing.T, env *testEnv) url.Values {
				return validForm()
			},
			field: "Shifts",
		},
		{
			name: "blocked shift without link",
			setup: func(t *testing.T, env *testEnv) url.Values {
				return validForm(env.addShift(t, env.job, day.Add(8*time.Hour), 2, 1, true))
			},
			field: "Shifts",
		},
		{
			name: "full shift",
			setup: func(t *testing.T, env *testEnv) url.Values {
				sh := env.addShift(t, env.job, day.Add(8*time.Hour), 2, 1, false)
				_, _ = env.db.Helpers().Create(context.Background(), models.Helper{
					EventID: env.ev.ID, Email: "someone@example.org", Shifts: []primitive.ObjectID{sh.ID},
				})
				return validForm(sh)
			},
			field: "Shifts",
		},
		{
			name: "overlapping shifts",
			setup: func(t *testing.T, env *testEnv) url.Values {
				sh := env.addShift(t, env.job, day.Add(20*time.Hour), 3, 0, false)
				return validForm(env.shift, sh)
			},
			field: "Shifts",
		},
		{
			name: "duplicate registration",
			setup: func(t *testing.T, env *testEnv) url.Values {
				_, _ = env.db.Helpers().Create(context.Background(), models.Helper{
					EventID: env.ev.ID, Email: "ada@example.org",
				})
				return validForm(env.shift)
			},
			field: "Email",
		},
		{
			name: "infection instruction required",
			setup: func(t *testing.T, env *testEnv) url.Values {
				food := models.Job{EventID: env.ev.ID, Name: "Kitchen", Public: true, InfectionInstruction: true}
				if err := env.db.Jobs().Save(context.Background(), env.ev, &food); err != nil {
					t.Fatal(err)
				}
				return validForm(env.addShift(t, food, day.Add(8*time.Hour), 2, 2, false))
			},
			field: "InfectionInstruction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			form := tt.setup(t, env)
			before := len(env.db.Helpers().All())

			rec := env.do(testutil.NewFormRequest("/fest/registration", form))

			rec.AssertStatus(t, http.StatusOK)
			if _, ok := formErrors(t, env.spy)[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, formErrors(t, env.spy))
			}
			if n := len(env.db.Helpers().All()); n != before {
				t.Errorf("helpers changed from %d to %d", before, n)
			}
			if len(env.notify.sent) != 0 {
				t.Error("mail sent for invalid submission")
			}
		})
	}
}

func TestForm_InfectionInstructionProvided(t *testing.T) {
	env := newTestEnv(t, nil)
	food := models.Job{EventID: env.ev.ID, Name: "Kitchen", Public: true, InfectionInstruction: true}
	if err := env.db.Jobs().Save(context.Background(), env.ev, &food); err != nil {
		t.Fatal(err)
	}
	v := validForm(env.addShift(t, food, day.Add(8*time.Hour), 2, 2, false))
	v.Set("infection_instruction", models.InfectionInstructionNeeded)

	rec := env.do(testutil.NewFormRequest("/fest/registration", v))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, rendered %q", rec.Code, env.spy.Last().Name)
	}
}

func TestValidate_Twice(t *testing.T) {
	env := newTestEnv(t, func(e *models.Event) { e.MailValidation = true })
	h, _ := env.db.Helpers().Create(context.Background(), models.Helper{EventID: env.ev.ID, Email: "a@example.org"})
	target := "/fest/validate/" + h.ID.Hex()

	for i, wantAlready := range []bool{false, true} {
		rec := env.do(httptest.NewRequest("GET", target, nil))
		rec.AssertStatus(t, http.StatusOK)

		last := env.spy.Last()
		if last.Name != "registration_validate" {
			t.Fatalf("call %d: rendered %q", i, last.Name)
		}
		if got := reflectField(t, last.Data, "AlreadyValidated"); got != wantAlready {
			t.Errorf("call %d: AlreadyValidated = %v, want %v", i, got, wantAlready)
		}
		stored, _ := env.db.Helpers().GetByID(context.Background(), h.ID)
		if !stored.Validated {
			t.Errorf("call %d: helper not validated", i)
		}
	}
}

func TestValidate_DisabledIsNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	h, _ := env.db.Helpers().Create(context.Background(), models.Helper{EventID: env.ev.ID, Email: "a@example.org"})

	rec := env.do(httptest.NewRequest("GET", "/fest/validate/"+h.ID.Hex(), nil))

	rec.AssertStatus(t, http.StatusNotFound)
	stored, _ := env.db.Helpers().GetByID(context.Background(), h.ID)
	if stored.Validated {
		t.Error("helper validated although validation is disabled")
	}
}

func TestRegistered_HelperOfOtherEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	other, _ := env.db.Events().Create(context.Background(), models.Event{URLName: "other"})
	h, _ := env.db.Helpers().Create(context.Background(), models.Helper{EventID: other.ID})

	for _, target := range []string{
		"/fest/registered/" + h.ID.Hex(),
		"/fest/registered/garbage",
	} {
		rec := env.do(httptest.NewRequest("GET", target, nil))
		rec.AssertStatus(t, http.StatusNotFound)
	}
}

func TestRegistered_ShowsFlashAndNews(t *testing.T) {
	env := newTestEnv(t, nil)
	env.db.News().Subscribe("known@example.org")
	h, _ := env.db.Helpers().Create(context.Background(), models.Helper{
		EventID: env.ev.ID, Email: "known@example.org", Shifts: []primitive.ObjectID{env.shift.ID},
	})
	env.flash.pending = []auth.Flash{{Level: auth.FlashError, Message: registration.MailFailedMessage}}

	env.do(httptest.NewRequest("GET", "/fest/registered/"+h.ID.Hex(), nil))

	data := env.spy.Last().Data
	if news := reflectField(t, data, "News"); news != false {
		t.Errorf("News = %v for a subscribed address", news)
	}
	flashes, _ := reflectField(t, data, "Flashes").([]auth.Flash)
	if len(flashes) != 1 {
		t.Errorf("flashes = %v", flashes)
	}
}

func TestIndex_ListsActiveAndInvolvedEvents(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.OrganizerUser()
	ctx := context.Background()
	_, _ = env.db.Events().Create(ctx, models.Event{URLName: "closed", Name: "Closed"})
	_, _ = env.db.Events().Create(ctx, models.Event{URLName: "mine", Name: "Mine", Admins: []primitive.ObjectID{user.ObjectID()}})

	env.do(httptest.NewRequest("GET", "/", nil))
	if got := names(t, env.spy.Last().Data, "InvolvedEvents"); got != "" {
		t.Errorf("anonymous involved events = %q", got)
	}
	if got := names(t, env.spy.Last().Data, "ActiveEvents"); got != "fest" {
		t.Errorf("active events = %q", got)
	}

	env.do(testutil.WithUser(httptest.NewRequest("GET", "/", nil), user))
	if got := names(t, env.spy.Last().Data, "InvolvedEvents"); got != "mine" {
		t.Errorf("involved events = %q", got)
	}
}

func names(t *testing.T, data any, field string) string {
	t.Helper()
	events, _ := reflectField(t, data, field).([]models.Event)
	var out []string
	for _, e := range events {
		out = append(out, e.URLName)
	}
	return strings.Join(out, ",")
}
