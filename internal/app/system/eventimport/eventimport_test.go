package eventimport_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/helferhub/internal/app/system/eventimport"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const sample = `
url_name: summer-fest
name: Summer Fest
timezone: Europe/Berlin
active: true
badges: true
admins: [orga]
jobs:
  - name: Bar
    public: true
    infection_instruction: true
    description: "<p>Pour drinks</p><script>alert(1)</script>"
    admins: [barlead]
    shifts:
      - begin: 2026-07-01 10:00
        end: 2026-07-01 14:00
        helpers: 4
        name: Setup
      - begin: 2026-07-01 18:00
        duration: 3h
        rrule: FREQ=DAILY;COUNT=3
        helpers: 2
  - name: Gate
    shifts:
      - begin: 2026-07-02 08:00
        duration: 90m
        blocked: true
`

type fakeUsers map[string]primitive.ObjectID

func (f fakeUsers) GetByLoginID(_ context.Context, login string) (models.User, error) {
	id, ok := f[login]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return models.User{ID: id, LoginID: login}, nil
}

func newImporter(db *memstore.DB, users fakeUsers) *eventimport.Importer {
	return eventimport.New(db.Events(), db.Jobs(), db.Shifts(), users, nil, zap.NewNop())
}

func TestImport_CreatesEventJobsAndShifts(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	users := fakeUsers{"orga": primitive.NewObjectID(), "barlead": primitive.NewObjectID()}

	f, err := eventimport.Parse([]byte(sample))
	require.NoError(t, err)

	res, err := newImporter(db, users).Import(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Jobs)
	assert.Equal(t, 5, res.Shifts)

	ev, err := db.Events().GetByURLName(ctx, "summer-fest")
	require.NoError(t, err)
	assert.True(t, ev.Active)
	assert.Equal(t, []primitive.ObjectID{users["orga"]}, ev.Admins)
	assert.Equal(t, "Europe/Berlin", ev.Timezone)

	jobs, err := db.Jobs().ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	bar := jobs[0]
	assert.Equal(t, "Bar", bar.Name)
	assert.Equal(t, "<p>Pour drinks</p>", bar.Description)
	assert.Equal(t, []primitive.ObjectID{users["barlead"]}, bar.JobAdmins)
	assert.NotNil(t, bar.BadgeDefaultsID, "badges enabled, defaults provisioned on save")

	shifts, err := db.Shifts().ListByJob(ctx, bar.ID)
	require.NoError(t, err)
	require.Len(t, shifts, 4)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.True(t, shifts[0].Begin.Equal(time.Date(2026, 7, 1, 10, 0, 0, 0, berlin)))
	assert.Equal(t, 4*time.Hour, shifts[0].End.Sub(shifts[0].Begin))
	for i, day := range []int{1, 2, 3} {
		s := shifts[i+1]
		assert.True(t, s.Begin.Equal(time.Date(2026, 7, day, 18, 0, 0, 0, berlin)), "series %d begins %s", i, s.Begin)
		assert.Equal(t, 3*time.Hour, s.End.Sub(s.Begin))
		assert.Equal(t, 2, s.NumberOfHelpers)
	}

	gate, err := db.Shifts().ListByJob(ctx, jobs[1].ID)
	require.NoError(t, err)
	require.Len(t, gate, 1)
	assert.True(t, gate[0].Blocked)
}

func TestImport_ExistingEvent(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	_, err := db.Events().Create(ctx, models.Event{URLName: "summer-fest"})
	require.NoError(t, err)

	f, err := eventimport.Parse([]byte(sample))
	require.NoError(t, err)

	_, err = newImporter(db, fakeUsers{"orga": primitive.NewObjectID(), "barlead": primitive.NewObjectID()}).Import(ctx, f)
	assert.ErrorIs(t, err, eventimport.ErrExists)
}

func TestImport_UnknownAdmin(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	f, err := eventimport.Parse([]byte(sample))
	require.NoError(t, err)

	_, err = newImporter(db, fakeUsers{}).Import(ctx, f)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	_, err = db.Events().GetByURLName(ctx, "summer-fest")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments, "nothing stored when an admin is unknown")
}

func TestImport_StoreFailure(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	boom := errors.New("boom")
	db.FailOn("events.Create", boom)

	f, err := eventimport.Parse([]byte(sample))
	require.NoError(t, err)
	_, err = newImporter(db, fakeUsers{"orga": primitive.NewObjectID(), "barlead": primitive.NewObjectID()}).Import(ctx, f)
	assert.ErrorIs(t, err, boom)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "url_name: x\njobs: [{name: Bar}]"},
		{"no jobs", "url_name: x\nname: X"},
		{"reserved url name", "url_name: manage\nname: X\njobs: [{name: Bar}]"},
		{"reserved url name any case", "url_name: Login\nname: X\njobs: [{name: Bar}]"},
		{"bad slug", "url_name: Summer Fest\nname: X\njobs: [{name: Bar}]"},
		{"unknown timezone", "url_name: x\nname: X\ntimezone: Mars/Olympus\njobs: [{name: Bar}]"},
		{"shift without length", "url_name: x\nname: X\njobs: [{name: Bar, shifts: [{begin: '2026-07-01 10:00'}]}]"},
		{"shift ends before begin", "url_name: x\nname: X\njobs: [{name: Bar, shifts: [{begin: '2026-07-01 10:00', end: '2026-07-01 09:00'}]}]"},
		{"bad begin", "url_name: x\nname: X\njobs: [{name: Bar, shifts: [{begin: 'tomorrow', duration: 1h}]}]"},
		{"bad rrule", "url_name: x\nname: X\njobs: [{name: Bar, shifts: [{begin: '2026-07-01 10:00', duration: 1h, rrule: 'FREQ=SOMETIMES'}]}]"},
		{"not yaml", "url_name: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventimport.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestOccurrences_CappedSeries(t *testing.T) {
	s := eventimport.ShiftSpec{Begin: "2026-01-01 09:00", Duration: "1h", RRule: "FREQ=DAILY"}
	begins, length, err := s.Occurrences(time.UTC)
	require.NoError(t, err)
	assert.Len(t, begins, eventimport.MaxOccurrences)
	assert.Equal(t, time.Hour, length)
}

func TestIsReserved(t *testing.T) {
	for _, name := range eventimport.ReservedURLNames {
		assert.True(t, eventimport.IsReserved(name), name)
	}
	assert.False(t, eventimport.IsReserved("summer-fest"))
}
