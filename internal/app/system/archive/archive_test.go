package archive_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/helferhub/internal/app/store/events"
	"github.com/dalemusser/helferhub/internal/app/store/jobs"
	"github.com/dalemusser/helferhub/internal/app/system/archive"
	"github.com/dalemusser/helferhub/internal/app/system/txn"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/testutil"
	"github.com/dalemusser/helferhub/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func seed(t *testing.T, db *memstore.DB) (models.Event, models.Job, models.Job) {
	t.Helper()
	ctx := context.Background()
	ev, err := db.Events().Create(ctx, models.Event{URLName: "fest", Name: "Fest", Active: true})
	require.NoError(t, err)

	bar := models.Job{Name: "Bar", Coordinators: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}}
	require.NoError(t, db.Jobs().Save(ctx, ev, &bar))
	gate := models.Job{Name: "Gate"}
	require.NoError(t, db.Jobs().Save(ctx, ev, &gate))
	return ev, bar, gate
}

func TestArchive_SnapshotsCoordinators(t *testing.T) {
	db := memstore.New()
	_, bar, gate := seed(t, db)
	svc := archive.New(db.Events(), db.Jobs(), nil, zap.NewNop())

	res, err := svc.Archive(context.Background(), "fest")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Jobs)
	assert.Equal(t, 2, res.Coordinators)
	assert.True(t, res.Event.Archived)

	ev, err := db.Events().GetByURLName(context.Background(), "fest")
	require.NoError(t, err)
	assert.True(t, ev.Archived)
	assert.False(t, ev.Active)

	gotBar, err := db.Jobs().GetByID(context.Background(), bar.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotBar.ArchivedNumberCoordinators)

	// Later coordinator changes no longer affect the shown count.
	require.NoError(t, db.Jobs().AddCoordinator(context.Background(), bar.ID, primitive.NewObjectID()))
	gotBar, err = db.Jobs().GetByID(context.Background(), bar.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotBar.NumCoordinators(ev))

	gotGate, err := db.Jobs().GetByID(context.Background(), gate.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotGate.NumCoordinators(ev))
}

func TestArchive_AlreadyArchived(t *testing.T) {
	db := memstore.New()
	seed(t, db)
	svc := archive.New(db.Events(), db.Jobs(), nil, zap.NewNop())

	_, err := svc.Archive(context.Background(), "fest")
	require.NoError(t, err)
	_, err = svc.Archive(context.Background(), "fest")
	assert.ErrorIs(t, err, archive.ErrAlreadyArchived)
}

func TestArchive_UnknownEvent(t *testing.T) {
	svc := archive.New(memstore.New().Events(), memstore.New().Jobs(), nil, zap.NewNop())
	_, err := svc.Archive(context.Background(), "nope")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestArchive_FailureLeavesEventOpen(t *testing.T) {
	db := memstore.New()
	seed(t, db)
	boom := errors.New("boom")
	db.FailOn("jobs.SetArchivedCoordinators", boom)
	svc := archive.New(db.Events(), db.Jobs(), nil, zap.NewNop())

	_, err := svc.Archive(context.Background(), "fest")
	assert.ErrorIs(t, err, boom)

	ev, err := db.Events().GetByURLName(context.Background(), "fest")
	require.NoError(t, err)
	assert.False(t, ev.Archived)
}

func TestArchive_RunsInsideRunner(t *testing.T) {
	db := memstore.New()
	seed(t, db)
	calls := 0
	run := func(ctx context.Context, fn func(context.Context) error) error {
		calls++
		return fn(ctx)
	}
	svc := archive.New(db.Events(), db.Jobs(), run, zap.NewNop())

	_, err := svc.Archive(context.Background(), "fest")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestArchive_Mongo(t *testing.T) {
	mdb := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, mdb)
	ev := fx.CreateEvent(ctx, "mongo-fest")
	fx.CreateJob(ctx, ev, "Bar", func(j *models.Job) {
		j.Coordinators = []primitive.ObjectID{primitive.NewObjectID()}
	})

	log := zap.NewNop()
	run := func(ctx context.Context, fn func(context.Context) error) error {
		return txn.Run(ctx, mdb, log, fn)
	}
	svc := archive.New(events.New(mdb), jobs.New(mdb), run, log)

	res, err := svc.Archive(ctx, "mongo-fest")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Coordinators)

	got, err := events.New(mdb).GetByURLName(ctx, "mongo-fest")
	require.NoError(t, err)
	assert.True(t, got.Archived)
}
