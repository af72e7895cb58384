package jobs_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/helferhub/internal/app/store/badgedefaults"
	"github.com/dalemusser/helferhub/internal/app/store/jobs"
	"github.com/dalemusser/helferhub/internal/app/system/validators"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestStore_SaveProvisionsBadgeDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobs.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := fixtures.CreateEvent(ctx, "fest", func(e *models.Event) { e.Badges = true })

	job := models.Job{Name: "Bar", Public: true}
	if err := store.Save(ctx, ev, &job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if job.ID.IsZero() || job.BadgeDefaultsID == nil {
		t.Fatalf("expected id and badge defaults, got %+v", job)
	}
	first := *job.BadgeDefaultsID

	if _, err := badgedefaults.New(db).GetByID(ctx, first); err != nil {
		t.Errorf("badge defaults record not stored: %v", err)
	}

	// Saving again keeps the record.
	job.Name = "Bar & Grill"
	if err := store.Save(ctx, ev, &job); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Bar & Grill" || got.BadgeDefaultsID == nil || *got.BadgeDefaultsID != first {
		t.Errorf("unexpected job after update: %+v", got)
	}
}

func TestStore_SaveWithoutBadges(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobs.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := fixtures.CreateEvent(ctx, "fest")
	job := models.Job{Name: "Gate"}
	if err := store.Save(ctx, ev, &job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if job.BadgeDefaultsID != nil {
		t.Error("expected no badge defaults when badges are off")
	}
}

func TestStore_SaveFailureLeavesJobUntouched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobs.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := fixtures.CreateEvent(ctx, "fest", func(e *models.Event) { e.Badges = true })
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// A negative count is rejected by the collection validator.
	job := models.Job{Name: "Bar", ArchivedNumberCoordinators: -1}
	if err := store.Save(ctx, ev, &job); err == nil {
		t.Fatal("expected Save to fail")
	}
	if !job.ID.IsZero() || !job.EventID.IsZero() || !job.CreatedAt.IsZero() || job.BadgeDefaultsID != nil {
		t.Fatalf("job changed by failed save: %+v", job)
	}

	// A retry after fixing the input inserts a fresh job.
	job.ArchivedNumberCoordinators = 0
	if err := store.Save(ctx, ev, &job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Bar" || got.BadgeDefaultsID == nil {
		t.Errorf("unexpected job after retry: %+v", got)
	}
}

func TestStore_CoordinatorsAndArchive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobs.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := fixtures.CreateEvent(ctx, "fest")
	job := fixtures.CreateJob(ctx, ev, "Bar")
	helper := primitive.NewObjectID()

	for i := 0; i < 2; i++ {
		if err := store.AddCoordinator(ctx, job.ID, helper); err != nil {
			t.Fatalf("AddCoordinator failed: %v", err)
		}
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Coordinators) != 1 {
		t.Errorf("expected one coordinator, got %d", len(got.Coordinators))
	}

	if err := store.SetArchivedCoordinators(ctx, job.ID, 7); err != nil {
		t.Fatalf("SetArchivedCoordinators failed: %v", err)
	}
	got, _ = store.GetByID(ctx, job.ID)
	if got.ArchivedNumberCoordinators != 7 {
		t.Errorf("ArchivedNumberCoordinators = %d, want 7", got.ArchivedNumberCoordinators)
	}

	if err := store.AddCoordinator(ctx, primitive.NewObjectID(), helper); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListByEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := jobs.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := fixtures.CreateEvent(ctx, "fest")
	other := fixtures.CreateEvent(ctx, "other")
	fixtures.CreateJob(ctx, ev, "Kitchen")
	fixtures.CreateJob(ctx, ev, "Bar")
	fixtures.CreateJob(ctx, other, "Gate")

	list, err := store.ListByEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("ListByEvent failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Bar" || list[1].Name != "Kitchen" {
		t.Errorf("unexpected jobs: %v", list)
	}
}
