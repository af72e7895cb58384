package events_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/helferhub/internal/app/store/events"
	"github.com/dalemusser/helferhub/internal/app/system/indexes"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := events.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Event{URLName: "fest", Name: "Fest", Active: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := store.GetByURLName(ctx, "fest")
	if err != nil {
		t.Fatalf("GetByURLName failed: %v", err)
	}
	if got.ID != created.ID || !got.Active {
		t.Errorf("unexpected event %+v", got)
	}

	_, err = store.GetByURLName(ctx, "missing")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_DuplicateURLName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := events.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Event{URLName: "fest", Name: "A"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Event{URLName: "fest", Name: "B"}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}

func TestStore_ListOrderedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := events.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, n := range []string{"zeta", "alpha", "mid"} {
		if _, err := store.Create(ctx, models.Event{URLName: n, Name: n}); err != nil {
			t.Fatalf("Create %s: %v", n, err)
		}
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].Name != "alpha" || list[2].Name != "zeta" {
		t.Errorf("unexpected order: %v", list)
	}
}

func TestStore_UpdateAndArchive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := events.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev, err := store.Create(ctx, models.Event{URLName: "fest", Name: "Fest", Active: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	ev.Badges = true
	if err := store.Update(ctx, ev); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := store.SetArchived(ctx, ev.ID); err != nil {
		t.Fatalf("SetArchived failed: %v", err)
	}

	got, err := store.GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Badges || !got.Archived || got.Active {
		t.Errorf("unexpected flags: badges=%v archived=%v active=%v", got.Badges, got.Archived, got.Active)
	}

	if err := store.SetArchived(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments for unknown id, got %v", err)
	}
	if err := store.Update(ctx, models.Event{ID: primitive.NewObjectID()}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments for unknown update, got %v", err)
	}
}
