package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	fail map[primitive.ObjectID]bool
	sent []primitive.ObjectID
}

func (f *fakeNotifier) SendRegistration(_ context.Context, _ models.Event, h models.Helper, _ bool) error {
	if f.fail[h.ID] {
		return errors.New("smtp: 451 try again later")
	}
	f.sent = append(f.sent, h.ID)
	return nil
}

var now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func newWorker(db *memstore.DB, n *fakeNotifier) *MailRetry {
	w := NewMailRetry(db.Helpers(), db.Events(), n, zap.NewNop(), time.Minute, 48*time.Hour)
	w.now = func() time.Time { return now }
	return w
}

func TestRetryOnce(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	ev, _ := db.Events().Create(ctx, models.Event{URLName: "fest"})
	archived, _ := db.Events().Create(ctx, models.Event{URLName: "old", Archived: true})

	add := func(eventID primitive.ObjectID, age time.Duration, failed string) models.Helper {
		h, err := db.Helpers().Create(ctx, models.Helper{EventID: eventID, MailFailed: failed, CreatedAt: now.Add(-age)})
		require.NoError(t, err)
		return h
	}
	ok := add(ev.ID, time.Hour, "dial tcp: timeout")
	stillFailing := add(ev.ID, 2*time.Hour, "dial tcp: timeout")
	tooOld := add(ev.ID, 72*time.Hour, "dial tcp: timeout")
	fine := add(ev.ID, time.Hour, "")
	ofArchived := add(archived.ID, time.Hour, "dial tcp: timeout")

	n := &fakeNotifier{fail: map[primitive.ObjectID]bool{stillFailing.ID: true}}
	sent, err := newWorker(db, n).RetryOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []primitive.ObjectID{ok.ID}, n.sent)

	reason := func(id primitive.ObjectID) string {
		h, err := db.Helpers().GetByID(ctx, id)
		require.NoError(t, err)
		return h.MailFailed
	}
	assert.Empty(t, reason(ok.ID))
	assert.Equal(t, "smtp: 451 try again later", reason(stillFailing.ID))
	assert.Equal(t, "dial tcp: timeout", reason(tooOld.ID))
	assert.Empty(t, reason(fine.ID))
	assert.Equal(t, "dial tcp: timeout", reason(ofArchived.ID))

	after := func(id primitive.ObjectID) *time.Time {
		h, err := db.Helpers().GetByID(ctx, id)
		require.NoError(t, err)
		return h.MailRetryAfter
	}
	assert.Nil(t, after(ok.ID))
	require.NotNil(t, after(stillFailing.ID))
	assert.Equal(t, now.Add(defaultBackoff), *after(stillFailing.ID))
	require.NotNil(t, after(ofArchived.ID))
	assert.Equal(t, ofArchived.CreatedAt.Add(48*time.Hour), *after(ofArchived.ID))

	// Nothing is due on the next pass.
	n.sent = nil
	sent, err = newWorker(db, n).RetryOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, n.sent)
}

func TestRetryOnce_BlockedRowsDoNotStarveQueue(t *testing.T) {
	tests := []struct {
		name    string
		blocked func(db *memstore.DB, n *fakeNotifier, live models.Event) primitive.ObjectID
	}{
		{"archived event", func(db *memstore.DB, _ *fakeNotifier, _ models.Event) primitive.ObjectID {
			ev, _ := db.Events().Create(context.Background(), models.Event{URLName: "old", Archived: true})
			return ev.ID
		}},
		{"deleted event", func(*memstore.DB, *fakeNotifier, models.Event) primitive.ObjectID {
			return primitive.NewObjectID()
		}},
		{"address keeps failing", func(_ *memstore.DB, _ *fakeNotifier, live models.Event) primitive.ObjectID {
			return live.ID
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := memstore.New()
			live, _ := db.Events().Create(ctx, models.Event{URLName: "fest"})
			n := &fakeNotifier{fail: map[primitive.ObjectID]bool{}}
			blockedEvent := tt.blocked(db, n, live)

			for i := 0; i < batchSize+10; i++ {
				h, err := db.Helpers().Create(ctx, models.Helper{
					EventID: blockedEvent, MailFailed: "x",
					CreatedAt: now.Add(-10*time.Hour + time.Duration(i)*time.Second),
				})
				require.NoError(t, err)
				n.fail[h.ID] = true
			}
			newest, err := db.Helpers().Create(ctx, models.Helper{EventID: live.ID, MailFailed: "x", CreatedAt: now.Add(-time.Hour)})
			require.NoError(t, err)

			w := newWorker(db, n)
			total := 0
			for pass := 0; pass < 3; pass++ {
				sent, err := w.RetryOnce(ctx)
				require.NoError(t, err)
				total += sent
			}

			assert.Equal(t, 1, total)
			assert.Equal(t, []primitive.ObjectID{newest.ID}, n.sent)
			h, err := db.Helpers().GetByID(ctx, newest.ID)
			require.NoError(t, err)
			assert.Empty(t, h.MailFailed)
		})
	}
}

func TestRetryOnce_StoreError(t *testing.T) {
	db := memstore.New()
	db.FailOn("helpers.ListMailFailed", errors.New("db down"))

	_, err := newWorker(db, &fakeNotifier{}).RetryOnce(context.Background())

	assert.Error(t, err)
}

func TestMailRetry_StartStop(t *testing.T) {
	db := memstore.New()
	w := NewMailRetry(db.Helpers(), db.Events(), &fakeNotifier{}, zap.NewNop(), time.Millisecond, time.Hour)

	w.Start()
	time.Sleep(5 * time.Millisecond)
	w.Stop()
}
