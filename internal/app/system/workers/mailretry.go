// internal/app/system/workers/mailretry.go
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/helferhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type HelperStore interface {
	ListMailFailed(ctx context.Context, since, now time.Time, limit int64) ([]models.Helper, error)
	SetMailFailed(ctx context.Context, id primitive.ObjectID, reason string) error
	DeferMailRetry(ctx context.Context, id primitive.ObjectID, reason string, until time.Time) error
}

type EventStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error)
}

// Notifier resends the registration confirmation.
type Notifier interface {
	SendRegistration(ctx context.Context, ev models.Event, h models.Helper, internal bool) error
}

// batchSize bounds the helpers retried per pass.
const batchSize = 50

// defaultBackoff is how long a helper waits after a failed resend.
const defaultBackoff = 30 * time.Minute

// MailRetry periodically resends confirmation mails that failed at
// registration time. Helpers older than MaxAge are left alone.
type MailRetry struct {
	helpers  HelperStore
	events   EventStore
	notify   Notifier
	log      *zap.Logger
	interval time.Duration
	maxAge   time.Duration
	backoff  time.Duration
	timeout  time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup

	// now is time.Now unless replaced in tests.
	now func() time.Time
}

func NewMailRetry(helpers HelperStore, events EventStore, notify Notifier, logger *zap.Logger, interval, maxAge time.Duration) *MailRetry {
	return &MailRetry{
		helpers:  helpers,
		events:   events,
		notify:   notify,
		log:      logger,
		interval: interval,
		maxAge:   maxAge,
		backoff:  defaultBackoff,
		timeout:  time.Minute,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start begins the background retry loop.
func (w *MailRetry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("mail retry worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))
}

// Stop signals the worker to stop and waits for the current pass.
func (w *MailRetry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("mail retry worker stopped")
}

func (w *MailRetry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
			if _, err := w.RetryOnce(ctx); err != nil {
				w.log.Error("mail retry pass failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// RetryOnce resends one batch and returns how many mails went out.
// A helper whose retry fails keeps its mail_failed reason, updated to the
// latest error, and waits out the backoff. Helpers of archived or deleted
// events keep their reason and are parked until they leave the retry window,
// so later passes reach the helpers behind them.
func (w *MailRetry) RetryOnce(ctx context.Context) (int, error) {
	now := w.now()
	pending, err := w.helpers.ListMailFailed(ctx, now.Add(-w.maxAge), now, batchSize)
	if err != nil {
		return 0, err
	}

	events := make(map[primitive.ObjectID]*models.Event)
	sent := 0
	for _, h := range pending {
		ev, ok := events[h.EventID]
		if !ok {
			e, err := w.events.GetByID(ctx, h.EventID)
			switch {
			case errors.Is(err, mongo.ErrNoDocuments):
				ev = nil
			case err != nil:
				return sent, err
			default:
				ev = &e
			}
			events[h.EventID] = ev
		}
		if ev == nil || ev.Archived {
			if err := w.helpers.DeferMailRetry(ctx, h.ID, h.MailFailed, h.CreatedAt.Add(w.maxAge)); err != nil {
				return sent, err
			}
			continue
		}

		if err := w.notify.SendRegistration(ctx, *ev, h, false); err != nil {
			w.log.Warn("mail retry failed",
				zap.String("helper_id", h.ID.Hex()),
				zap.Error(err))
			if err := w.helpers.DeferMailRetry(ctx, h.ID, err.Error(), now.Add(w.backoff)); err != nil {
				return sent, err
			}
			continue
		}
		if err := w.helpers.SetMailFailed(ctx, h.ID, ""); err != nil {
			return sent, err
		}
		sent++
		w.log.Info("registration mail resent",
			zap.String("event", ev.URLName),
			zap.String("helper_id", h.ID.Hex()))
	}
	return sent, nil
}
