// internal/app/features/registration/handler.go
package registration

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/helferhub/internal/app/features/errors"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/limits"
	"github.com/dalemusser/helferhub/internal/app/system/lookup"
	"github.com/dalemusser/helferhub/internal/app/system/ratelimit"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type EventStore interface {
	GetByURLName(ctx context.Context, urlName string) (models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
}

type JobStore interface {
	ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Job, error)
}

type ShiftStore interface {
	ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Shift, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Shift, error)
}

type HelperStore interface {
	Create(ctx context.Context, h models.Helper) (models.Helper, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Helper, error)
	ListByEmail(ctx context.Context, eventID primitive.ObjectID, email string) ([]models.Helper, error)
	CountByShifts(ctx context.Context, shiftIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
	SetValidated(ctx context.Context, id primitive.ObjectID) error
	SetMailFailed(ctx context.Context, id primitive.ObjectID, reason string) error
}

type LinkStore interface {
	GetByID(ctx context.Context, token string) (models.Link, error)
}

// Notifier sends the registration confirmation.
type Notifier interface {
	SendRegistration(ctx context.Context, ev models.Event, h models.Helper, internal bool) error
}

// FlashStore carries one-shot messages across the post/redirect/get cycle.
type FlashStore interface {
	AddFlash(w http.ResponseWriter, r *http.Request, level, msg string) error
	Flashes(w http.ResponseWriter, r *http.Request) []auth.Flash
}

// NewsChecker reports whether an address may still subscribe to the newsletter.
type NewsChecker interface {
	Eligible(ctx context.Context, email string) (bool, error)
}

// Stores groups the persistence the registration pages need.
type Stores struct {
	Events  EventStore
	Jobs    JobStore
	Shifts  ShiftStore
	Helpers HelperStore
	Links   LinkStore
	News    NewsChecker
}

type Handler struct {
	Stores
	Notify Notifier
	Flash  FlashStore
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	// Throttle limits registration POSTs per client IP; nil disables it.
	Throttle *ratelimit.Limiter

	// Render draws a named template; templates.Render unless replaced in tests.
	Render uierrors.RenderFunc
}

func NewHandler(stores Stores, notify Notifier, flash FlashStore, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Stores:   stores,
		Notify:   notify,
		Flash:    flash,
		ErrLog:   errLog,
		Throttle: ratelimit.New(limits.RegistrationsPerWindow, limits.RegistrationWindow),
		Log:      logger,
		Render:   templates.Render,
	}
}

func (h *Handler) resolver() lookup.Resolver {
	return lookup.Resolver{Events: h.Events, Helpers: h.Helpers}
}
