// internal/app/features/jobs/handler.go
package jobs

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/helferhub/internal/app/features/errors"
	"github.com/dalemusser/helferhub/internal/app/system/auditlog"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/lookup"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type EventStore interface {
	GetByURLName(ctx context.Context, urlName string) (models.Event, error)
}

type JobStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Job, error)
	AddCoordinator(ctx context.Context, jobID, helperID primitive.ObjectID) error
}

type ShiftStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Shift, error)
	ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Shift, error)
}

type HelperStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Helper, error)
	ListByShifts(ctx context.Context, shiftIDs []primitive.ObjectID) ([]models.Helper, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Helper, error)
}

type FlashStore interface {
	AddFlash(w http.ResponseWriter, r *http.Request, level, msg string) error
	Flashes(w http.ResponseWriter, r *http.Request) []auth.Flash
}

// Handler serves the job admin pages under /manage.
type Handler struct {
	Events  EventStore
	Jobs    JobStore
	Shifts  ShiftStore
	Helpers HelperStore
	Flash   FlashStore
	Audit   *auditlog.Logger
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
	Render  uierrors.RenderFunc
}

func NewHandler(events EventStore, jobs JobStore, shifts ShiftStore, helpers HelperStore, flash FlashStore, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:  events,
		Jobs:    jobs,
		Shifts:  shifts,
		Helpers: helpers,
		Flash:   flash,
		Audit:   audit,
		ErrLog:  errLog,
		Log:     logger,
		Render:  templates.Render,
	}
}

func (h *Handler) resolver() lookup.Resolver {
	return lookup.Resolver{Events: h.Events, Jobs: h.Jobs, Shifts: h.Shifts, Helpers: h.Helpers}
}
