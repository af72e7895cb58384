// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/helferhub/internal/app/store/audit"
	"github.com/dalemusser/helferhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations per category.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config picks the destination for each event category.
type Config struct {
	Auth  string
	Admin string
}

// Validate rejects unknown modes. Empty modes mean ModeAll.
func (c Config) Validate() error {
	for name, m := range map[string]string{"audit_log_auth": c.Auth, "audit_log_admin": c.Admin} {
		switch m {
		case "", ModeAll, ModeDB, ModeLog, ModeOff:
		default:
			return fmt.Errorf("%s: unknown mode %q (want all, db, log or off)", name, m)
		}
	}
	return nil
}

// Recorder persists audit events; *audit.Store in production.
type Recorder interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to the store and to zap. A nil *Logger is a
// no-op, so handlers and tests may leave it unset.
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// Log records event according to the mode of its category.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var mode string
	switch event.Category {
	case audit.CategoryAuth:
		mode = l.config.Auth
	case audit.CategoryAdmin:
		mode = l.config.Admin
	}
	if mode == "" {
		mode = ModeAll
	}
	if mode == ModeOff {
		return
	}

	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if mode == ModeAll || mode == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.EventURLName != "" {
		fields = append(fields, zap.String("event", event.EventURLName))
	}
	if event.LoginID != "" {
		fields = append(fields, zap.String("login_id", event.LoginID))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func fromRequest(e audit.Event, r *http.Request) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication Events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginID string) {
	l.Log(ctx, fromRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		LoginID:   loginID,
		Success:   true,
	}, r))
}

// LoginFailed covers unknown login ids and wrong passwords alike.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, loginID string) {
	l.Log(ctx, fromRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedBadCredential,
		LoginID:       loginID,
		FailureReason: "bad credentials",
	}, r))
}

func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, loginID string) {
	l.Log(ctx, fromRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		LoginID:       loginID,
		FailureReason: "rate limited",
	}, r))
}

// Logout records a sign-out. userIDHex may be empty for anonymous sessions.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex string) {
	e := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		Success:   true,
	}
	if id, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.UserID = &id
	}
	l.Log(ctx, fromRequest(e, r))
}

// --- Admin Events ---

// UserCreated records an organizer account created from the command line.
func (l *Logger) UserCreated(ctx context.Context, userID primitive.ObjectID, loginID string, superuser bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		UserID:    &userID,
		LoginID:   loginID,
		Success:   true,
		Details:   map[string]string{"superuser": strconv.FormatBool(superuser)},
	})
}

func (l *Logger) EventImported(ctx context.Context, urlName string, jobs, shifts int) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventEventImported,
		EventURLName: urlName,
		Success:      true,
		Details: map[string]string{
			"jobs":   strconv.Itoa(jobs),
			"shifts": strconv.Itoa(shifts),
		},
	})
}

func (l *Logger) EventArchived(ctx context.Context, urlName string, jobs int) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventEventArchived,
		EventURLName: urlName,
		Success:      true,
		Details:      map[string]string{"jobs": strconv.Itoa(jobs)},
	})
}

func (l *Logger) BadgesEnabled(ctx context.Context, urlName string, jobs int) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventBadgesEnabled,
		EventURLName: urlName,
		Success:      true,
		Details:      map[string]string{"jobs_provisioned": strconv.Itoa(jobs)},
	})
}

// CoordinatorAdded records an organizer promoting a helper on a job.
func (l *Logger) CoordinatorAdded(ctx context.Context, r *http.Request, actorID primitive.ObjectID, urlName string, jobID, helperID primitive.ObjectID) {
	l.Log(ctx, fromRequest(audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventCoordinatorAdded,
		EventURLName: urlName,
		ActorID:      &actorID,
		Success:      true,
		Details: map[string]string{
			"job_id":    jobID.Hex(),
			"helper_id": helperID.Hex(),
		},
	}, r))
}
