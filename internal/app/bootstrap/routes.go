// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/helferhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/helferhub/internal/app/features/health"
	jobsfeature "github.com/dalemusser/helferhub/internal/app/features/jobs"
	loginfeature "github.com/dalemusser/helferhub/internal/app/features/login"
	registrationfeature "github.com/dalemusser/helferhub/internal/app/features/registration"
	auditstore "github.com/dalemusser/helferhub/internal/app/store/audit"
	eventstore "github.com/dalemusser/helferhub/internal/app/store/events"
	helperstore "github.com/dalemusser/helferhub/internal/app/store/helpers"
	jobstore "github.com/dalemusser/helferhub/internal/app/store/jobs"
	linkstore "github.com/dalemusser/helferhub/internal/app/store/links"
	newsstore "github.com/dalemusser/helferhub/internal/app/store/news"
	shiftstore "github.com/dalemusser/helferhub/internal/app/store/shifts"
	userstore "github.com/dalemusser/helferhub/internal/app/store/users"
	"github.com/dalemusser/helferhub/internal/app/system/auditlog"
	"github.com/dalemusser/helferhub/internal/app/system/auth"
	"github.com/dalemusser/helferhub/internal/app/system/mailer"
	"github.com/dalemusser/helferhub/internal/app/system/notify"
	"github.com/dalemusser/helferhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// mailRetry is started by BuildHandler and stopped by Shutdown.
var mailRetry *workers.MailRetry

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// helferhub serves the public registration pages at the root, the job
// admin pages under /manage, plus login, health and static assets.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Reload the signed-in user on each request so revoked accounts drop out.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	send, err := mailer.New(mailer.Config{
		Backend:     appCfg.MailBackend,
		SMTPHost:    appCfg.MailSMTPHost,
		SMTPPort:    appCfg.MailSMTPPort,
		SMTPUser:    appCfg.MailSMTPUser,
		SMTPPass:    appCfg.MailSMTPPass,
		SendGridKey: appCfg.MailSendGridKey,
		From:        appCfg.MailFrom,
		FromName:    appCfg.MailFromName,
		Timeout:     appCfg.MailTimeout,
	}, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	events := eventstore.New(db)
	jobs := jobstore.New(db)
	shifts := shiftstore.New(db)
	helpers := helperstore.New(db)

	notifier := &notify.Service{
		Mail:     send,
		Shifts:   shifts,
		Jobs:     jobs,
		BaseURL:  appCfg.BaseURL,
		SiteName: appCfg.MailFromName,
		Contact:  appCfg.ContactEmail,
		Log:      logger,
	}

	if appCfg.MailRetryEvery > 0 {
		mailRetry = workers.NewMailRetry(helpers, events, notifier, logger, appCfg.MailRetryEvery, appCfg.MailRetryMaxAge)
		mailRetry.Start()
	}

	auditLog := auditlog.New(auditstore.New(db), logger, appCfg.AuditConfig())

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// gorilla/csrf rejects plain-http POSTs on referer grounds unless told
	// the request is plaintext.
	if !secure {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
			})
		})
	}
	r.Use(csrf.Protect([]byte(appCfg.CSRFKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(errorsHandler.Forbidden)),
	))

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(errorsHandler.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.MailBackend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Authentication
	loginHandler := loginfeature.NewHandler(userstore.New(db), sessionMgr, errLog, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Post("/logout", loginHandler.HandleLogout)

	// Job administration
	jobsHandler := jobsfeature.NewHandler(events, jobs, shifts, helpers, sessionMgr, errLog, auditLog, logger)
	r.Mount("/manage", jobsfeature.Routes(jobsHandler, sessionMgr.RequireSignedIn))

	// Public registration; mounted last so the fixed prefixes above win.
	regHandler := registrationfeature.NewHandler(registrationfeature.Stores{
		Events:  events,
		Jobs:    jobs,
		Shifts:  shifts,
		Helpers: helpers,
		Links:   linkstore.New(db),
		News:    newsstore.New(db),
	}, notifier, sessionMgr, errLog, logger)
	r.Mount("/", registrationfeature.Routes(regHandler))

	return r, nil
}
