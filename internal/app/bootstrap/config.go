// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/helferhub/internal/app/system/auditlog"
	"github.com/dalemusser/helferhub/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvPrefix prefixes helferhub's environment variables.
const EnvPrefix = "HELFERHUB"

// appConfigKeys defines the configuration keys for helferhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: HELFERHUB_MONGO_URI, HELFERHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "helferhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "helferhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_ttl", Default: "12h", Desc: "Session cookie lifetime"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-0123456789abcdef", Desc: "CSRF token key (32 bytes)"},

	// Mail
	{Name: "mail_backend", Default: "log", Desc: "Mail backend: 'smtp', 'sendgrid' or 'log'"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_sendgrid_key", Default: "", Desc: "SendGrid API key"},
	{Name: "mail_from", Default: "noreply@helferhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "helferhub", Desc: "From display name"},
	{Name: "mail_timeout", Default: "10s", Desc: "Timeout for one mail delivery"},
	{Name: "mail_retry_interval", Default: "5m", Desc: "How often failed confirmation mails are retried (0 disables)"},
	{Name: "mail_retry_max_age", Default: "48h", Desc: "Registrations older than this are not retried"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for links in mails"},
	{Name: "contact_email", Default: "", Desc: "Reply address when an event has no contact"},

	// Audit trail destinations: 'all', 'db', 'log' or 'off'
	{Name: "audit_log_auth", Default: "all", Desc: "Audit destination for sign-in events"},
	{Name: "audit_log_admin", Default: "all", Desc: "Audit destination for admin actions"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges flags > env > files > defaults;
// app keys read HELFERHUB_* from the environment.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionTTL:    appValues.Duration("session_ttl", 12*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),

		MailBackend:     appValues.String("mail_backend"),
		MailSMTPHost:    appValues.String("mail_smtp_host"),
		MailSMTPPort:    appValues.Int("mail_smtp_port"),
		MailSMTPUser:    appValues.String("mail_smtp_user"),
		MailSMTPPass:    appValues.String("mail_smtp_pass"),
		MailSendGridKey: appValues.String("mail_sendgrid_key"),
		MailFrom:        appValues.String("mail_from"),
		MailFromName:    appValues.String("mail_from_name"),
		MailTimeout:     appValues.Duration("mail_timeout", 10*time.Second),
		MailRetryEvery:  appValues.Duration("mail_retry_interval", 5*time.Minute),
		MailRetryMaxAge: appValues.Duration("mail_retry_max_age", 48*time.Hour),

		BaseURL:      strings.TrimRight(appValues.String("base_url"), "/"),
		ContactEmail: appValues.String("contact_email"),

		AuditLogAuth:  strings.ToLower(appValues.String("audit_log_auth")),
		AuditLogAdmin: strings.ToLower(appValues.String("audit_log_admin")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch strings.ToLower(appCfg.MailBackend) {
	case mailer.BackendSMTP, mailer.BackendSendGrid, mailer.BackendLog:
	default:
		return fmt.Errorf("unknown mail_backend %q (want smtp, sendgrid or log)", appCfg.MailBackend)
	}

	if err := appCfg.AuditConfig().Validate(); err != nil {
		return err
	}

	if len(appCfg.CSRFKey) < 32 {
		return fmt.Errorf("csrf_key must be at least 32 bytes")
	}

	if coreCfg.Env == "prod" {
		if strings.HasPrefix(appCfg.SessionKey, "dev-only") || strings.HasPrefix(appCfg.CSRFKey, "dev-only") {
			return fmt.Errorf("session_key and csrf_key must be set in production")
		}
		if strings.EqualFold(appCfg.MailBackend, mailer.BackendLog) {
			logger.Warn("mail_backend is 'log' in production; confirmation mails are not delivered")
		}
	}

	return nil
}

// AuditConfig maps the audit_log_* keys onto the audit logger config.
func (c AppConfig) AuditConfig() auditlog.Config {
	return auditlog.Config{Auth: c.AuditLogAuth, Admin: c.AuditLogAdmin}
}
