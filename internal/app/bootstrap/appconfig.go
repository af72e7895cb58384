// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and request limits.
// Everything helferhub itself needs lives here and is passed to the
// lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: helferhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // Cookie lifetime

	CSRFKey string // 32-byte key for gorilla/csrf tokens

	// Mail delivery: "smtp", "sendgrid" or "log"
	MailBackend     string
	MailSMTPHost    string
	MailSMTPPort    int
	MailSMTPUser    string
	MailSMTPPass    string
	MailSendGridKey string
	MailFrom        string // From address of confirmation mails
	MailFromName    string
	MailTimeout     time.Duration
	MailRetryEvery  time.Duration // 0 disables the retry worker
	MailRetryMaxAge time.Duration

	// BaseURL prefixes links in mails, e.g. "https://helfer.example.org".
	BaseURL string

	// ContactEmail is the reply address when an event has none.
	ContactEmail string

	// Audit trail destinations per category
	AuditLogAuth  string
	AuditLogAdmin string
}
