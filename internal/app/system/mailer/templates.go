// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// RegistrationEmailData holds data for the registration confirmation.
type RegistrationEmailData struct {
	SiteName      string
	EventName     string
	HelperName    string
	Days          []MailDay
	RegisteredURL string
	ValidateURL   string // empty when the event does not validate mail addresses
	ContactEmail  string
	Internal      bool // registered by an organizer, not through the public form
}

// MailDay lists the shifts of one date.
type MailDay struct {
	Date   string // e.g. "Wed, 1 Jul 2026"
	Shifts []MailShift
}

type MailShift struct {
	Job  string
	Name string
	Time string // e.g. "10:00 - 14:00"
}

// BuildRegistrationEmail creates the confirmation with both HTML and text
// bodies. The caller sets To.
func BuildRegistrationEmail(data RegistrationEmailData) (Email, error) {
	subject := fmt.Sprintf("[%s] Registration for %s", data.SiteName, data.EventName)
	if data.ValidateURL != "" {
		subject = fmt.Sprintf("[%s] Please confirm your registration for %s", data.SiteName, data.EventName)
	}

	var text, html bytes.Buffer
	if err := registrationText.Execute(&text, data); err != nil {
		return Email{}, fmt.Errorf("render text body: %w", err)
	}
	if err := registrationHTML.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("render html body: %w", err)
	}
	return Email{
		Subject:  subject,
		ReplyTo:  data.ContactEmail,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}

var registrationText = texttemplate.Must(texttemplate.New("registration_text").Parse(`Hello {{.HelperName}},

{{if .Internal}}the organizers registered you{{else}}thank you for registering{{end}} as a helper for {{.EventName}}.

Your shifts:
{{range .Days}}
{{.Date}}
{{range .Shifts}}  - {{.Time}}  {{.Job}}{{if .Name}} ({{.Name}}){{end}}
{{end}}{{end}}
{{if .ValidateURL}}Please confirm your e-mail address by opening this link:
{{.ValidateURL}}

{{end}}You can review your registration at:
{{.RegisteredURL}}
{{if .ContactEmail}}
Questions? Reply to this mail or write to {{.ContactEmail}}.
{{end}}`))

var registrationHTML = htmltemplate.Must(htmltemplate.New("registration_html").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.EventName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 28px 32px 20px; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #047857;">{{.EventName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 28px 32px; font-size: 15px; color: #374151; line-height: 1.5;">
              <p style="margin: 0 0 16px;">Hello {{.HelperName}},</p>
              <p style="margin: 0 0 20px;">{{if .Internal}}the organizers registered you{{else}}thank you for registering{{end}} as a helper.</p>
              {{range .Days}}
              <p style="margin: 16px 0 6px; font-weight: 600;">{{.Date}}</p>
              <ul style="margin: 0; padding-left: 20px;">
                {{range .Shifts}}<li>{{.Time}} &middot; {{.Job}}{{if .Name}} ({{.Name}}){{end}}</li>{{end}}
              </ul>
              {{end}}
              {{if .ValidateURL}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="margin-top: 28px;">
                <tr>
                  <td align="center">
                    <a href="{{.ValidateURL}}" style="display: inline-block; padding: 12px 28px; background-color: #047857; color: #ffffff; text-decoration: none; font-weight: 500; border-radius: 6px;">Confirm e-mail address</a>
                  </td>
                </tr>
              </table>
              {{end}}
              <p style="margin: 28px 0 0; font-size: 13px; color: #6b7280;"><a href="{{.RegisteredURL}}" style="color: #047857;">Review your registration</a></p>
            </td>
          </tr>
          {{if .ContactEmail}}
          <tr>
            <td style="padding: 20px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px; font-size: 12px; color: #9ca3af;">
              Questions? Write to {{.ContactEmail}}.
            </td>
          </tr>
          {{end}}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
