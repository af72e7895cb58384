package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

func NewSendGridMailer(key, from, fromName string) *SendGridMailer {
	return &SendGridMailer{key: key, from: sgmail.NewEmail(fromName, from)}
}

func (m *SendGridMailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Backend: BackendSendGrid, Err: err}
	}

	req := sendgrid.GetRequest(m.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(e))

	res, err := sendgrid.API(req)
	if err != nil {
		return &DeliveryError{Backend: BackendSendGrid, Err: err}
	}
	if res.StatusCode >= http.StatusBadRequest {
		return &DeliveryError{Backend: BackendSendGrid, Err: fmt.Errorf("status %d: %s", res.StatusCode, res.Body)}
	}
	return nil
}

func (m *SendGridMailer) prepare(e Email) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = e.Subject
	p.AddTos(sgmail.NewEmail(e.ToName, e.To))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	if e.ReplyTo != "" {
		msg.SetReplyTo(sgmail.NewEmail("", e.ReplyTo))
	}
	msg.AddContent(sgmail.NewContent("text/plain", e.TextBody))
	if e.HTMLBody != "" {
		msg.AddContent(sgmail.NewContent("text/html", e.HTMLBody))
	}
	return msg
}
