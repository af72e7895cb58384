// Package notify sends helper-facing mail: the registration confirmation with
// the helper's shifts grouped by day.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/helferhub/internal/app/system/mailer"
	"github.com/dalemusser/helferhub/internal/domain/models"
	"github.com/dalemusser/helferhub/internal/domain/schedule"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ShiftLoader interface {
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Shift, error)
}

type JobLoader interface {
	ListByEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.Job, error)
}

// Service builds and sends notifications.
type Service struct {
	Mail     mailer.Sender
	Shifts   ShiftLoader
	Jobs     JobLoader
	BaseURL  string // absolute, without trailing slash
	SiteName string
	Contact  string // fallback contact address when the event has none
	Log      *zap.Logger
}

// SendRegistration mails the confirmation for h. internal marks helpers
// registered by organizers. Transport failures match mailer.ErrDelivery.
func (s *Service) SendRegistration(ctx context.Context, ev models.Event, h models.Helper, internal bool) error {
	shifts, err := s.Shifts.ListByIDs(ctx, h.Shifts)
	if err != nil {
		return fmt.Errorf("load shifts: %w", err)
	}
	jobs, err := s.Jobs.ListByEvent(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}

	data := mailer.RegistrationEmailData{
		SiteName:      s.SiteName,
		EventName:     ev.Name,
		HelperName:    h.FullName(),
		Days:          mailDays(schedule.In(shifts, ev.Location()), jobs),
		RegisteredURL: s.url(ev, "registered", h),
		ContactEmail:  ev.ContactEmail,
		Internal:      internal,
	}
	if data.ContactEmail == "" {
		data.ContactEmail = s.Contact
	}
	if ev.MailValidation && !h.Validated {
		data.ValidateURL = s.url(ev, "validate", h)
	}

	e, err := mailer.BuildRegistrationEmail(data)
	if err != nil {
		return err
	}
	e.To = h.Email
	e.ToName = h.FullName()

	if err := s.Mail.Send(ctx, e); err != nil {
		return err
	}
	s.Log.Info("registration mail sent",
		zap.String("event", ev.URLName),
		zap.String("helper_id", h.ID.Hex()),
		zap.Bool("internal", internal))
	return nil
}

func (s *Service) url(ev models.Event, page string, h models.Helper) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + ev.URLName + "/" + page + "/" + h.ID.Hex()
}

func mailDays(shifts []models.Shift, jobs []models.Job) []mailer.MailDay {
	jobNames := make(map[primitive.ObjectID]string, len(jobs))
	for _, j := range jobs {
		jobNames[j.ID] = j.Name
	}

	var out []mailer.MailDay
	for _, d := range schedule.ShiftsByDay(shifts) {
		md := mailer.MailDay{Date: d.Date.Format("Mon, 2 Jan 2006")}
		for _, sh := range d.Shifts {
			md.Shifts = append(md.Shifts, mailer.MailShift{
				Job:  jobNames[sh.JobID],
				Name: sh.Name,
				Time: sh.Begin.Format("15:04") + " - " + sh.End.Format("15:04"),
			})
		}
		out = append(out, md)
	}
	return out
}
