// internal/domain/models/event.go
package models

import (
	"time"
	_ "time/tzdata"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is the top-level unit organizers publish. Jobs, shifts, helpers and
// links all reference an event by id.
type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	URLName      string             `bson:"url_name" json:"url_name"` // unique slug used in URLs
	Name         string             `bson:"name" json:"name"`
	ContactEmail string             `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	Timezone     string             `bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA zone shift times are shown in

	Active         bool `bson:"active" json:"active"`                   // registration open
	Archived       bool `bson:"archived" json:"archived"`               // counts frozen
	Badges         bool `bson:"badges" json:"badges"`                   // badge subsystem enabled
	MailValidation bool `bson:"mail_validation" json:"mail_validation"` // helpers confirm by link

	AskShirt      bool `bson:"ask_shirt" json:"ask_shirt"`
	AskVegetarian bool `bson:"ask_vegetarian" json:"ask_vegetarian"`

	Admins []primitive.ObjectID `bson:"admins,omitempty" json:"admins,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Location returns the event's time zone. Mongo hands dates back in UTC, so
// shift times are moved into this location before they are grouped or shown.
// An empty or unknown zone means UTC.
func (e Event) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAdmin reports whether p administers the whole event.
func (e Event) IsAdmin(p Principal) bool {
	if !p.Authenticated() {
		return false
	}
	return p.Superuser || containsID(e.Admins, p.UserID)
}

// IsInvolved reports whether p administers the event or any of its jobs.
// jobs should be the jobs of this event; jobs of other events are ignored.
func (e Event) IsInvolved(p Principal, jobs []Job) bool {
	if e.IsAdmin(p) {
		return true
	}
	if !p.Authenticated() {
		return false
	}
	for _, j := range jobs {
		if j.EventID == e.ID && containsID(j.JobAdmins, p.UserID) {
			return true
		}
	}
	return false
}
