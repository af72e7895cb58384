// internal/domain/models/helper.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Infection instruction answers on the registration form.
const (
	InfectionInstructionValid    = "valid"
	InfectionInstructionNeeded   = "needed"
	InfectionInstructionUpcoming = "upcoming"
)

// Helper is a volunteer registered for one or more shifts of an event.
type Helper struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`

	Firstname string `bson:"firstname" json:"firstname"`
	Surname   string `bson:"surname" json:"surname"`
	Email     string `bson:"email" json:"email"`
	EmailCI   string `bson:"email_ci" json:"-"` // folded for duplicate checks
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`

	Shirt                string `bson:"shirt,omitempty" json:"shirt,omitempty"`
	Vegetarian           bool   `bson:"vegetarian" json:"vegetarian"`
	InfectionInstruction string `bson:"infection_instruction,omitempty" json:"infection_instruction,omitempty"`
	Comment              string `bson:"comment,omitempty" json:"comment,omitempty"`
	PrivacyStatement     bool   `bson:"privacy_statement" json:"privacy_statement"`

	Validated  bool   `bson:"validated" json:"validated"`
	MailFailed string `bson:"mail_failed,omitempty" json:"mail_failed,omitempty"`
	// MailRetryAfter holds back the next resend of a failed mail.
	MailRetryAfter *time.Time `bson:"mail_retry_after,omitempty" json:"-"`

	Shifts []primitive.ObjectID `bson:"shifts" json:"shifts"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins first name and surname.
func (h Helper) FullName() string {
	return strings.TrimSpace(h.Firstname + " " + h.Surname)
}

// HasShift reports whether the helper is registered for shiftID.
func (h Helper) HasShift(shiftID primitive.ObjectID) bool {
	return containsID(h.Shifts, shiftID)
}
