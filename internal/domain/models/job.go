// internal/domain/models/job.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is a role within an event (e.g. "beverage stand"). Shifts belong to a job.
//
// NOTE:
//   - Coordinators are helpers, JobAdmins are users. Both are stored as id arrays.
//   - BadgeDefaultsID is set on the save path when the event has badges enabled.
type Job struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`
	Name    string             `bson:"name" json:"name"`

	Public               bool   `bson:"public" json:"public"`
	InfectionInstruction bool   `bson:"infection_instruction" json:"infection_instruction"`
	Description          string `bson:"description,omitempty" json:"description,omitempty"` // sanitized HTML

	ArchivedNumberCoordinators int `bson:"archived_number_coordinators" json:"archived_number_coordinators"`

	JobAdmins    []primitive.ObjectID `bson:"job_admins,omitempty" json:"job_admins,omitempty"`
	Coordinators []primitive.ObjectID `bson:"coordinators,omitempty" json:"coordinators,omitempty"`

	BadgeDefaultsID *primitive.ObjectID `bson:"badge_defaults_id,omitempty" json:"badge_defaults_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NumCoordinators returns the coordinator count shown for the job. Once the
// event is archived the frozen snapshot wins, even if it is zero.
func (j Job) NumCoordinators(ev Event) int {
	if ev.Archived {
		return j.ArchivedNumberCoordinators
	}
	return len(j.Coordinators)
}

// IsAdmin reports whether p may administer this job. Event admins always may;
// otherwise p must be listed in the job's admins.
func (j Job) IsAdmin(ev Event, p Principal) bool {
	if ev.IsAdmin(p) {
		return true
	}
	return p.Authenticated() && containsID(j.JobAdmins, p.UserID)
}

// HasCoordinator reports whether helperID is a coordinator of the job.
func (j Job) HasCoordinator(helperID primitive.ObjectID) bool {
	return containsID(j.Coordinators, helperID)
}

// NeedsBadgeDefaults reports whether a badge-defaults record must be attached
// before the job is written.
func (j Job) NeedsBadgeDefaults(ev Event) bool {
	return ev.Badges && j.BadgeDefaultsID == nil
}
