// internal/domain/models/shift.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shift is a time-bounded slot of a job with a headcount need.
// EventID is denormalized from the job so event-wide queries need no join.
type Shift struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID   primitive.ObjectID `bson:"job_id" json:"job_id"`
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`
	Name    string             `bson:"name,omitempty" json:"name,omitempty"`

	Begin time.Time `bson:"begin" json:"begin"`
	End   time.Time `bson:"end" json:"end"`

	NumberOfHelpers int  `bson:"number_of_helpers" json:"number_of_helpers"`
	Blocked         bool `bson:"blocked" json:"blocked"` // hidden from the public form

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Overlaps reports whether the two shifts share any instant. Touching
// boundaries (one ends when the other begins) do not overlap.
func (s Shift) Overlaps(o Shift) bool {
	return s.Begin.Before(o.End) && o.Begin.Before(s.End)
}

// IsFull reports whether registered helpers already cover the headcount.
// A shift without a headcount is never full.
func (s Shift) IsFull(registered int) bool {
	return s.NumberOfHelpers > 0 && registered >= s.NumberOfHelpers
}

// FreeSlots returns how many helpers may still register, never negative.
func (s Shift) FreeSlots(registered int) int {
	if n := s.NumberOfHelpers - registered; n > 0 {
		return n
	}
	return 0
}
