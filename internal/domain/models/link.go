// internal/domain/models/link.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Link grants registration for a fixed set of shifts, including blocked
// shifts and shifts of inactive events. ID is a UUID token.
type Link struct {
	ID        string               `bson:"_id" json:"id"`
	EventID   primitive.ObjectID   `bson:"event_id" json:"event_id"`
	Shifts    []primitive.ObjectID `bson:"shifts" json:"shifts"`
	Usage     string               `bson:"usage,omitempty" json:"usage,omitempty"`
	CreatorID *primitive.ObjectID  `bson:"creator_id,omitempty" json:"creator_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Offers reports whether the link covers shiftID.
func (l Link) Offers(shiftID primitive.ObjectID) bool {
	return containsID(l.Shifts, shiftID)
}
