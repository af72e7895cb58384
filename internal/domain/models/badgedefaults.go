// internal/domain/models/badgedefaults.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BadgeDefaults holds the badge settings a job falls back to. Records are
// created empty and filled in by the badge tooling.
type BadgeDefaults struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Role      *primitive.ObjectID `bson:"role,omitempty" json:"role,omitempty"`
	Design    *primitive.ObjectID `bson:"design,omitempty" json:"design,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
