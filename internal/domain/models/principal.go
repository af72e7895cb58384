// internal/domain/models/principal.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Principal is the identity a request acts as. The zero value is anonymous.
type Principal struct {
	UserID    primitive.ObjectID
	Name      string
	Superuser bool
}

// Authenticated reports whether the principal belongs to a signed-in user.
func (p Principal) Authenticated() bool {
	return !p.UserID.IsZero()
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
