// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an organizer account. Helpers never have one.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LoginID      string             `bson:"login_id" json:"login_id"`
	LoginIDCI    string             `bson:"login_id_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"` // bcrypt
	FullName     string             `bson:"full_name" json:"full_name"`
	Superuser    bool               `bson:"superuser" json:"superuser"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Principal returns the request-scoped identity for the user.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Name: u.FullName, Superuser: u.Superuser}
}
