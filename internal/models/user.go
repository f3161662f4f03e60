package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone" json:"phone"`
	Password string `bson:"password" json:"-"` // bcrypt hash, never serialized
}

// PublicUser is the subset of a User returned to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}
}

// Identity is the authenticated caller, captured once by the auth gate and
// passed by value to downstream handlers and services.
type Identity struct {
	UserID primitive.ObjectID
	Name   string
	Email  string
	Phone  string
}

func (u *User) Identity() Identity {
	return Identity{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
	}
}
