package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultNotificationType = "info"

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// User is a lookup-only reference; deleting a user leaves these in place.
	User    primitive.ObjectID `bson:"user" json:"user"`
	Type    string             `bson:"type" json:"type"`
	Message string             `bson:"message" json:"message"`
	Read    bool               `bson:"read" json:"read"`
}
