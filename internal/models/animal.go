package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRating is assigned to every new listing.
const DefaultRating = 4.5

// Animal is a marketplace listing for one animal.
type Animal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Title       string  `bson:"title" json:"title"`
	AnimalType  string  `bson:"animalType" json:"animalType"`
	Breed       string  `bson:"breed" json:"breed"`
	Age         string  `bson:"age" json:"age"`
	Price       float64 `bson:"price" json:"price"`
	Location    string  `bson:"location" json:"location"`
	Description string  `bson:"description" json:"description"`

	Photos []string `bson:"photos" json:"photos"` // URLs like "/uploads/1700000000000-3f9c2a1bd.jpg"

	// Seller contact copied at creation time; later profile edits do not propagate.
	SellerName  string `bson:"sellerName" json:"sellerName"`
	SellerPhone string `bson:"sellerPhone" json:"sellerPhone"`
	SellerEmail string `bson:"sellerEmail" json:"sellerEmail"`

	// OwnerID is set only when the listing was created with a valid token.
	OwnerID *primitive.ObjectID `bson:"ownerId,omitempty" json:"ownerId,omitempty"`

	Verified bool    `bson:"verified" json:"verified"`
	Rating   float64 `bson:"rating" json:"rating"`
}

// NewAnimal carries the client-supplied fields of a listing.
type NewAnimal struct {
	Title       string   `json:"title"`
	AnimalType  string   `json:"animalType"`
	Breed       string   `json:"breed"`
	Age         string   `json:"age"`
	Price       *float64 `json:"price"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	SellerName  string   `json:"sellerName"`
	SellerPhone string   `json:"sellerPhone"`
	SellerEmail string   `json:"sellerEmail"`
}
