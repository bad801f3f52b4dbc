package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Name         string             `json:"name,omitempty" bson:"name,omitempty"`
	Image        string             `json:"image,omitempty" bson:"image,omitempty"`
	Role         Role               `json:"role" bson:"role"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	LastLoggedIn time.Time          `json:"last_loggedIn" bson:"last_loggedIn"`
	UpdatedAt    *time.Time         `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	FraudAt      *time.Time         `json:"fraudAt,omitempty" bson:"fraudAt,omitempty"`
}
