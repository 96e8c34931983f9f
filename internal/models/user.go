package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DisplayName  string             `json:"displayName" bson:"displayName"`
	PasswordHash string             `json:"-" bson:"passwordHash"` // Never send to client
	GamesPlayed  int                `json:"gamesPlayed" bson:"gamesPlayed"`
	Wins         int                `json:"wins" bson:"wins"`
	Losses       int                `json:"losses" bson:"losses"`
	Draws        int                `json:"draws" bson:"draws"`
	IsActive     bool               `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	LastLoginAt  *time.Time         `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
}
