// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleAgent     = "agent"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Role           string             `bson:"role" json:"role"` // "admin", "organizer", "agent"
	FCMToken       string             `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	LastActivityAt *time.Time         `bson:"lastActivityAt,omitempty" json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
