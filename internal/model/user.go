package model

import (
	"time"
)

// Credential is an email/password identity held by the auth backend.
type Credential struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// Session is the authenticated identity of the current caller.
type Session struct {
	ID        string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthUser is the payload of a successful login or registration.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
