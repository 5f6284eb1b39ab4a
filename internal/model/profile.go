package model

import (
	"strings"
	"time"
)

// UserProfile is the per-user document. Email is immutable; the counters
// follow file creation and deletion.
type UserProfile struct {
	ID                 string     `bson:"_id" json:"id"`
	Email              string     `bson:"email" json:"email"`
	Name               string     `bson:"name" json:"name"`
	FirstName          string     `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName           string     `bson:"lastName,omitempty" json:"lastName,omitempty"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt          *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	TotalFiles         int64      `bson:"totalFiles" json:"totalFiles"`
	StorageUsedBytes   int64      `bson:"storageUsedBytes" json:"storageUsedBytes"`
	IsFirstLogin       bool       `bson:"isFirstLogin" json:"isFirstLogin"`
	ProfileUpdateCount int64      `bson:"profileUpdateCount" json:"profileUpdateCount"`
}

// ProfilePatch lists the mutable profile fields. Nil fields are left alone.
type ProfilePatch struct {
	Name      *string `json:"name,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// ProfileView is the profile shape returned to callers.
type ProfileView struct {
	Email              string `json:"email"`
	Name               string `json:"name"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	IsFirstLogin       bool   `json:"isFirstLogin"`
	ProfileUpdateCount int64  `json:"profileUpdateCount"`
}

// NewUserProfile returns the profile created lazily on first login.
func NewUserProfile(id, email string, now time.Time) *UserProfile {
	return &UserProfile{
		ID:                 id,
		Email:              email,
		Name:               DefaultName(email),
		CreatedAt:          now,
		TotalFiles:         0,
		StorageUsedBytes:   0,
		IsFirstLogin:       true,
		ProfileUpdateCount: 0,
	}
}

// DefaultName is the local part of an email address.
func DefaultName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

func (p *UserProfile) View() ProfileView {
	return ProfileView{
		Email:              p.Email,
		Name:               p.Name,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		IsFirstLogin:       p.IsFirstLogin,
		ProfileUpdateCount: p.ProfileUpdateCount,
	}
}

// Apply merges the patch into the profile and records one more update.
func (p *UserProfile) Apply(patch ProfilePatch, now time.Time) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	p.UpdatedAt = &now
	p.IsFirstLogin = false
	p.ProfileUpdateCount++
}
