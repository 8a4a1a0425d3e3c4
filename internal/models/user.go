// Package models contains data models for the booking server.
package models

import "time"

// Authentication providers.
const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

// User represents an account that can sign in and book slots.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"not null;default:''"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null;default:''"`
	Role         string    `json:"role" gorm:"not null;default:'user'"`
	Code         string    `json:"code,omitempty"`
	AuthProvider string    `json:"auth_provider" gorm:"not null;default:'local'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can use password sign-in.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
