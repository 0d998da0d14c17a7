// Package domain contains core concepts of the chat system.
// This file defines the User entity and its profile.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"
	"time"
)

// User is a registered account. Email is unique across the store.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Color        string
	ProfileSetup bool
	CreatedAt    time.Time
}

// ProfileUpdate carries the mutable display fields of a user.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Color     string
}

// Apply copies the profile fields on the user and marks the profile as complete.
func (u User) Apply(p ProfileUpdate) User {
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Color = p.Color
	u.ProfileSetup = u.FirstName != "" && u.LastName != ""
	return u
}

// NormalizeEmail is the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
