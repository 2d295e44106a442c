// Package domain contains the core entities of the Shelfmark catalog: users, books,
// their ratings, reviews and to-read lists, and the read models built from them.
package domain

import "strings"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin may manage the catalog and load seed data.
	RoleAdmin Role = "admin"
	// RoleMember is a registered reader.
	RoleMember Role = "member"
	// RoleAnonymous is the role of unauthenticated callers. Never stored.
	RoleAnonymous Role = "anonymous"
)

// Gender is an optional self-reported profile field.
type Gender string

// Accepted genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User represents a registered account.
type User struct {
	Timestamps
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	DateOfBirth  string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Gender       Gender `json:"gender,omitempty"`
	Role         Role   `json:"role"`
}

// IsAdmin returns true if the user has administrative privileges.
// Only the role counts; a user called "Admin" is an ordinary member.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name, falling back to the local part of the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
