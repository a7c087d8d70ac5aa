package model

import (
	"strings"
)

// Role tags an account and the session that belongs to it.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Account is the credential holder shared by patients and doctors.
// Email is unique across both roles.
type Account struct {
	Base
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
}

// User is a patient account.
type User struct {
	Account
}

// NormalizeEmail trims and lowercases an address before any lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
