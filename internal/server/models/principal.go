// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"
)

// PrincipalStatus is the lifecycle state of an account.
type PrincipalStatus string

const (
	StatusActive    PrincipalStatus = "active"
	StatusSuspended PrincipalStatus = "suspended"
	StatusDeleted   PrincipalStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s PrincipalStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

// Principal is an account of a particular role (member, admin, seller, ...).
// The same email may exist once per role.
type Principal struct {
	ID           string
	Role         string
	Email        string
	PasswordHash string
	DisplayName  string
	Status       PrincipalStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Active reports whether the principal may obtain or renew tokens.
func (p *Principal) Active() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
