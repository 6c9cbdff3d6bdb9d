package models

import (
	"time"
)

// User lifecycle statuses. A user is created as StatusPending by the
// registration flow and becomes StatusActive on administrative approval.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              string
	Role              string // references roles.name
	Status            string // "pending", "active", "suspended"
	EmailVerified     bool
	ApprovedBy        *string
	ApprovedAt        *time.Time
	RejectionReason   *string
	FailedLogins      int
	LockedUntil       *time.Time // Temporary account lock expiration
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time // Soft delete; nil for live rows
}
