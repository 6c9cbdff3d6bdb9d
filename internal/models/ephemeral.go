package models

import "time"

// PendingRegistration is a staged, unconfirmed registration. It lives
// only in the ephemeral keyed store, bound by TTL, and is consumed once
// when the matching OTP is verified.
type PendingRegistration struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// OTPRecord is a one-time code keyed by email. One active record per
// (purpose, email); issuing a new code overwrites the previous one.
type OTPRecord struct {
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}
