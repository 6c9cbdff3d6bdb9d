package models

import "time"

// RefreshToken is one row in the refresh credential ledger. The Token
// field is an opaque random string: it carries no claims and is only
// meaningful as a ledger lookup key. Rows are deleted on logout,
// rotated on refresh, and purged once ExpiresAt has elapsed.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the credential's absolute expiry has elapsed.
func (rt *RefreshToken) Expired() bool {
	return time.Now().After(rt.ExpiresAt)
}
