package models

import "github.com/golang-jwt/jwt/v5"

// Token types carried in the "type" claim.
const (
	TokenTypeAccess = "access"
	TokenTypeReset  = "reset"
)

// TokenClaims are the claims embedded in signed tokens. Access tokens
// carry the authenticated identity; reset tokens bind an email to a
// short-lived password-reset authorization.
type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
