package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RefreshTokenBytes is the entropy of an opaque refresh token. The
// ledger stores the hex form (twice this many characters).
const RefreshTokenBytes = 64

// TokenManager mints and verifies signed tokens and generates opaque
// refresh token strings. Access and reset tokens are stateless JWTs;
// refresh tokens carry no structure at all.
type TokenManager struct {
	secret            string
	accessTokenExpiry time.Duration
	resetTokenExpiry  time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry, resetExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
		resetTokenExpiry:  resetExpiry,
	}
}

// GenerateAccessToken creates a short-lived access token carrying the
// user's id and role.
func (tm *TokenManager) GenerateAccessToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Type:   models.TokenTypeAccess,
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateResetToken creates a short-lived proof token binding an email
// to a password-reset authorization.
func (tm *TokenManager) GenerateResetToken(email string) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Type:  models.TokenTypeReset,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.resetTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token's signature and expiry and returns its
// claims. No claim is trusted before the signature checks out.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Type == "" {
		return nil, fmt.Errorf("invalid token: missing type")
	}

	return claims, nil
}

// GenerateOpaqueToken returns a cryptographically random hex string of
// n bytes of entropy. Unlike access tokens it is not parseable and
// carries no claims.
func GenerateOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate opaque token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
