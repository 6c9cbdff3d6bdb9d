package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternalServer  = errors.New("internal server error")

	// Account state errors
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountLocked    = errors.New("account is temporarily locked")

	// OTP flow errors
	ErrCodeExpired  = errors.New("code is invalid or expired")
	ErrCodeMismatch = errors.New("code does not match")
)
