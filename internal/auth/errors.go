package auth

import "errors"

// Flow outcomes. Handlers compare with errors.Is and map each one to a
// client-facing status code; everything else is treated as a server fault.
var (
	ErrEmailNotFound      = errors.New("email not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCode        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("code expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrPasswordUnchanged  = errors.New("new password cannot be the same as the old password")
)

// ErrStorageUnavailable wraps every store-level failure so callers can
// distinguish infrastructure faults from flow outcomes.
var ErrStorageUnavailable = errors.New("storage unavailable")
