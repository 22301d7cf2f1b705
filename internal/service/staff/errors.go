package staff

import "errors"

var (
	ErrStaffNotFound   = errors.New("staff user not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidStaff    = errors.New("invalid staff user")
	ErrUnknownRole     = errors.New("unknown staff role")
	ErrSessionNotFound = errors.New("session not found or expired")
)
