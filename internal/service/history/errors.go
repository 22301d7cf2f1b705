package history

import "errors"

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrContactNotFound   = errors.New("patient contact not found")
	ErrCaseNotFound      = errors.New("case not found")
	ErrInvalidOtp        = errors.New("invalid otp")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
	ErrOTPDeliveryFailed = errors.New("otp delivery failed")
	ErrReasonTooShort    = errors.New("override reason too short")
	ErrUnauthenticated   = errors.New("no authenticated principal")

	// returned by Repository.GetOTP; never leaves the package
	errOTPNotFound = errors.New("otp not found")
)
