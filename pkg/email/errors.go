package email

import (
	"errors"
	"fmt"
)

type ErrDisabled struct{}

func (e ErrDisabled) Error() string { return "email is disabled" }

type ErrInvalidMessage struct{ Reason string }

func (e ErrInvalidMessage) Error() string { return "invalid email message: " + e.Reason }

type ErrSend struct {
	Provider string
	Err      error
}

func (e ErrSend) Error() string { return fmt.Sprintf("email send failed (%s): %v", e.Provider, e.Err) }
func (e ErrSend) Unwrap() error { return e.Err }

// IsDisabled reports whether err came from a client with email turned off.
func IsDisabled(err error) bool {
	var d ErrDisabled
	return errors.As(err, &d)
}
