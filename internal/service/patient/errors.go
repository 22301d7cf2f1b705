package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidPatient  = errors.New("invalid patient")
	ErrInvalidContact  = errors.New("invalid contact")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrDuplicatePSRN   = errors.New("a professor with this PSRN is already registered")
	ErrUnknownPSRN     = errors.New("no professor registered with this PSRN")
)
