package clinical

import "errors"

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrClinicianNotFound = errors.New("clinician not found")
	ErrCaseNotFound      = errors.New("case not found")

	ErrInvalidVitals       = errors.New("invalid vitals")
	ErrInvalidDiseaseIDs   = errors.New("invalid disease ids")
	ErrInvalidState        = errors.New("invalid finalized state")
	ErrInvalidPrescription = errors.New("invalid prescription")
	ErrUnknownMedicine     = errors.New("unknown or inactive medicine")
	ErrCategoryMismatch    = errors.New("dosage category does not match the medicine")

	// ErrCaseFinalized rejects edits to a closed case.
	ErrCaseFinalized = errors.New("case is finalized")
	// ErrCaseAlreadyFinalized is the losing side of a finalize race or retry.
	ErrCaseAlreadyFinalized = errors.New("case already finalized")

	ErrUnauthenticated = errors.New("unauthenticated")
)

var errDuplicateToken = errors.New("queue token already used")
