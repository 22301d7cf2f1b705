package history

import (
	"context"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

// Repository is the persistence surface of the disclosure gate.
type Repository interface {
	GetPatient(ctx context.Context, patientID int64) (*store.Patient, error)
	// ResolveContact returns the contact that receives codes for the patient.
	// Dependents resolve through their professor guardian.
	ResolveContact(ctx context.Context, p *store.Patient) (store.Contact, error)
	GetStaffName(ctx context.Context, userID int64) (string, error)

	// UpsertOTP replaces any existing code for (doctor, patient) atomically.
	UpsertOTP(ctx context.Context, o *store.OTP) error
	GetOTP(ctx context.Context, doctorID, patientID int64) (*store.OTP, error)
	// ConsumeOTP deletes the code only if it still has the given hash and
	// reports whether a row was removed.
	ConsumeOTP(ctx context.Context, doctorID, patientID int64, hash string) (bool, error)

	ListCases(ctx context.Context, patientID int64) ([]store.Case, error)

	// RecordOverride writes the audit row and reads the history payload in
	// one transaction. log.ID and log.CreatedAt are filled in.
	RecordOverride(ctx context.Context, log *store.OverrideLog) (*History, error)
	ListOverrides(ctx context.Context, f OverrideFilter) ([]store.OverrideLog, int, error)
}
