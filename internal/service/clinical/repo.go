package clinical

import (
	"context"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type Repository interface {
	PatientExists(ctx context.Context, patientID int64) (bool, error)
	GetStaff(ctx context.Context, userID int64) (*store.StaffUser, error)

	MaxToken(ctx context.Context) (int64, error)
	// CreateCase returns errDuplicateToken when the token is taken.
	CreateCase(ctx context.Context, c *store.Case) error
	GetCase(ctx context.Context, caseID int64) (*store.Case, error)
	// Queue lists open cases the doctor is attached to, by token.
	Queue(ctx context.Context, doctorID int64) ([]store.Case, error)

	// UpdateConsultation leaves nil arguments unchanged and only touches an
	// open case; a closed one yields ErrCaseFinalized.
	UpdateConsultation(ctx context.Context, caseID int64, notes *string, diagnosis []int64) (*store.Case, error)
	AddClinician(ctx context.Context, caseID, userID int64) (*store.Case, error)

	// Finalize sets the state only where none is set and inserts the
	// prescriptions, in one transaction.
	Finalize(ctx context.Context, caseID int64, state store.FinalizedState, rx []store.Prescription) (*store.Case, []store.Prescription, error)
	ListPrescriptions(ctx context.Context, caseID int64) ([]store.Prescription, error)

	CountDiseases(ctx context.Context, ids []int64) (int, error)
	GetMedicines(ctx context.Context, ids []int64) ([]store.Medicine, error)
	ListDiseases(ctx context.Context) ([]store.Disease, error)
	ListMedicines(ctx context.Context, activeOnly bool) ([]store.Medicine, error)
}
