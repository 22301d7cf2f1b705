package patient

import (
	"context"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

type Repository interface {
	// Create inserts the patient and its type-specific contact row in one
	// transaction.
	Create(ctx context.Context, p *store.PatientWithContact) error
	Get(ctx context.Context, patientID int64) (*store.PatientWithContact, error)
	List(ctx context.Context, req ListPatientsRequest) ([]store.Patient, int, error)
}
