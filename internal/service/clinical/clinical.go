package clinical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
	"github.com/Alijeyrad/medcenter_backend/pkg/observability"
)

const tokenAttempts = 3

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type IntakeRequest struct {
	PatientID int64
	DoctorID  int64
	Vitals    store.Vitals
}

type ConsultationUpdate struct {
	Notes *string
	// DiagnosisIDs replaces the diagnosis when non-nil.
	DiagnosisIDs []int64
}

type FinalizeRequest struct {
	State         store.FinalizedState
	Prescriptions []Prescription
}

type FinalizeResult struct {
	Case          store.Case     `json:"case"`
	Prescriptions []Prescription `json:"prescriptions"`
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	IntakeVitals(ctx context.Context, p authorize.Principal, req IntakeRequest) (*store.Case, error)
	GetCase(ctx context.Context, p authorize.Principal, caseID int64) (*store.Case, error)
	Queue(ctx context.Context, p authorize.Principal) ([]store.Case, error)
	UpdateConsultation(ctx context.Context, p authorize.Principal, caseID int64, u ConsultationUpdate) (*store.Case, error)
	AssignClinician(ctx context.Context, p authorize.Principal, caseID, userID int64) (*store.Case, error)
	FinalizeCase(ctx context.Context, p authorize.Principal, caseID int64, req FinalizeRequest) (*FinalizeResult, error)
	ListPrescriptions(ctx context.Context, p authorize.Principal, caseID int64) ([]Prescription, error)

	ListDiseases(ctx context.Context) ([]store.Disease, error)
	ListMedicines(ctx context.Context) ([]store.Medicine, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

// Roles that read any case without being attached to it.
var globalCaseReaders = []authorize.Role{
	authorize.RoleNurse, authorize.RoleLab, authorize.RolePharmacist, authorize.RoleAdmin,
}

type Deps struct {
	Repo    Repository
	Tokens  TokenSource
	Metrics *observability.Domain
}

type clinicalService struct {
	Deps
}

func New(d Deps) Service {
	return &clinicalService{Deps: d}
}

func (s *clinicalService) IntakeVitals(ctx context.Context, p authorize.Principal, req IntakeRequest) (*store.Case, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := ValidateVitals(req.Vitals); err != nil {
		return nil, err
	}

	ok, err := s.Repo.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	doctor, err := s.Repo.GetStaff(ctx, req.DoctorID)
	if errors.Is(err, ErrClinicianNotFound) || (err == nil && doctor.Role != authorize.StaffRoleDoctor) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}

	c := &store.Case{
		PatientID:       req.PatientID,
		Vitals:          req.Vitals,
		Diagnosis:       []int64{},
		AssociatedUsers: []int64{req.DoctorID},
	}
	for attempt := 1; ; attempt++ {
		c.Token, err = s.Tokens.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("next queue token: %w", err)
		}
		err = s.Repo.CreateCase(ctx, c)
		if !errors.Is(err, errDuplicateToken) || attempt == tokenAttempts {
			break
		}
		slog.WarnContext(ctx, "clinical: queue token collision, resyncing", "token", c.Token)
		if err := s.Tokens.Resync(ctx); err != nil {
			slog.WarnContext(ctx, "clinical: token resync failed", "error", err)
		}
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "clinical: case opened",
		"case_id", c.ID, "token", c.Token, "patient_id", c.PatientID, "doctor_id", req.DoctorID, "nurse_id", p.UserID)
	return c, nil
}

func (s *clinicalService) GetCase(ctx context.Context, p authorize.Principal, caseID int64) (*store.Case, error) {
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if p.HasAnyRole(globalCaseReaders...) || c.IsAssociated(p.UserID) {
		return c, nil
	}
	return nil, ErrCaseNotFound
}

// attachedCase loads a case the principal is attached to.
func (s *clinicalService) attachedCase(ctx context.Context, p authorize.Principal, caseID int64) (*store.Case, error) {
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsAssociated(p.UserID) {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

func (s *clinicalService) Queue(ctx context.Context, p authorize.Principal) ([]store.Case, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	cases, err := s.Repo.Queue(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []store.Case{}
	}
	return cases, nil
}

func (s *clinicalService) UpdateConsultation(ctx context.Context, p authorize.Principal, caseID int64, u ConsultationUpdate) (*store.Case, error) {
	c, err := s.attachedCase(ctx, p, caseID)
	if err != nil {
		return nil, err
	}
	if c.IsFinalized() {
		return nil, ErrCaseFinalized
	}

	var diagnosis []int64
	if u.DiagnosisIDs != nil {
		diagnosis = lo.Uniq(u.DiagnosisIDs)
		if len(diagnosis) > 0 {
			n, err := s.Repo.CountDiseases(ctx, diagnosis)
			if err != nil {
				return nil, err
			}
			if n != len(diagnosis) {
				return nil, ErrInvalidDiseaseIDs
			}
		}
	}

	return s.Repo.UpdateConsultation(ctx, caseID, u.Notes, diagnosis)
}

func (s *clinicalService) AssignClinician(ctx context.Context, p authorize.Principal, caseID, userID int64) (*store.Case, error) {
	c, err := s.Repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsAssociated(p.UserID) && !p.HasRole(authorize.RoleAdmin) {
		return nil, ErrCaseNotFound
	}

	u, err := s.Repo.GetStaff(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != authorize.StaffRoleDoctor {
		return nil, ErrClinicianNotFound
	}
	if c.IsAssociated(userID) {
		return c, nil
	}

	c, err = s.Repo.AddClinician(ctx, caseID, userID)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "clinical: clinician assigned", "case_id", caseID, "user_id", userID, "by", p.UserID)
	return c, nil
}

// checkPrescriptions validates every dosage and matches it against the
// medicine catalog.
func (s *clinicalService) checkPrescriptions(ctx context.Context, rx []Prescription) error {
	if len(rx) == 0 {
		return nil
	}
	for i, p := range rx {
		if err := ValidateDosage(p.Dosage); err != nil {
			return fmt.Errorf("prescription %d: %w", i, err)
		}
	}

	ids := lo.Uniq(lo.Map(rx, func(p Prescription, _ int) int64 { return p.MedicineID }))
	meds, err := s.Repo.GetMedicines(ctx, ids)
	if err != nil {
		return err
	}
	byID := lo.KeyBy(meds, func(m store.Medicine) int64 { return m.ID })

	for i, p := range rx {
		m, ok := byID[p.MedicineID]
		if !ok || !m.IsActive {
			return fmt.Errorf("prescription %d: %w: %d", i, ErrUnknownMedicine, p.MedicineID)
		}
		if m.Category != p.Dosage.Category() {
			return fmt.Errorf("prescription %d: %w: %s is %s", i, ErrCategoryMismatch, m.Name, m.Category)
		}
	}
	return nil
}

func (s *clinicalService) FinalizeCase(ctx context.Context, p authorize.Principal, caseID int64, req FinalizeRequest) (*FinalizeResult, error) {
	if !req.State.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, req.State)
	}

	c, err := s.attachedCase(ctx, p, caseID)
	if err != nil {
		return nil, err
	}
	if c.IsFinalized() {
		return nil, ErrCaseAlreadyFinalized
	}

	if err := s.checkPrescriptions(ctx, req.Prescriptions); err != nil {
		return nil, err
	}

	rows := make([]store.Prescription, 0, len(req.Prescriptions))
	for _, rx := range req.Prescriptions {
		row, err := rx.toRow(caseID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	updated, saved, err := s.Repo.Finalize(ctx, caseID, req.State, rows)
	if err != nil {
		return nil, err
	}
	s.Metrics.CaseFinalized(ctx, string(req.State))

	out := &FinalizeResult{Case: *updated, Prescriptions: make([]Prescription, 0, len(saved))}
	for _, r := range saved {
		rx, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out.Prescriptions = append(out.Prescriptions, rx)
	}

	slog.InfoContext(ctx, "clinical: case finalized",
		"case_id", caseID, "state", req.State, "prescriptions", len(saved), "doctor_id", p.UserID)
	return out, nil
}

func (s *clinicalService) ListPrescriptions(ctx context.Context, p authorize.Principal, caseID int64) ([]Prescription, error) {
	if _, err := s.GetCase(ctx, p, caseID); err != nil {
		return nil, err
	}
	rows, err := s.Repo.ListPrescriptions(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]Prescription, 0, len(rows))
	for _, r := range rows {
		rx, err := fromRow(r)
		if err != nil {
			return nil, fmt.Errorf("prescription %d: %w", r.ID, err)
		}
		out = append(out, rx)
	}
	return out, nil
}

func (s *clinicalService) ListDiseases(ctx context.Context) ([]store.Disease, error) {
	return s.Repo.ListDiseases(ctx)
}

// ListMedicines returns the active catalog ordered by category and name.
func (s *clinicalService) ListMedicines(ctx context.Context) ([]store.Medicine, error) {
	return s.Repo.ListMedicines(ctx, true)
}
