package patient

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Alijeyrad/medcenter_backend/internal/store"
)

const maxAge = 130

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type PaginatedResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

type ListPatientsRequest struct {
	Page    int
	PerPage int
	Type    store.PatientType
	// Query matches a name fragment, case-insensitively.
	Query string
}

func (r ListPatientsRequest) Offset() int { return (r.Page - 1) * r.PerPage }

type RegisterRequest struct {
	Name    string
	Type    store.PatientType
	Age     int
	Sex     store.Sex
	Contact store.Contact
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*store.PatientWithContact, error)
	GetByID(ctx context.Context, patientID int64) (*store.PatientWithContact, error)
	List(ctx context.Context, req ListPatientsRequest) (*PaginatedResult[store.Patient], error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	cfg  Config
	repo Repository
}

func New(cfg Config, repo Repository) Service {
	return &patientService{cfg: cfg, repo: repo}
}

func (s *patientService) Register(ctx context.Context, req RegisterRequest) (*store.PatientWithContact, error) {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPatient)
	case !req.Type.Valid():
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPatient, req.Type)
	case !req.Sex.Valid():
		return nil, fmt.Errorf("%w: unknown sex %q", ErrInvalidPatient, req.Sex)
	case req.Age < 0 || req.Age > maxAge:
		return nil, fmt.Errorf("%w: age %d out of range", ErrInvalidPatient, req.Age)
	}

	contact, err := s.contactFor(req.Type, req.Contact)
	if err != nil {
		return nil, err
	}

	p := &store.PatientWithContact{
		Patient: store.Patient{Name: req.Name, Type: req.Type, Age: req.Age, Sex: req.Sex},
		Contact: contact,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "patient: registered", "patient_id", p.ID, "type", p.Type)
	return p, nil
}

// contactFor keeps only the fields the patient type uses and normalizes
// them.
func (s *patientService) contactFor(t store.PatientType, in store.Contact) (store.Contact, error) {
	var out store.Contact
	trim := strings.TrimSpace

	switch t {
	case store.PatientStudent:
		out.RollNo = trim(in.RollNo)
		if out.RollNo == "" {
			return out, fmt.Errorf("%w: roll_no is required for students", ErrInvalidContact)
		}
		out.Email, out.Phone = trim(in.Email), in.Phone
		if out.Email == "" {
			return out, fmt.Errorf("%w: email is required for students", ErrInvalidContact)
		}
	case store.PatientProfessor:
		out.PSRN = strings.ToUpper(trim(in.PSRN))
		if out.PSRN == "" {
			return out, fmt.Errorf("%w: psrn is required for professors", ErrInvalidContact)
		}
		out.Email, out.Phone = trim(in.Email), in.Phone
		if out.Email == "" {
			return out, fmt.Errorf("%w: email is required for professors", ErrInvalidContact)
		}
	case store.PatientDependent:
		out.PSRN = strings.ToUpper(trim(in.PSRN))
		out.Relation = trim(in.Relation)
		if out.PSRN == "" || out.Relation == "" {
			return out, fmt.Errorf("%w: psrn and relation are required for dependents", ErrInvalidContact)
		}
		return out, nil
	case store.PatientVisitor:
		out.Email, out.Phone = trim(in.Email), in.Phone
		if out.Email == "" && trim(out.Phone) == "" {
			return out, fmt.Errorf("%w: email or phone is required for visitors", ErrInvalidContact)
		}
	}

	if out.Email != "" {
		addr, err := mail.ParseAddress(out.Email)
		if err != nil {
			return out, fmt.Errorf("%w: email: %v", ErrInvalidContact, err)
		}
		out.Email = strings.ToLower(addr.Address)
	}

	phone, err := NormalizePhone(out.Phone, s.cfg.PhoneRegion)
	if err != nil {
		return out, err
	}
	out.Phone = phone
	return out, nil
}

func (s *patientService) GetByID(ctx context.Context, patientID int64) (*store.PatientWithContact, error) {
	return s.repo.Get(ctx, patientID)
}

func (s *patientService) List(ctx context.Context, req ListPatientsRequest) (*PaginatedResult[store.Patient], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPatient, req.Type)
	}
	req.Query = strings.TrimSpace(req.Query)

	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if items == nil {
		items = []store.Patient{}
	}

	return &PaginatedResult[store.Patient]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}, nil
}
